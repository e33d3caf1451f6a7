package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/gatekeeper"
	"nl2sql-grounding/internal/grounding"
	"nl2sql-grounding/internal/rag"
	"nl2sql-grounding/internal/schema"
	"nl2sql-grounding/internal/schemaindex"
	"nl2sql-grounding/internal/service"
	"nl2sql-grounding/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	// Set default logger to discard output for cleaner test output
	// This suppresses logs from slog.Default() used in the service layer
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
// The default logger is already set to discard in init().
func testContext() context.Context {
	return context.Background()
}

const testIdentity = "sqlite:///tmp/pharmacy.db"

type fixture struct {
	classifier *mocks.MockClassifier
	generator  *mocks.MockGenerator
	cache      *mocks.MockSchemaCache
	svc        service.QueryService
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		classifier: mocks.NewMockClassifier(ctrl),
		generator:  mocks.NewMockGenerator(ctrl),
		cache:      mocks.NewMockSchemaCache(ctrl),
	}
	f.svc = service.NewQueryService(f.classifier, f.generator, f.cache, 3)
	return f
}

func TestNewQueryService(t *testing.T) {
	f := newFixture(t)
	if f.svc == nil {
		t.Fatal("NewQueryService() returned nil")
	}
}

func TestQueryService_HandleQuestion(t *testing.T) {
	valid := gatekeeper.Verdict{Kind: gatekeeper.ValidQuery, Query: "show paracetamol stock", Rule: gatekeeper.RuleModel}
	generated := rag.GenerateResponse{
		SQL:     "SELECT * FROM product WHERE product_name = 'Paracetamol 500mg';",
		Dialect: schema.SQLite,
		RetrievedTables: []rag.TableScore{
			{Name: "product", Score: 0.82},
			{Name: "supplier", Score: 0.31},
		},
		GroundedValues: grounding.Matches{
			"product.product_name": {{Table: "product", Column: "product_name", Value: "Paracetamol 500mg", Confidence: 100}},
		},
	}

	tests := []struct {
		name         string
		req          service.QueryRequest
		mockSetup    func(f fixture)
		wantErr      bool
		checkErrType func(error) bool
		check        func(t *testing.T, resp service.QueryResponse)
	}{
		{
			name: "valid query generates sql",
			req:  service.QueryRequest{Question: "  show paracetamol stock ", Identity: testIdentity},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().
					Classify(gomock.Any(), "show paracetamol stock", testIdentity).
					Return(valid)
				f.generator.EXPECT().
					Generate(gomock.Any(), rag.GenerateRequest{
						Question: "show paracetamol stock",
						Identity: testIdentity,
						TopK:     3,
					}).
					Return(generated, nil)
			},
			check: func(t *testing.T, resp service.QueryResponse) {
				if resp.Verdict != gatekeeper.ValidQuery {
					t.Errorf("Verdict = %v, want %v", resp.Verdict, gatekeeper.ValidQuery)
				}
				if resp.SQL != generated.SQL {
					t.Errorf("SQL = %q, want %q", resp.SQL, generated.SQL)
				}
				if resp.Dialect != schema.SQLite {
					t.Errorf("Dialect = %v, want sqlite", resp.Dialect)
				}
				if len(resp.RetrievedTables) != 2 || resp.RetrievedTables[0].Name != "product" {
					t.Errorf("RetrievedTables = %v", resp.RetrievedTables)
				}
				if resp.GroundedValues.Count() != 1 {
					t.Errorf("GroundedValues count = %d, want 1", resp.GroundedValues.Count())
				}
				if resp.LowConfidence {
					t.Error("LowConfidence = true, want false for a clear winner")
				}
			},
		},
		{
			name: "rewritten query and history reach the generator",
			req: service.QueryRequest{
				Question: "and for ibuprofen?",
				Identity: testIdentity,
				TopK:     5,
				History:  []rag.Turn{{Role: "user", Content: "stock of paracetamol"}},
			},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().
					Classify(gomock.Any(), "and for ibuprofen?", testIdentity).
					Return(gatekeeper.Verdict{Kind: gatekeeper.ValidQuery, Query: "stock of ibuprofen"})
				f.generator.EXPECT().
					Generate(gomock.Any(), rag.GenerateRequest{
						Question: "stock of ibuprofen",
						Identity: testIdentity,
						TopK:     5,
						History:  []rag.Turn{{Role: "user", Content: "stock of paracetamol"}},
					}).
					Return(rag.GenerateResponse{SQL: "SELECT 1;", RetrievedTables: []rag.TableScore{{Name: "product", Score: 0.3}}}, nil)
			},
			check: func(t *testing.T, resp service.QueryResponse) {
				if resp.Query != "stock of ibuprofen" {
					t.Errorf("Query = %q, want rewritten query", resp.Query)
				}
				if !resp.LowConfidence {
					t.Error("LowConfidence = false, want true for a weak best score")
				}
			},
		},
		{
			name: "empty model query falls back to the question",
			req:  service.QueryRequest{Question: "count suppliers", Identity: testIdentity},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().
					Classify(gomock.Any(), "count suppliers", testIdentity).
					Return(gatekeeper.Verdict{Kind: gatekeeper.ValidQuery})
				f.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, req rag.GenerateRequest) (rag.GenerateResponse, error) {
						if req.Question != "count suppliers" {
							return rag.GenerateResponse{}, fmt.Errorf("unexpected question %q", req.Question)
						}
						return rag.GenerateResponse{SQL: "SELECT COUNT(*) FROM supplier;"}, nil
					})
			},
			check: func(t *testing.T, resp service.QueryResponse) {
				if resp.SQL != "SELECT COUNT(*) FROM supplier;" {
					t.Errorf("SQL = %q", resp.SQL)
				}
			},
		},
		{
			name: "chit chat returns reply without generation",
			req:  service.QueryRequest{Question: "hello"},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().
					Classify(gomock.Any(), "hello", "").
					Return(gatekeeper.Verdict{Kind: gatekeeper.ChitChat, Reply: "Hi!", Rule: gatekeeper.RuleChitChat})
			},
			check: func(t *testing.T, resp service.QueryResponse) {
				if resp.Verdict != gatekeeper.ChitChat || resp.Reply != "Hi!" {
					t.Errorf("got %+v, want chit chat reply", resp)
				}
				if resp.SQL != "" {
					t.Errorf("SQL = %q, want empty", resp.SQL)
				}
			},
		},
		{
			name: "complaint keeps its rule",
			req:  service.QueryRequest{Question: "the result is wrong", Identity: testIdentity},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().
					Classify(gomock.Any(), "the result is wrong", testIdentity).
					Return(gatekeeper.Verdict{Kind: gatekeeper.ChitChat, Reply: "Sorry", Rule: gatekeeper.RuleNegativeFeedback})
			},
			check: func(t *testing.T, resp service.QueryResponse) {
				if resp.Verdict != gatekeeper.ChitChat || resp.Rule != gatekeeper.RuleNegativeFeedback {
					t.Errorf("got %+v, want chit chat with negative feedback rule", resp)
				}
			},
		},
		{
			name:    "empty question",
			req:     service.QueryRequest{Question: "   ", Identity: testIdentity},
			wantErr: true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "question"
			},
		},
		{
			name:    "top_k above maximum",
			req:     service.QueryRequest{Question: "list products", Identity: testIdentity, TopK: 21},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrInvalidInput)
			},
		},
		{
			name:    "negative top_k",
			req:     service.QueryRequest{Question: "list products", Identity: testIdentity, TopK: -1},
			wantErr: true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "top_k"
			},
		},
		{
			name: "data question without connection string",
			req:  service.QueryRequest{Question: "list products"},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().
					Classify(gomock.Any(), "list products", "").
					Return(gatekeeper.Verdict{Kind: gatekeeper.ValidQuery, Query: "list products"})
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "connection_string"
			},
		},
		{
			name: "unreachable database",
			req:  service.QueryRequest{Question: "list products", Identity: "postgres://u:p@down/db"},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(valid)
				f.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(rag.GenerateResponse{}, fmt.Errorf("%w: connection refused", schema.ErrConnection))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrConnection) && errors.Is(err, schema.ErrConnection)
			},
		},
		{
			name: "generation model failure",
			req:  service.QueryRequest{Question: "list products", Identity: testIdentity},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(valid)
				f.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(rag.GenerateResponse{}, fmt.Errorf("%w: %w", rag.ErrGeneration, errors.New("timeout")))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
		{
			name: "embedding failure",
			req:  service.QueryRequest{Question: "list products", Identity: testIdentity},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(valid)
				f.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(rag.GenerateResponse{}, fmt.Errorf("%w: 503", schemaindex.ErrEmbedding))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
		{
			name: "unsupported dialect",
			req:  service.QueryRequest{Question: "list products", Identity: "mysql://localhost/db"},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(valid)
				f.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(rag.GenerateResponse{}, fmt.Errorf("%w: mysql", schema.ErrUnsupportedDialect))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrInvalidInput)
			},
		},
		{
			name: "unclassified error",
			req:  service.QueryRequest{Question: "list products", Identity: testIdentity},
			mockSetup: func(f fixture) {
				f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).Return(valid)
				f.generator.EXPECT().
					Generate(gomock.Any(), gomock.Any()).
					Return(rag.GenerateResponse{}, errors.New("boom"))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return !errors.Is(err, service.ErrInvalidInput) &&
					!errors.Is(err, service.ErrConnection) &&
					!errors.Is(err, service.ErrExternalService)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.mockSetup != nil {
				tt.mockSetup(f)
			}

			resp, err := f.svc.HandleQuestion(testContext(), tt.req)

			if tt.wantErr {
				if err == nil {
					t.Errorf("HandleQuestion() expected error, got nil")
					return
				}
				if tt.checkErrType != nil && !tt.checkErrType(err) {
					t.Errorf("HandleQuestion() error type mismatch: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("HandleQuestion() unexpected error: %v", err)
				return
			}
			if tt.check != nil {
				tt.check(t, resp)
			}
		})
	}
}

func TestQueryService_HandleQuestion_WithLogger(t *testing.T) {
	f := newFixture(t)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := contextutil.WithLogger(context.Background(), logger)

	f.classifier.EXPECT().
		Classify(gomock.Any(), "thanks", "").
		Return(gatekeeper.Verdict{Kind: gatekeeper.ChitChat, Reply: "You're welcome!"})

	resp, err := f.svc.HandleQuestion(ctx, service.QueryRequest{Question: "thanks"})
	if err != nil {
		t.Fatalf("HandleQuestion() error = %v", err)
	}
	if resp.Reply != "You're welcome!" {
		t.Errorf("HandleQuestion() reply = %v, want You're welcome!", resp.Reply)
	}
}

func TestQueryService_CacheStats_RedactsPasswords(t *testing.T) {
	f := newFixture(t)
	f.cache.EXPECT().Stats().Return(schemaindex.Stats{
		EntryCount: 2,
		MaxEntries: 10,
		Identities: []string{"postgres://app:s3cret@db:5432/shop", testIdentity},
	})

	stats := f.svc.CacheStats(testContext())

	if stats.EntryCount != 2 || stats.MaxEntries != 10 {
		t.Errorf("CacheStats() = %+v", stats)
	}
	if len(stats.Identities) != 2 {
		t.Fatalf("Identities = %v, want 2", stats.Identities)
	}
	if strings.Contains(stats.Identities[0], "s3cret") {
		t.Errorf("Identities[0] = %q, password not redacted", stats.Identities[0])
	}
	if !strings.Contains(stats.Identities[0], "app") {
		t.Errorf("Identities[0] = %q, want user kept", stats.Identities[0])
	}
	if stats.Identities[1] != testIdentity {
		t.Errorf("Identities[1] = %q, want %q", stats.Identities[1], testIdentity)
	}
}

func TestQueryService_ClearCache(t *testing.T) {
	t.Run("single identity", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Clear(testIdentity)
		f.svc.ClearCache(testContext(), testIdentity)
	})

	t.Run("all identities", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().ClearAll()
		f.svc.ClearCache(testContext(), "")
	})
}

func TestQueryService_DescribeSchema(t *testing.T) {
	entry := &schemaindex.Entry{
		Identity: testIdentity,
		Dialect:  schema.SQLite,
		Tables: []schema.Table{
			{Name: "product", Columns: []schema.Column{{Name: "product_id", Type: "INTEGER"}, {Name: "product_name", Type: "TEXT", Nullable: true}}, PrimaryKey: []string{"product_id"}},
			{Name: "supplier", Columns: []schema.Column{{Name: "supplier_id", Type: "INTEGER"}}, PrimaryKey: []string{"supplier_id"}},
		},
	}

	tests := []struct {
		name         string
		identity     string
		mockSetup    func(f fixture)
		wantErr      bool
		checkErrType func(error) bool
	}{
		{
			name:     "describes cached schema",
			identity: testIdentity,
			mockSetup: func(f fixture) {
				f.cache.EXPECT().GetOrBuild(gomock.Any(), testIdentity).Return(entry, nil)
			},
		},
		{
			name:     "empty identity",
			identity: " ",
			wantErr:  true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "connection_string"
			},
		},
		{
			name:     "unreachable database",
			identity: "postgres://down/db",
			mockSetup: func(f fixture) {
				f.cache.EXPECT().
					GetOrBuild(gomock.Any(), "postgres://down/db").
					Return(nil, fmt.Errorf("%w: refused", schema.ErrConnection))
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrConnection)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.mockSetup != nil {
				tt.mockSetup(f)
			}

			overview, err := f.svc.DescribeSchema(testContext(), tt.identity)

			if tt.wantErr {
				if err == nil {
					t.Errorf("DescribeSchema() expected error, got nil")
					return
				}
				if tt.checkErrType != nil && !tt.checkErrType(err) {
					t.Errorf("DescribeSchema() error type mismatch: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DescribeSchema() unexpected error: %v", err)
			}
			if overview.Dialect != schema.SQLite {
				t.Errorf("Dialect = %v, want sqlite", overview.Dialect)
			}
			if strings.Join(overview.Tables, ",") != "product,supplier" {
				t.Errorf("Tables = %v", overview.Tables)
			}
			if !strings.Contains(overview.DDL, "CREATE TABLE product (") || !strings.Contains(overview.DDL, "CREATE TABLE supplier (") {
				t.Errorf("DDL missing tables:\n%s", overview.DDL)
			}
			if !strings.Contains(overview.Summary, "**Total Tables:** 2") {
				t.Errorf("Summary missing table count:\n%s", overview.Summary)
			}
		})
	}
}
