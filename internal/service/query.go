package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dependencies.go -package=mocks nl2sql-grounding/internal/service Classifier,Generator,SchemaCache
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_service.go -package=mocks -mock_names=QueryService=MockQueryService nl2sql-grounding/internal/service QueryService

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/gatekeeper"
	"nl2sql-grounding/internal/grounding"
	"nl2sql-grounding/internal/metrics"
	"nl2sql-grounding/internal/rag"
	"nl2sql-grounding/internal/schema"
	"nl2sql-grounding/internal/schemaindex"
)

// MaxTopK bounds the number of tables a caller may request.
const MaxTopK = 20

// Classifier decides whether a message should reach SQL generation.
type Classifier interface {
	Classify(ctx context.Context, input, identity string) gatekeeper.Verdict
}

// Generator produces SQL for a question against a database.
type Generator interface {
	Generate(ctx context.Context, req rag.GenerateRequest) (rag.GenerateResponse, error)
}

// SchemaCache is the per-database schema index cache.
type SchemaCache interface {
	GetOrBuild(ctx context.Context, identity string) (*schemaindex.Entry, error)
	Clear(identity string)
	ClearAll()
	Stats() schemaindex.Stats
}

// QueryRequest represents a question in the domain layer.
type QueryRequest struct {
	Question string
	Identity string
	// TopK is the number of tables to retrieve; zero selects the configured default.
	TopK    int
	History []rag.Turn
}

// QueryResponse represents the answer to a question. For verdicts other than
// gatekeeper.ValidQuery only Verdict, Rule and Reply are set.
type QueryResponse struct {
	Verdict         gatekeeper.Kind
	Rule            string
	Reply           string
	SQL             string
	Query           string
	Dialect         schema.Dialect
	RetrievedTables []rag.TableScore
	GroundedValues  grounding.Matches
	// LowConfidence is set when the retrieval scores suggest the tables may be wrong.
	LowConfidence bool
}

// CacheStats describes the schema cache with redacted identities.
type CacheStats struct {
	EntryCount int
	MaxEntries int
	Identities []string
}

// SchemaOverview describes a connected database.
type SchemaOverview struct {
	Dialect schema.Dialect
	Tables  []string
	DDL     string
	// Summary is a markdown overview of the tables.
	Summary string
}

// QueryService answers natural-language questions about databases.
type QueryService interface {
	// HandleQuestion classifies the question and, when it is a data question,
	// generates SQL for it.
	HandleQuestion(ctx context.Context, req QueryRequest) (QueryResponse, error)
	// CacheStats reports the schema cache contents.
	CacheStats(ctx context.Context) CacheStats
	// ClearCache drops the cached schema of identity, or every schema when
	// identity is empty.
	ClearCache(ctx context.Context, identity string)
	// DescribeSchema connects to identity, caches its schema and describes it.
	DescribeSchema(ctx context.Context, identity string) (SchemaOverview, error)
}

// queryService implements QueryService.
type queryService struct {
	classifier  Classifier
	generator   Generator
	cache       SchemaCache
	defaultTopK int
	logger      *slog.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(classifier Classifier, generator Generator, cache SchemaCache, defaultTopK int) QueryService {
	return &queryService{
		classifier:  classifier,
		generator:   generator,
		cache:       cache,
		defaultTopK: defaultTopK,
		logger:      slog.Default(),
	}
}

// HandleQuestion processes a question.
func (s *queryService) HandleQuestion(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	logger := s.loggerFrom(ctx)
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in query request")
		return QueryResponse{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	topK := req.TopK
	if topK == 0 {
		topK = s.defaultTopK
	}
	if topK < 1 || topK > MaxTopK {
		logger.WarnContext(ctx, "top_k out of range", "top_k", req.TopK)
		return QueryResponse{}, &ValidationError{Field: "top_k", Message: "must be between 1 and 20"}
	}

	verdict := s.classifier.Classify(ctx, question, req.Identity)
	if !verdict.Proceeds() {
		metrics.ObserveQuestion(string(verdict.Kind), time.Since(start))
		return QueryResponse{Verdict: verdict.Kind, Rule: verdict.Rule, Reply: verdict.Reply}, nil
	}

	if req.Identity == "" {
		logger.WarnContext(ctx, "data question without a connection string")
		return QueryResponse{}, &ValidationError{Field: "connection_string", Message: "is required to generate SQL"}
	}

	query := verdict.Query
	if query == "" {
		query = question
	}
	resp, err := s.generator.Generate(ctx, rag.GenerateRequest{
		Question: query,
		Identity: req.Identity,
		TopK:     topK,
		History:  req.History,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate sql", "identity", schema.Redact(req.Identity), "error", err)
		return QueryResponse{}, classifyError(err)
	}

	out := QueryResponse{
		Verdict:         verdict.Kind,
		Rule:            verdict.Rule,
		SQL:             resp.SQL,
		Query:           query,
		Dialect:         resp.Dialect,
		RetrievedTables: resp.RetrievedTables,
		GroundedValues:  resp.GroundedValues,
		LowConfidence:   gatekeeper.ShowLowConfidenceHint(resp.Scores()),
	}
	metrics.ObserveQuestion(string(verdict.Kind), time.Since(start))
	logger.InfoContext(ctx, "question answered",
		"tables", len(out.RetrievedTables),
		"grounded_values", out.GroundedValues.Count(),
		"low_confidence", out.LowConfidence,
	)
	return out, nil
}

// CacheStats returns the cache contents with passwords masked.
func (s *queryService) CacheStats(ctx context.Context) CacheStats {
	stats := s.cache.Stats()
	identities := make([]string, len(stats.Identities))
	for i, id := range stats.Identities {
		identities[i] = schema.Redact(id)
	}
	return CacheStats{
		EntryCount: stats.EntryCount,
		MaxEntries: stats.MaxEntries,
		Identities: identities,
	}
}

// ClearCache clears one identity or the whole cache.
func (s *queryService) ClearCache(ctx context.Context, identity string) {
	logger := s.loggerFrom(ctx)
	if identity == "" {
		s.cache.ClearAll()
		logger.InfoContext(ctx, "schema cache cleared")
		return
	}
	s.cache.Clear(identity)
	logger.InfoContext(ctx, "schema cache entry cleared", "identity", schema.Redact(identity))
}

// DescribeSchema builds or reuses the cached schema of identity.
func (s *queryService) DescribeSchema(ctx context.Context, identity string) (SchemaOverview, error) {
	logger := s.loggerFrom(ctx)

	if strings.TrimSpace(identity) == "" {
		return SchemaOverview{}, &ValidationError{Field: "connection_string", Message: "cannot be empty"}
	}

	entry, err := s.cache.GetOrBuild(ctx, identity)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load schema", "identity", schema.Redact(identity), "error", err)
		return SchemaOverview{}, classifyError(err)
	}

	names := make([]string, len(entry.Tables))
	for i, t := range entry.Tables {
		names[i] = t.Name
	}
	return SchemaOverview{
		Dialect: entry.Dialect,
		Tables:  names,
		DDL:     schema.RenderDDL(entry.Tables),
		Summary: gatekeeper.DescribeSchema(entry.Dialect, entry.Tables),
	}, nil
}

func (s *queryService) loggerFrom(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != slog.Default() {
		return l
	}
	return s.logger
}

// classifyError maps domain errors onto the service taxonomy.
func classifyError(err error) error {
	switch {
	case errors.Is(err, rag.ErrInvalidK), errors.Is(err, schema.ErrUnsupportedDialect):
		return Classify(ErrInvalidInput, err)
	case errors.Is(err, schema.ErrConnection):
		return Classify(ErrConnection, err)
	case errors.Is(err, schemaindex.ErrEmbedding), errors.Is(err, rag.ErrEmbedding), errors.Is(err, rag.ErrGeneration):
		return Classify(ErrExternalService, err)
	default:
		return WrapError(err, "failed to answer question")
	}
}
