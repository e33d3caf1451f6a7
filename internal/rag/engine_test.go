package rag

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nl2sql-grounding/internal/grounding"
	"nl2sql-grounding/internal/llm"
	"nl2sql-grounding/internal/schema"
	"nl2sql-grounding/internal/schemaindex"
)

// topicEmbedder maps text onto (product, supplier, branch) mention counts.
type topicEmbedder struct{}

func (topicEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		out[i] = []float32{
			float32(strings.Count(lower, "product")),
			float32(strings.Count(lower, "supplier")),
			float32(strings.Count(lower, "branch")),
		}
	}
	return out, nil
}

type stubLLM struct {
	reply    string
	err      error
	messages []llm.Message
	params   llm.ChatParams
	calls    int
}

func (s *stubLLM) ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
	s.calls++
	s.messages = messages
	s.params = params
	return s.reply, s.err
}

type countingIndex struct {
	SchemaIndex
	calls int
}

func (c *countingIndex) GetOrBuild(ctx context.Context, identity string) (*schemaindex.Entry, error) {
	c.calls++
	return c.SchemaIndex.GetOrBuild(ctx, identity)
}

type countingOpener struct {
	DBOpener
	calls int
}

func (c *countingOpener) Open(ctx context.Context, identity string) (*sql.DB, schema.Dialect, error) {
	c.calls++
	return c.DBOpener.Open(ctx, identity)
}

func createPharmacyDB(t *testing.T) string {
	t.Helper()
	return createPharmacyDBAt(t, filepath.Join(t.TempDir(), "pharmacy.db"))
}

func createPharmacyDBAt(t *testing.T, path string) string {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	stmts := []string{
		`CREATE TABLE supplier (id INTEGER PRIMARY KEY, supplier_name TEXT NOT NULL)`,
		`CREATE TABLE branch (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE product (
			id INTEGER PRIMARY KEY,
			product_name TEXT NOT NULL,
			supplier_id INTEGER REFERENCES supplier(id)
		)`,
		`INSERT INTO supplier (supplier_name) VALUES ('Siam Pharma')`,
		`INSERT INTO branch (name) VALUES ('Bangkok'), ('Chiang Mai')`,
		`INSERT INTO product (product_name, supplier_id) VALUES ('Paracetamol 500mg', 1), ('Ibuprofen 400mg', 1)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return "sqlite:///" + path
}

func newTestEngine(t *testing.T, client LLMClient, withGrounding bool) (Engine, *countingIndex) {
	t.Helper()
	connector := schema.NewConnector(2)
	cache := schemaindex.New(schema.NewIntrospector(connector), topicEmbedder{}, schemaindex.Options{})
	index := &countingIndex{SchemaIndex: cache}

	var grounder *grounding.Grounder
	if withGrounding {
		grounder = grounding.NewGrounder(grounding.Options{Threshold: 70, MaxPerColumn: 5, CandidateCap: 100})
	}
	return NewEngine(index, NewRetriever(topicEmbedder{}), connector, grounder, client, "sqlcoder"), index
}

func TestEngine_Generate(t *testing.T) {
	identity := createPharmacyDB(t)
	client := &stubLLM{reply: "```sql\nSELECT * FROM product WHERE product_name = 'Paracetamol 500mg'\n```"}
	engine, _ := newTestEngine(t, client, true)

	resp, err := engine.Generate(context.Background(), GenerateRequest{
		Question: "Show all products with Paracetamol",
		Identity: identity,
		TopK:     2,
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM product WHERE product_name = 'Paracetamol 500mg';", resp.SQL)
	assert.Equal(t, schema.SQLite, resp.Dialect)
	require.Len(t, resp.RetrievedTables, 2)
	assert.Equal(t, "product", resp.RetrievedTables[0].Name)
	assert.Len(t, resp.Scores(), 2)

	values := resp.GroundedValues["product.product_name"]
	require.Len(t, values, 1)
	assert.Equal(t, "Paracetamol 500mg", values[0].Value)
	assert.GreaterOrEqual(t, values[0].Confidence, 70)

	require.Equal(t, 1, client.calls)
	require.Len(t, client.messages, 1)
	sent := client.messages[0].Content
	assert.Equal(t, resp.Prompt, sent)
	assert.Contains(t, sent, "-- Database dialect: SQLite")
	assert.Contains(t, sent, "CREATE TABLE product (")
	assert.Contains(t, sent, "USE THESE EXACT VALUES")
	assert.NotContains(t, sent, "CREATE TABLE supplier")

	assert.Equal(t, "sqlcoder", client.params.Model)
	assert.Equal(t, float32(0), client.params.Temperature)
	assert.Equal(t, 500, client.params.MaxTokens)
	assert.Equal(t, []string{"[/SQL]", "###", "\n\n\n"}, client.params.Stop)
}

func TestEngine_Generate_WithoutGrounding(t *testing.T) {
	identity := createPharmacyDB(t)
	client := &stubLLM{reply: "SELECT name FROM branch"}
	engine, _ := newTestEngine(t, client, false)

	resp, err := engine.Generate(context.Background(), GenerateRequest{
		Question: "list every branch",
		Identity: identity,
		TopK:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM branch;", resp.SQL)
	assert.Empty(t, resp.GroundedValues)
	assert.NotContains(t, resp.Prompt, "USE THESE EXACT VALUES")
	assert.Equal(t, "branch", resp.RetrievedTables[0].Name)
}

func TestEngine_Generate_InvalidTopK(t *testing.T) {
	client := &stubLLM{}
	engine, index := newTestEngine(t, client, true)

	_, err := engine.Generate(context.Background(), GenerateRequest{Question: "q", Identity: "sqlite:///x.db", TopK: 0})
	assert.ErrorIs(t, err, ErrInvalidK)
	assert.Equal(t, 0, index.calls)
	assert.Equal(t, 0, client.calls)
}

func TestEngine_Generate_UnreachableDatabase(t *testing.T) {
	client := &stubLLM{}
	engine, _ := newTestEngine(t, client, true)

	_, err := engine.Generate(context.Background(), GenerateRequest{
		Question: "q",
		Identity: "sqlite:///" + filepath.Join(t.TempDir(), "missing.db"),
		TopK:     3,
	})
	assert.ErrorIs(t, err, schema.ErrConnection)
	assert.Equal(t, 0, client.calls)
}

func TestEngine_Generate_KeywordlessQuestionSkipsDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pharmacy.db")
	identity := createPharmacyDBAt(t, path)
	connector := schema.NewConnector(2)
	opener := &countingOpener{DBOpener: connector}
	cache := schemaindex.New(schema.NewIntrospector(connector), topicEmbedder{}, schemaindex.Options{})
	grounder := grounding.NewGrounder(grounding.Options{Threshold: 70, MaxPerColumn: 5, CandidateCap: 100})
	client := &stubLLM{reply: "SELECT * FROM product"}
	engine := NewEngine(cache, NewRetriever(topicEmbedder{}), opener, grounder, client, "sqlcoder")

	resp, err := engine.Generate(context.Background(), GenerateRequest{Question: "show me all of it", Identity: identity, TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, opener.calls)
	assert.Empty(t, resp.GroundedValues)
	assert.Equal(t, "SELECT * FROM product;", resp.SQL)

	// The schema is cached, so a keyword-less question needs no live database.
	require.NoError(t, os.Remove(path))
	resp, err = engine.Generate(context.Background(), GenerateRequest{Question: "it", Identity: identity, TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, opener.calls)
	assert.Equal(t, "SELECT * FROM product;", resp.SQL)
	assert.Equal(t, 2, client.calls)
}

func TestEngine_Generate_KeywordQuestionOpensDatabaseOnce(t *testing.T) {
	identity := createPharmacyDB(t)
	connector := schema.NewConnector(2)
	opener := &countingOpener{DBOpener: connector}
	cache := schemaindex.New(schema.NewIntrospector(connector), topicEmbedder{}, schemaindex.Options{})
	grounder := grounding.NewGrounder(grounding.Options{Threshold: 70, MaxPerColumn: 5, CandidateCap: 100})
	engine := NewEngine(cache, NewRetriever(topicEmbedder{}), opener, grounder, &stubLLM{reply: "SELECT 1"}, "sqlcoder")

	resp, err := engine.Generate(context.Background(), GenerateRequest{Question: "products with Paracetamol", Identity: identity, TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, opener.calls)
	assert.NotEmpty(t, resp.GroundedValues)
}

func TestEngine_Generate_ModelFailure(t *testing.T) {
	identity := createPharmacyDB(t)
	engine, _ := newTestEngine(t, &stubLLM{err: errors.New("503 Service Unavailable")}, true)

	_, err := engine.Generate(context.Background(), GenerateRequest{Question: "products", Identity: identity, TopK: 3})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestEngine_Generate_RejectsWrites(t *testing.T) {
	identity := createPharmacyDB(t)
	engine, _ := newTestEngine(t, &stubLLM{reply: "[SQL] DELETE FROM product [/SQL]"}, false)

	resp, err := engine.Generate(context.Background(), GenerateRequest{Question: "remove products", Identity: identity, TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, WriteRejectedMessage, resp.SQL)
}

func TestWithHistory(t *testing.T) {
	assert.Equal(t, "q", withHistory("q", nil))

	history := []Turn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "SELECT 1;"},
		{Role: "user", Content: "second"},
		{Role: "assistant", Content: "SELECT 2;"},
		{Role: "user", Content: "third"},
	}
	got := withHistory("now", history)
	assert.NotContains(t, got, "first")
	assert.True(t, strings.HasPrefix(got, "Previous SQL: SELECT 1;\nPrevious question: second\n"))
	assert.True(t, strings.HasSuffix(got, "Previous question: third\n\nCurrent question: now"))
}
