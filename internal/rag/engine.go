package rag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/grounding"
	"nl2sql-grounding/internal/llm"
	"nl2sql-grounding/internal/prompt"
	"nl2sql-grounding/internal/schema"
	"nl2sql-grounding/internal/schemaindex"
	"nl2sql-grounding/internal/textnorm"
)

// ErrGeneration marks failures of the SQL generation model call.
var ErrGeneration = errors.New("sql generation failed")

const (
	generationTemperature = 0
	generationMaxTokens   = 500
	historyTurns          = 4
)

// Engine turns a question about a database into SQL.
type Engine interface {
	// Generate retrieves relevant tables, grounds values and asks the model for SQL.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// SchemaIndex resolves a database identity to its cached schema index.
type SchemaIndex interface {
	GetOrBuild(ctx context.Context, identity string) (*schemaindex.Entry, error)
}

// DBOpener opens a live handle to a target database.
type DBOpener interface {
	Open(ctx context.Context, identity string) (*sql.DB, schema.Dialect, error)
}

// LLMClient sends chat completions to the generation model.
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	index     SchemaIndex
	retriever *Retriever
	opener    DBOpener
	grounder  *grounding.Grounder
	llmClient LLMClient
	model     string
}

// NewEngine creates a new SQL generation engine. A nil grounder disables value
// grounding.
func NewEngine(
	index SchemaIndex,
	retriever *Retriever,
	opener DBOpener,
	grounder *grounding.Grounder,
	llmClient LLMClient,
	model string,
) Engine {
	return &ragEngine{
		index:     index,
		retriever: retriever,
		opener:    opener,
		grounder:  grounder,
		llmClient: llmClient,
		model:     model,
	}
}

// Generate runs retrieval, grounding, prompt assembly and generation.
func (e *ragEngine) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "sql generation started",
		"identity", schema.Redact(req.Identity),
		"top_k", req.TopK,
		"history_turns", len(req.History),
	)

	if req.TopK <= 0 {
		return GenerateResponse{}, fmt.Errorf("%w: got %d", ErrInvalidK, req.TopK)
	}

	entry, err := e.index.GetOrBuild(ctx, req.Identity)
	if err != nil {
		return GenerateResponse{}, err
	}

	result, err := e.retriever.Retrieve(ctx, req.Question, entry, req.TopK)
	if err != nil {
		return GenerateResponse{}, err
	}

	tables := result.Descriptors()
	resp := GenerateResponse{
		Dialect:         entry.Dialect,
		RetrievedTables: make([]TableScore, len(result.Tables)),
		GroundedValues:  grounding.Matches{},
	}
	for i, t := range result.Tables {
		resp.RetrievedTables[i] = TableScore{Name: t.Table.Name, Score: t.Score}
	}

	if e.grounder != nil && len(tables) > 0 {
		matches, err := e.ground(ctx, req, tables)
		if err != nil {
			return GenerateResponse{}, err
		}
		resp.GroundedValues = matches
	}

	resp.Prompt = prompt.Assemble(prompt.Input{
		SchemaDDL: schema.RenderDDL(tables),
		Values:    resp.GroundedValues,
		Dialect:   entry.Dialect,
		Question:  withHistory(req.Question, req.History),
	})
	logger.DebugContext(ctx, "prompt assembled",
		"prompt_length", len(resp.Prompt),
		"tables", len(tables),
		"grounded_values", resp.GroundedValues.Count(),
	)

	raw, err := e.llmClient.ChatWithMessages(ctx, []llm.Message{
		{Role: "user", Content: resp.Prompt},
	}, llm.ChatParams{
		Model:       e.model,
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
		Stop:        prompt.StopSequences,
	})
	if err != nil {
		logger.ErrorContext(ctx, "sql generation call failed", "error", err)
		return GenerateResponse{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	resp.SQL = FinalizeSQL(raw)
	logger.InfoContext(ctx, "sql generated",
		"sql_length", len(resp.SQL),
		"rejected", strings.HasPrefix(resp.SQL, "-- ERROR:"),
	)
	return resp, nil
}

// ground opens the live database and matches the question against its values.
// The database is not opened when the question has no keywords.
func (e *ragEngine) ground(ctx context.Context, req GenerateRequest, tables []schema.Table) (grounding.Matches, error) {
	if len(textnorm.Keywords(req.Question)) == 0 {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "no keywords in question; grounding skipped")
		return grounding.Matches{}, nil
	}

	db, dialect, err := e.opener.Open(ctx, req.Identity)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	return e.grounder.Ground(ctx, req.Question, tables, grounding.NewSQLSampler(db, dialect))
}

// withHistory prefixes question with the last few turns of the conversation.
func withHistory(question string, history []Turn) string {
	if len(history) == 0 {
		return question
	}
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	var b strings.Builder
	for _, turn := range history {
		if turn.Role == "user" {
			fmt.Fprintf(&b, "Previous question: %s\n", turn.Content)
		} else {
			fmt.Fprintf(&b, "Previous SQL: %s\n", turn.Content)
		}
	}
	fmt.Fprintf(&b, "\nCurrent question: %s", question)
	return b.String()
}
