package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/schema"
	"nl2sql-grounding/internal/schemaindex"
)

var (
	// ErrInvalidK is returned when a non-positive table count is requested.
	ErrInvalidK = errors.New("k must be a positive integer")
	// ErrEmbedding marks failures of the embedding service for a question.
	ErrEmbedding = errors.New("question embedding failed")
)

// Embedder maps texts to vectors in the same space as the schema index.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ScoredTable is a table with its cosine similarity to the question.
type ScoredTable struct {
	Table schema.Table
	Score float64
}

// Result holds at most k tables ordered by descending score; equal
// scores keep schema order.
type Result struct {
	Tables []ScoredTable
}

// Scores returns the similarity scores in rank order.
func (r Result) Scores() []float64 {
	scores := make([]float64, len(r.Tables))
	for i, t := range r.Tables {
		scores[i] = t.Score
	}
	return scores
}

// Descriptors returns the ranked table descriptors.
func (r Result) Descriptors() []schema.Table {
	tables := make([]schema.Table, len(r.Tables))
	for i, t := range r.Tables {
		tables[i] = t.Table
	}
	return tables
}

// Retriever ranks the tables of a schema index against a question.
type Retriever struct {
	embedder Embedder
}

// NewRetriever creates a Retriever that embeds questions with embedder.
func NewRetriever(embedder Embedder) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve embeds question once and returns the k most similar tables of entry.
// If k exceeds the table count, all tables are returned ranked.
func (r *Retriever) Retrieve(ctx context.Context, question string, entry *schemaindex.Entry, k int) (Result, error) {
	if k <= 0 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if entry == nil || len(entry.Tables) == 0 {
		return Result{}, nil
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vectors) == 0 {
		return Result{}, fmt.Errorf("%w: no embedding returned", ErrEmbedding)
	}

	ranked := Rank(vectors[0], entry.Tables, entry.Vectors, k)

	logger := contextutil.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "tables retrieved",
		"k", k,
		"candidates", len(entry.Tables),
		"top", tableNames(ranked),
		"scores", Result{Tables: ranked}.Scores(),
	)

	return Result{Tables: ranked}, nil
}

// Rank scores every table against query and keeps the k best. vectors[i]
// belongs to tables[i]; a missing row scores 0.
func Rank(query []float32, tables []schema.Table, vectors [][]float32, k int) []ScoredTable {
	scored := make([]ScoredTable, len(tables))
	for i, t := range tables {
		var row []float32
		if i < len(vectors) {
			row = vectors[i]
		}
		scored[i] = ScoredTable{Table: t, Score: CosineSimilarity(query, row)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// CosineSimilarity returns a·b / (|a||b|). Zero vectors and mismatched
// dimensions yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(-1, math.Min(1, sim))
}

func tableNames(tables []ScoredTable) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Table.Name
	}
	return names
}
