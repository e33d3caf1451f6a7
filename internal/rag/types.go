package rag

import (
	"nl2sql-grounding/internal/grounding"
	"nl2sql-grounding/internal/schema"
)

// Turn is one earlier exchange of a conversation.
type Turn struct {
	// Role is "user" for a question or "assistant" for generated SQL.
	Role string `json:"role"`
	// Content is the question text or the SQL.
	Content string `json:"content"`
}

// GenerateRequest represents an SQL generation request.
type GenerateRequest struct {
	// Question is the natural-language question to answer.
	Question string `json:"question"`
	// Identity is the connection string of the target database.
	Identity string `json:"identity"`
	// TopK is the number of tables to retrieve.
	TopK int `json:"top_k"`
	// History holds earlier turns; only the last few are used as context.
	History []Turn `json:"history,omitempty"`
}

// TableScore is a retrieved table with its similarity to the question.
type TableScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// GenerateResponse represents the outcome of SQL generation.
type GenerateResponse struct {
	// SQL is the cleaned statement, or an "-- ERROR:" comment when the model
	// produced nothing usable or a write statement.
	SQL string `json:"sql"`
	// Dialect is the dialect of the target database.
	Dialect schema.Dialect `json:"dialect"`
	// RetrievedTables lists the tables used in the prompt, best first.
	RetrievedTables []TableScore `json:"retrieved_tables"`
	// GroundedValues holds the live values matched to the question.
	GroundedValues grounding.Matches `json:"grounded_values"`
	// Prompt is the exact text sent to the model.
	Prompt string `json:"-"`
}

// Scores returns the retrieval scores in rank order.
func (r GenerateResponse) Scores() []float64 {
	scores := make([]float64, len(r.RetrievedTables))
	for i, t := range r.RetrievedTables {
		scores[i] = t.Score
	}
	return scores
}
