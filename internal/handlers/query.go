package handlers

import (
	"encoding/json"
	"net/http"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/rag"
	"nl2sql-grounding/internal/service"
)

// QueryHandler handles HTTP requests for natural-language questions.
type QueryHandler struct {
	queryService service.QueryService
	markdown     *MarkdownRenderer
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queryService service.QueryService, markdown *MarkdownRenderer) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		markdown:     markdown,
	}
}

// QueryRequest represents the HTTP request payload for a question.
//
// swagger:model QueryRequest
type QueryRequest struct {
	// The natural-language question
	Question string `json:"question"`

	// Connection string of the target database (sqlite:///path or postgres://...)
	ConnectionString string `json:"connection_string,omitempty"`

	// Number of tables to retrieve (1-20, default from configuration)
	TopK int `json:"top_k,omitempty"`

	// Earlier turns of the conversation, oldest first
	History []HistoryTurn `json:"history,omitempty"`
}

// HistoryTurn is one earlier message of the conversation.
//
// swagger:model HistoryTurn
type HistoryTurn struct {
	// "user" for questions, "assistant" for generated SQL
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryResponse represents the HTTP response payload for a question.
//
// swagger:model QueryResponse
type QueryResponse struct {
	// Classification of the message: VALID_QUERY, CHIT_CHAT, SCHEMA_QUESTION
	// or OUT_OF_SCOPE
	Type string `json:"type"`

	// Rule that produced the classification; negative_feedback_pattern marks a
	// complaint about a previous answer
	Rule string `json:"rule,omitempty"`

	// Markdown reply for messages that do not produce SQL
	Reply string `json:"reply,omitempty"`

	// Reply rendered as HTML
	ReplyHTML string `json:"reply_html,omitempty"`

	// Generated SQL, or an "-- ERROR:" comment
	SQL string `json:"sql,omitempty"`

	// The question as understood by the classifier
	Query string `json:"query,omitempty"`

	// Dialect of the target database
	Dialect string `json:"dialect,omitempty"`

	// Tables placed in the prompt, best first
	RetrievedTables []TableScoreResponse `json:"retrieved_tables,omitempty"`

	// Live values matched to the question, keyed by "table.column"
	GroundedValues map[string][]GroundedValueResponse `json:"grounded_values,omitempty"`

	// Set when retrieval scores suggest the tables may be wrong
	LowConfidence bool `json:"low_confidence"`
}

// TableScoreResponse is a retrieved table with its similarity score.
//
// swagger:model TableScoreResponse
type TableScoreResponse struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// GroundedValueResponse is a database value matched to the question.
//
// swagger:model GroundedValueResponse
type GroundedValueResponse struct {
	Value string `json:"value"`
	// Fuzzy match score, 0-100
	Confidence int `json:"confidence"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /api/v1/query askQuestion
//
// # Ask a question about a database
//
// Classifies the message and, for data questions, retrieves the relevant tables,
// grounds literal values against the live database and generates a read-only SQL query.
// Other messages get a markdown reply.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/QueryRequest"
//
// responses:
//
//	'200':
//	  description: Classification with SQL or a reply
//	  schema:
//	    "$ref": "#/definitions/QueryResponse"
//	'400':
//	  description: Bad request (empty question, invalid top_k, missing or unsupported connection string)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Database unreachable, or LLM or embedding service unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	history := make([]rag.Turn, len(req.History))
	for i, turn := range req.History {
		history[i] = rag.Turn{Role: turn.Role, Content: turn.Content}
	}

	svcResp, err := h.queryService.HandleQuestion(ctx, service.QueryRequest{
		Question: req.Question,
		Identity: req.ConnectionString,
		TopK:     req.TopK,
		History:  history,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process question")
		return
	}

	resp := QueryResponse{
		Type:          string(svcResp.Verdict),
		Rule:          svcResp.Rule,
		Reply:         svcResp.Reply,
		SQL:           svcResp.SQL,
		Query:         svcResp.Query,
		Dialect:       string(svcResp.Dialect),
		LowConfidence: svcResp.LowConfidence,
	}

	if svcResp.Reply != "" {
		html, err := h.markdown.Render(svcResp.Reply)
		if err != nil {
			// the markdown reply is still usable
			logger.WarnContext(ctx, "failed to render reply", "error", err)
		}
		resp.ReplyHTML = html
	}

	if len(svcResp.RetrievedTables) > 0 {
		resp.RetrievedTables = make([]TableScoreResponse, len(svcResp.RetrievedTables))
		for i, t := range svcResp.RetrievedTables {
			resp.RetrievedTables[i] = TableScoreResponse{Name: t.Name, Score: t.Score}
		}
	}

	if len(svcResp.GroundedValues) > 0 {
		resp.GroundedValues = make(map[string][]GroundedValueResponse, len(svcResp.GroundedValues))
		for key, values := range svcResp.GroundedValues {
			out := make([]GroundedValueResponse, len(values))
			for i, v := range values {
				out[i] = GroundedValueResponse{Value: v.Value, Confidence: v.Confidence}
			}
			resp.GroundedValues[key] = out
		}
	}

	writeJSON(w, ctx, resp)
}
