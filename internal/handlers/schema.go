package handlers

import (
	"encoding/json"
	"net/http"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/service"
)

// SchemaHandler connects to a database and describes its schema.
type SchemaHandler struct {
	queryService service.QueryService
	markdown     *MarkdownRenderer
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(queryService service.QueryService, markdown *MarkdownRenderer) *SchemaHandler {
	return &SchemaHandler{
		queryService: queryService,
		markdown:     markdown,
	}
}

// SchemaRequest represents the HTTP request payload for a schema overview.
//
// swagger:model SchemaRequest
type SchemaRequest struct {
	ConnectionString string `json:"connection_string"`
}

// SchemaResponse describes a connected database.
//
// swagger:model SchemaResponse
type SchemaResponse struct {
	Dialect string   `json:"dialect"`
	Tables  []string `json:"tables"`
	// CREATE TABLE statements for every table
	DDL string `json:"ddl"`
	// Markdown overview of the tables
	Summary     string `json:"summary"`
	SummaryHTML string `json:"summary_html,omitempty"`
}

// ServeHTTP handles HTTP requests for schema overviews.
//
// swagger:route POST /api/v1/schema describeSchema
//
// # Connect to a database
//
// Introspects the database, caches its schema index and returns the tables and their DDL.
// Later questions against the same connection string reuse the cached index.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Schema overview
//	  schema:
//	    "$ref": "#/definitions/SchemaResponse"
//	'400':
//	  description: Missing or unsupported connection string
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Database unreachable or embedding service unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	overview, err := h.queryService.DescribeSchema(ctx, req.ConnectionString)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load schema")
		return
	}

	html, err := h.markdown.Render(overview.Summary)
	if err != nil {
		logger.WarnContext(ctx, "failed to render schema summary", "error", err)
	}

	tables := overview.Tables
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, ctx, SchemaResponse{
		Dialect:     string(overview.Dialect),
		Tables:      tables,
		DDL:         overview.DDL,
		Summary:     overview.Summary,
		SummaryHTML: html,
	})
}
