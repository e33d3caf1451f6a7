package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/service"
)

// ModelChecker checks the generation model server.
type ModelChecker interface {
	HasModel(ctx context.Context) (bool, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	queryService       service.QueryService
	llmClient          ModelChecker
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(queryService service.QueryService, llmClient ModelChecker) *HealthHandler {
	return &HealthHandler{
		queryService:       queryService,
		llmClient:          llmClient,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "degraded"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Number of databases in the schema cache
	CacheEntries int `json:"cache_entries"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Check the health status of the system and its dependencies.
// Returns 200 OK if healthy, 503 Service Unavailable if degraded.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Returns the health status of the system including the schema cache and the LLM service.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"schema_cache": "ok"}
	var issues []string

	switch h.checkLLM(checkCtx, logger) {
	case llmOK:
		checks["llm"] = "ok"
	case llmModelMissing:
		checks["llm"] = "model_missing"
		issues = append(issues, "llm_model_missing")
	default:
		checks["llm"] = "error"
		issues = append(issues, "llm_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:       status,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		CacheEntries: h.queryService.CacheStats(ctx).EntryCount,
		Checks:       checks,
		Issues:       issues,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

type llmStatus int

const (
	llmOK llmStatus = iota
	llmModelMissing
	llmUnreachable
)

// checkLLM checks that the model server answers and serves the configured model.
func (h *HealthHandler) checkLLM(ctx context.Context, logger *slog.Logger) llmStatus {
	ok, err := h.llmClient.HasModel(ctx)
	if err != nil {
		logger.WarnContext(ctx, "llm health check failed", "error", err)
		return llmUnreachable
	}
	if !ok {
		logger.WarnContext(ctx, "llm model not served")
		return llmModelMissing
	}
	return llmOK
}
