package handlers

import (
	"net/http"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/service"
)

// CacheHandler reports and clears the schema index cache.
type CacheHandler struct {
	queryService service.QueryService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(queryService service.QueryService) *CacheHandler {
	return &CacheHandler{queryService: queryService}
}

// CacheStatsResponse describes the schema cache.
//
// swagger:model CacheStatsResponse
type CacheStatsResponse struct {
	EntryCount int `json:"entry_count"`
	MaxEntries int `json:"max_entries"`
	// Cached connection strings with passwords masked, oldest first
	Identities []string `json:"identities"`
}

// ServeHTTP handles HTTP requests for the schema cache.
//
// swagger:route GET /api/v1/cache cacheStats
//
// # Schema cache statistics
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Cache statistics
//	  schema:
//	    "$ref": "#/definitions/CacheStatsResponse"
//
// swagger:route DELETE /api/v1/cache clearCache
//
// # Clear the schema cache
//
// Clears the entry of the connection string given in the identity query parameter,
// or every entry when it is omitted. The next question rebuilds the index.
//
// ---
// parameters:
//   - in: query
//     name: identity
//     type: string
//     required: false
//
// responses:
//
//	'204':
//	  description: Cache cleared
func (h *CacheHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		stats := h.queryService.CacheStats(ctx)
		identities := stats.Identities
		if identities == nil {
			identities = []string{}
		}
		writeJSON(w, ctx, CacheStatsResponse{
			EntryCount: stats.EntryCount,
			MaxEntries: stats.MaxEntries,
			Identities: identities,
		})
	case http.MethodDelete:
		h.queryService.ClearCache(ctx, r.URL.Query().Get("identity"))
		w.WriteHeader(http.StatusNoContent)
	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
