package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jcat4/token-gate/internal/database"
)

// AuditHandler exposes recent verification audit events
type AuditHandler struct {
	repo   *database.AuditEventRepository
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(repo *database.AuditEventRepository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, logger: logger}
}

// RecentEvents handles GET /api/v1/audit?audience=...&limit=...
func (h *AuditHandler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	audience := r.URL.Query().Get("audience")
	if audience == "" {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "audience query parameter is required")
		return
	}

	limit := 50
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 || parsed > 500 {
			respondJSONError(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	events, err := h.repo.GetRecentByAudience(r.Context(), audience, limit)
	if err != nil {
		h.logger.Error("failed_to_query_audit_events",
			zap.String("audience", audience),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to query audit events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}
