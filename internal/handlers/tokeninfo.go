package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jcat4/token-gate/internal/database"
	"github.com/jcat4/token-gate/internal/middleware"
	"github.com/jcat4/token-gate/internal/models"
	"github.com/jcat4/token-gate/internal/queue"
	"github.com/jcat4/token-gate/internal/request"
	"github.com/jcat4/token-gate/internal/validation"
)

// TokenInfoRequest is the body of a verification request.
type TokenInfoRequest struct {
	IDToken  string `json:"id_token" validate:"required"`
	Audience string `json:"audience" validate:"omitempty,max=512"`
}

// TokenInfoHandler verifies submitted ID tokens and reports their claims
type TokenInfoHandler struct {
	verifier        middleware.TokenVerifier
	clients         database.ClientRepositoryInterface
	events          queue.EventQueue
	defaultAudience string
	logger          *zap.Logger
}

// NewTokenInfoHandler creates a new tokeninfo handler
func NewTokenInfoHandler(verifier middleware.TokenVerifier, clients database.ClientRepositoryInterface, events queue.EventQueue, defaultAudience string, logger *zap.Logger) *TokenInfoHandler {
	return &TokenInfoHandler{
		verifier:        verifier,
		clients:         clients,
		events:          events,
		defaultAudience: defaultAudience,
		logger:          logger,
	}
}

// VerifyToken handles POST /api/v1/tokeninfo
func (h *TokenInfoHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req TokenInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}

	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "id_token is required")
		return
	}

	audience := req.Audience
	if audience == "" {
		audience = h.defaultAudience
	}
	if audience == "" {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "audience is required")
		return
	}

	ctx := r.Context()

	client, err := h.clients.GetByAudience(ctx, audience)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSONError(w, http.StatusBadRequest, "unknown_audience", "No client is registered for this audience")
			return
		}
		h.logger.Error("failed_to_load_client_registration",
			zap.String("audience", audience),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to load client configuration")
		return
	}

	ticket, err := h.verifier.VerifyForClient(ctx, req.IDToken, client)
	if err != nil {
		h.logger.Info("token_verification_failed",
			zap.String("audience", audience),
			zap.Error(err),
		)
		h.publishEvent(ctx, rejectedEvent(audience, err, request.ClientIP(r)))
		respondJSONError(w, http.StatusUnauthorized, "invalid_token", "Token verification failed")
		return
	}

	h.publishEvent(ctx, verifiedEvent(audience, ticket, request.ClientIP(r)))
	respondJSON(w, http.StatusOK, ticket.Attributes())
}

// publishEvent sends an audit event on a best-effort basis; the verification
// result stands even when the broker is unavailable.
func (h *TokenInfoHandler) publishEvent(ctx context.Context, event *models.AuditEvent) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(ctx, event); err != nil {
		h.logger.Warn("failed_to_publish_audit_event",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}

func verifiedEvent(audience string, ticket *models.LoginTicket, clientIP string) *models.AuditEvent {
	event := models.NewAuditEvent(audience, models.AuditOutcomeVerified)
	if userID, ok := ticket.UserID(); ok {
		event.Subject = &userID
	}
	if clientIP != "" {
		event.ClientIP = &clientIP
	}
	return event
}

func rejectedEvent(audience string, cause error, clientIP string) *models.AuditEvent {
	event := models.NewAuditEvent(audience, models.AuditOutcomeRejected)
	reason := sanitizeErrorMessage(cause.Error())
	event.Reason = &reason
	if clientIP != "" {
		event.ClientIP = &clientIP
	}
	return event
}
