package handlers

import (
	"net/http"

	"github.com/jcat4/token-gate/internal/models"
	"github.com/jcat4/token-gate/internal/request"
)

// SessionResponse describes the identity attached to the current request.
type SessionResponse struct {
	UserID        string  `json:"user_id"`
	Email         *string `json:"email,omitempty"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
	Name          *string `json:"name,omitempty"`
	Picture       *string `json:"picture,omitempty"`
	HostedDomain  *string `json:"hosted_domain,omitempty"`
}

// Session handles GET /api/v1/session. It runs behind the auth middleware,
// so a usable ticket is already in the request context.
func Session(w http.ResponseWriter, r *http.Request) {
	ticket := request.TicketFromContext(r)
	if ticket == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "No identity attached to request")
		return
	}

	userID, ok := ticket.UserID()
	if !ok {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "Token carries no usable identity")
		return
	}

	payload := ticket.Payload()
	respondJSON(w, http.StatusOK, sessionFromPayload(userID, payload))
}

func sessionFromPayload(userID string, payload *models.TokenPayload) SessionResponse {
	return SessionResponse{
		UserID:        userID,
		Email:         payload.Email,
		EmailVerified: payload.EmailVerified,
		Name:          payload.Name,
		Picture:       payload.Picture,
		HostedDomain:  payload.HD,
	}
}
