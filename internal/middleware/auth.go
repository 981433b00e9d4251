package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jcat4/token-gate/internal/database"
	"github.com/jcat4/token-gate/internal/models"
	"github.com/jcat4/token-gate/internal/request"
)

// TokenVerifier verifies a raw ID token against a registered client.
// Satisfied by idtoken.Verifier; an interface here keeps the middleware
// testable without standing up an issuer.
type TokenVerifier interface {
	VerifyForClient(ctx context.Context, rawToken string, client *models.Client) (*models.LoginTicket, error)
}

// Auth creates authentication middleware that validates bearer ID tokens
// and attaches the resulting login ticket to the request context. Requests
// whose ticket has no usable user ID are rejected: an absent subject means
// no usable identity.
func Auth(verifier TokenVerifier, clients database.ClientRepositoryInterface, audience string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			rawToken := parts[1]
			ctx := r.Context()

			client, err := clients.GetByAudience(ctx, audience)
			if err != nil {
				logger.Error("failed_to_load_client_registration",
					zap.String("audience", audience),
					zap.Error(err),
				)
				respondError(w, http.StatusInternalServerError, "Failed to load client configuration")
				return
			}

			ticket, err := verifier.VerifyForClient(ctx, rawToken, client)
			if err != nil {
				logger.Info("token_verification_failed",
					zap.String("audience", audience),
					zap.Error(err),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if _, ok := ticket.UserID(); !ok {
				logger.Info("token_missing_subject",
					zap.String("audience", audience),
				)
				respondError(w, http.StatusUnauthorized, "Token carries no usable identity")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithTicket(ctx, ticket)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		_ = err
	}
}
