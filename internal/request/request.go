package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/jcat4/token-gate/internal/models"
)

type contextKey string

const ticketContextKey contextKey = "ticket"

// TicketContextKey returns the context key used for the login ticket. Exposed for tests that inject non-ticket values.
func TicketContextKey() contextKey { return ticketContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithTicket returns a context with the login ticket attached.
func WithTicket(ctx context.Context, ticket *models.LoginTicket) context.Context {
	return context.WithValue(ctx, ticketContextKey, ticket)
}

// TicketFromContext returns the login ticket from the request context, or nil if missing or wrong type.
func TicketFromContext(r *http.Request) *models.LoginTicket {
	t, _ := r.Context().Value(ticketContextKey).(*models.LoginTicket)
	return t
}
