package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jcat4/token-gate/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "X-Forwarded-For single value",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.7",
		},
		{
			name:       "X-Forwarded-For chain takes first hop",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.7",
		},
		{
			name:       "X-Real-IP fallback",
			headers:    map[string]string{"X-Real-IP": " 198.51.100.9 "},
			remoteAddr: "10.0.0.1:1234",
			want:       "198.51.100.9",
		},
		{
			name:       "RemoteAddr fallback",
			headers:    nil,
			remoteAddr: "10.0.0.1:1234",
			want:       "10.0.0.1:1234",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTicketContext(t *testing.T) {
	t.Parallel()

	ticket := models.NewLoginTicket("env", &models.TokenPayload{
		Iss: "https://accounts.google.com",
		Sub: "12345",
		Aud: "client1",
	})

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithTicket(req.Context(), ticket))

	got := TicketFromContext(req)
	if got != ticket {
		t.Fatalf("TicketFromContext() = %v, want %v", got, ticket)
	}
	if userID, ok := got.UserID(); !ok || userID != "12345" {
		t.Errorf("Expected user ID '12345', got (%q, %v)", userID, ok)
	}
}

func TestTicketFromContextMissing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	if got := TicketFromContext(req); got != nil {
		t.Errorf("Expected nil ticket for empty context, got %v", got)
	}
}

func TestTicketFromContextWrongType(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	ctx := context.WithValue(req.Context(), TicketContextKey(), "not a ticket")
	req = req.WithContext(ctx)

	if got := TicketFromContext(req); got != nil {
		t.Errorf("Expected nil ticket, got %v", got)
	}
}
