package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/jcat4/token-gate/internal/models"
	"github.com/jcat4/token-gate/internal/request"
)

type stubVerifier struct {
	ticket *models.LoginTicket
	err    error
}

func (s *stubVerifier) VerifyForClient(ctx context.Context, rawToken string, client *models.Client) (*models.LoginTicket, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ticket, nil
}

type stubClientRepo struct {
	client *models.Client
	err    error
}

func (s *stubClientRepo) GetByAudience(ctx context.Context, audience string) (*models.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

func (s *stubClientRepo) GetByName(ctx context.Context, name string) (*models.Client, error) {
	return s.client, s.err
}

func (s *stubClientRepo) GetAll(ctx context.Context) ([]*models.Client, error) {
	return []*models.Client{s.client}, s.err
}

func validTicket() *models.LoginTicket {
	return models.NewLoginTicket("env", &models.TokenPayload{
		Iss: "https://accounts.google.com",
		Sub: "12345",
		Aud: "client1",
		Iat: 1000,
		Exp: 2000,
	})
}

func TestAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
		verifier   *stubVerifier
		clients    *stubClientRepo
		wantStatus int
		wantTicket bool
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer good.token.here",
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus: http.StatusOK,
			wantTicket: true,
		},
		{
			name:       "missing header",
			authHeader: "",
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: "Token abc",
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "verification failure",
			authHeader: "Bearer bad.token.here",
			verifier:   &stubVerifier{err: fmt.Errorf("signature mismatch")},
			clients:    &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "ticket without usable subject",
			authHeader: "Bearer good.token.here",
			verifier:   &stubVerifier{ticket: models.NewLoginTicket("env", &models.TokenPayload{Sub: ""})},
			clients:    &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "client registry failure",
			authHeader: "Bearer good.token.here",
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{err: fmt.Errorf("connection refused")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotTicket *models.LoginTicket
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotTicket = request.TicketFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			mw := Auth(tt.verifier, tt.clients, "client1", zap.NewNop())

			req := httptest.NewRequest("GET", "/api/v1/session", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			mw(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantTicket && gotTicket == nil {
				t.Error("Expected ticket in request context")
			}
			if !tt.wantTicket && gotTicket != nil {
				t.Error("Expected no ticket in request context")
			}
		})
	}
}
