package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/jcat4/token-gate/internal/models"
	"github.com/jcat4/token-gate/internal/queue"
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

type stubQueue struct {
	published []*models.AuditEvent
	err       error
}

func (s *stubQueue) Publish(ctx context.Context, event *models.AuditEvent) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

func (s *stubQueue) Close() error { return nil }

func (s *stubQueue) HealthCheck(ctx context.Context) error { return nil }

func validTicket() *models.LoginTicket {
	return models.NewLoginTicket(`{"alg":"RS256"}`, &models.TokenPayload{
		Iss: "https://accounts.google.com",
		Sub: "12345",
		Aud: "client1",
		Iat: 1000,
		Exp: 2000,
	})
}

func postTokenInfo(t *testing.T, handler *TokenInfoHandler, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/tokeninfo", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.VerifyToken(w, req)
	return w
}

func TestVerifyToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        any
		verifier    *stubVerifier
		clients     *stubClientRepo
		wantStatus  int
		wantOutcome models.AuditOutcome
	}{
		{
			name:        "valid token",
			body:        TokenInfoRequest{IDToken: "good.token.here", Audience: "client1"},
			verifier:    &stubVerifier{ticket: validTicket()},
			clients:     &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus:  http.StatusOK,
			wantOutcome: models.AuditOutcomeVerified,
		},
		{
			name:        "verification failure",
			body:        TokenInfoRequest{IDToken: "bad.token.here", Audience: "client1"},
			verifier:    &stubVerifier{err: fmt.Errorf("signature mismatch")},
			clients:     &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus:  http.StatusUnauthorized,
			wantOutcome: models.AuditOutcomeRejected,
		},
		{
			name:       "missing id_token",
			body:       TokenInfoRequest{Audience: "client1"},
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing audience with no default",
			body:       TokenInfoRequest{IDToken: "good.token.here"},
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{client: &models.Client{Audience: "client1"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown audience",
			body:       TokenInfoRequest{IDToken: "good.token.here", Audience: "nobody"},
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{err: fmt.Errorf("client not found: %w", sql.ErrNoRows)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "registry failure",
			body:       TokenInfoRequest{IDToken: "good.token.here", Audience: "client1"},
			verifier:   &stubVerifier{ticket: validTicket()},
			clients:    &stubClientRepo{err: fmt.Errorf("connection refused")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			events := &stubQueue{}
			handler := NewTokenInfoHandler(tt.verifier, tt.clients, events, "", zap.NewNop())

			w := postTokenInfo(t, handler, tt.body)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantOutcome == "" {
				if len(events.published) != 0 {
					t.Errorf("Expected no audit events, got %d", len(events.published))
				}
				return
			}

			if len(events.published) != 1 {
				t.Fatalf("Expected 1 audit event, got %d", len(events.published))
			}
			if events.published[0].Outcome != tt.wantOutcome {
				t.Errorf("Expected outcome %q, got %q", tt.wantOutcome, events.published[0].Outcome)
			}
		})
	}
}

func TestVerifyTokenResponseShape(t *testing.T) {
	t.Parallel()

	handler := NewTokenInfoHandler(
		&stubVerifier{ticket: validTicket()},
		&stubClientRepo{client: &models.Client{Audience: "client1"}},
		&stubQueue{},
		"client1", // default audience
		zap.NewNop(),
	)

	// Audience omitted; the default applies.
	w := postTokenInfo(t, handler, TokenInfoRequest{IDToken: "good.token.here"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Envelope string               `json:"envelope"`
			Payload  *models.TokenPayload `json:"payload"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !response.Success {
		t.Error("Expected success response")
	}
	if response.Data.Envelope != `{"alg":"RS256"}` {
		t.Errorf("Expected envelope in response, got %q", response.Data.Envelope)
	}
	if response.Data.Payload == nil || response.Data.Payload.Sub != "12345" {
		t.Errorf("Expected payload with sub '12345', got %v", response.Data.Payload)
	}
}

func TestVerifyTokenMalformedBody(t *testing.T) {
	t.Parallel()

	handler := NewTokenInfoHandler(
		&stubVerifier{ticket: validTicket()},
		&stubClientRepo{client: &models.Client{Audience: "client1"}},
		&stubQueue{},
		"client1",
		zap.NewNop(),
	)

	req := httptest.NewRequest("POST", "/api/v1/tokeninfo", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	handler.VerifyToken(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", w.Code)
	}
}

func TestVerifyTokenQueueFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	handler := NewTokenInfoHandler(
		&stubVerifier{ticket: validTicket()},
		&stubClientRepo{client: &models.Client{Audience: "client1"}},
		&stubQueue{err: fmt.Errorf("broker down")},
		"client1",
		zap.NewNop(),
	)

	w := postTokenInfo(t, handler, TokenInfoRequest{IDToken: "good.token.here"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected verification to succeed despite broker failure, got %d", w.Code)
	}
}
