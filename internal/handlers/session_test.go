package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcat4/token-gate/internal/models"
	"github.com/jcat4/token-gate/internal/request"
)

func TestSession(t *testing.T) {
	t.Parallel()

	email := "user@example.com"
	verified := true
	payload := &models.TokenPayload{
		Iss:           "https://accounts.google.com",
		Sub:           "12345",
		Aud:           "client1",
		Email:         &email,
		EmailVerified: &verified,
	}
	ticket := models.NewLoginTicket(`{"alg":"RS256"}`, payload)

	req := httptest.NewRequest("GET", "/api/v1/session", nil)
	req = req.WithContext(request.WithTicket(req.Context(), ticket))
	w := httptest.NewRecorder()

	Session(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Success bool            `json:"success"`
		Data    SessionResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Data.UserID != "12345" {
		t.Errorf("Expected user_id '12345', got %q", response.Data.UserID)
	}
	if response.Data.Email == nil || *response.Data.Email != email {
		t.Errorf("Expected email %q, got %v", email, response.Data.Email)
	}
	if response.Data.EmailVerified == nil || !*response.Data.EmailVerified {
		t.Errorf("Expected email_verified true, got %v", response.Data.EmailVerified)
	}
}

func TestSessionWithoutTicket(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/api/v1/session", nil)
	w := httptest.NewRecorder()

	Session(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a ticket, got %d", w.Code)
	}
}
