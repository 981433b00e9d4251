package idtoken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const testJWKS = `{"keys":[{"kty":"RSA","kid":"k1","alg":"RS256","use":"sig","n":"0vx7agoebGcQSuuPiLJXZptN9nndrQmbXEps2aiAFbWhM78LhWx4cbbfAAtVT86zwu1RK7aPFFxuhDR1L6tSoc_BJECPebWKRXjBZCiFV4n3oknjhMstn64tZ_2W-5JsGY4Hc5n9yBXArwl93lqt7_RN5w6Cf0h4QyQ5v-65YGjQR0_FDW2QvzqY368QQMicAtaSqzs8KJZgnYb9c7d0zgdAZHzu6qMQvRL5hajrn1n91CbOpbISD08qNLyrdkt-bFTWhAI4vMQFh6WeZu0fM4lFd2NcRwr3XPksINHaQ-G_xBniIqbw0Ls1jF44-csFCur-kEgU8awapJzKnqDKgw","e":"AQAB"}]}`

func TestCertsManagerCaching(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(testJWKS)); err != nil {
			t.Errorf("Failed to write JWKS: %v", err)
		}
	}))
	defer server.Close()

	manager := NewCertsManager(nil)

	keys, err := manager.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if keys.Len() != 1 {
		t.Errorf("Expected 1 key, got %d", keys.Len())
	}

	// Second lookup must come from the in-memory cache.
	if _, err := manager.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("Second Get failed: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("Expected 1 upstream fetch, got %d", got)
	}
}

func TestCertsManagerExpiry(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		if _, err := w.Write([]byte(testJWKS)); err != nil {
			t.Errorf("Failed to write JWKS: %v", err)
		}
	}))
	defer server.Close()

	manager := NewCertsManager(nil)
	manager.ttl = -1 * time.Second // every entry is already expired

	for i := 0; i < 2; i++ {
		if _, err := manager.Get(context.Background(), server.URL); err != nil {
			t.Fatalf("Get %d failed: %v", i, err)
		}
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("Expected 2 upstream fetches for expired cache, got %d", got)
	}
}

func TestCertsManagerUpstreamErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "invalid JWKS body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("not json")); err != nil {
					t.Errorf("Failed to write body: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			manager := NewCertsManager(nil)
			if _, err := manager.Get(context.Background(), server.URL); err == nil {
				t.Error("Expected Get to fail")
			}
		})
	}
}
