package idtoken

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"
)

// GoogleCertsURL is the JWKS endpoint for Google-issued ID tokens.
const GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

const redisCertsKeyPrefix = "tokengate:certs:"

// certsCache holds a parsed key set until it expires
type certsCache struct {
	keys    jwk.Set
	raw     []byte
	expires time.Time
	mu      sync.RWMutex
}

// CertsManager fetches and caches issuer signing keys.
//
// Key sets are cached in memory per URL with a TTL. When a Redis client is
// provided, fetched key sets are also written through to Redis so that other
// instances can serve them without hitting the issuer.
type CertsManager struct {
	cache map[string]*certsCache
	mu    sync.RWMutex
	ttl   time.Duration
	rdb   *redis.Client
}

// NewCertsManager creates a certs manager with the default 1 hour TTL.
// redisClient may be nil, in which case only the in-memory cache is used.
func NewCertsManager(redisClient *redis.Client) *CertsManager {
	return &CertsManager{
		cache: make(map[string]*certsCache),
		ttl:   1 * time.Hour,
		rdb:   redisClient,
	}
}

// Get retrieves the signing key set for the given JWKS URL.
func (m *CertsManager) Get(ctx context.Context, certsURL string) (jwk.Set, error) {
	m.mu.RLock()
	cache, exists := m.cache[certsURL]
	m.mu.RUnlock()

	if exists {
		cache.mu.RLock()
		if time.Now().Before(cache.expires) && cache.keys != nil {
			keys := cache.keys
			cache.mu.RUnlock()
			return keys, nil
		}
		cache.mu.RUnlock()
	}

	raw, err := m.lookup(ctx, certsURL)
	if err != nil {
		return nil, err
	}

	keys, err := jwk.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certs: %w", err)
	}

	m.mu.Lock()
	m.cache[certsURL] = &certsCache{
		keys:    keys,
		raw:     raw,
		expires: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()

	return keys, nil
}

// lookup tries the shared Redis cache first, then the issuer itself. A fresh
// fetch is written back to Redis on a best-effort basis.
func (m *CertsManager) lookup(ctx context.Context, certsURL string) ([]byte, error) {
	if m.rdb != nil {
		cached, err := m.rdb.Get(ctx, redisCertsKeyPrefix+certsURL).Bytes()
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	raw, err := m.fetch(ctx, certsURL)
	if err != nil {
		return nil, err
	}

	if m.rdb != nil {
		// A stale shared cache only costs an extra fetch elsewhere, so a
		// failed write is not an error.
		_ = m.rdb.Set(ctx, redisCertsKeyPrefix+certsURL, raw, m.ttl).Err()
	}

	return raw, nil
}

func (m *CertsManager) fetch(ctx context.Context, certsURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("certs endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read certs response: %w", err)
	}

	return body, nil
}
