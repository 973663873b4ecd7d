// Package revocation tracks revoked access tokens by JTI.
package revocation

import (
	"context"
	"sync"
	"time"
)

// TokenRevocationList manages revoked access tokens by JTI. Entries carry a
// TTL matching the token's remaining lifetime; once the token would have
// expired anyway the entry is irrelevant.
type TokenRevocationList interface {
	// RevokeToken adds a token JTI to the revocation list with TTL
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked checks if a token JTI is in the revocation list
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// InMemoryTRL is an in-memory implementation for tests and single-instance
// deployments. Use RedisTRL for distributed revocation.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> expiry timestamp
}

// NewInMemoryTRL creates a new in-memory token revocation list.
func NewInMemoryTRL() *InMemoryTRL {
	trl := &InMemoryTRL{
		revoked: make(map[string]time.Time),
	}
	// Start cleanup goroutine to remove expired entries
	go trl.cleanup()
	return trl
}

// RevokeToken adds a token to the revocation list with TTL.
func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.revoked[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks if a token is in the revocation list.
func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	expiry, exists := t.revoked[jti]
	if !exists {
		return false, nil
	}

	// An expired revocation entry means the token itself has expired
	if time.Now().After(expiry) {
		return false, nil
	}

	return true, nil
}

// cleanup periodically removes expired entries from the revocation list.
func (t *InMemoryTRL) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		now := time.Now()
		for jti, expiry := range t.revoked {
			if now.After(expiry) {
				delete(t.revoked, jti)
			}
		}
		t.mu.Unlock()
	}
}
