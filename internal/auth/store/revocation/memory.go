// Package revocation tracks tokens invalidated before their natural expiry.
// Entries only need to live as long as the token would have.
package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a process-local token revocation list for tests and
// single-node deployments. Expired entries are dropped lazily on read.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> expiry
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{revoked: make(map[string]time.Time)}
}

// RevokeToken adds a token id to the list until its TTL elapses.
func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether the token id is currently revoked.
func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.RLock()
	expiry, ok := t.revoked[jti]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		t.mu.Lock()
		delete(t.revoked, jti)
		t.mu.Unlock()
		return false, nil
	}
	return true, nil
}
