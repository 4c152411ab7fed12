package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
)

type lease struct {
	value     string
	expiresAt time.Time
}

// MemoryProvider is an in-process Provider used by tests and single-node
// deployments. Semantics match RedisProvider: leases expire after their TTL
// and release is token-checked.
type MemoryProvider struct {
	mu          sync.Mutex
	leases      map[string]lease
	waitTimeout time.Duration
	retryDelay  time.Duration
}

// NewMemoryProvider builds an in-memory keyed lock.
func NewMemoryProvider(waitTimeout time.Duration) *MemoryProvider {
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	return &MemoryProvider{
		leases:      make(map[string]lease),
		waitTimeout: waitTimeout,
		retryDelay:  10 * time.Millisecond,
	}
}

// Acquire takes the lease for key or fails with ErrLockTimeout.
func (p *MemoryProvider) Acquire(ctx context.Context, key string, ttl time.Duration) (Token, error) {
	if key == "" {
		return Token{}, appErrors.Clone(appErrors.ErrValidation, "lock key is required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	token := Token{Key: key, Value: uuid.NewString()}
	deadline := time.Now().Add(p.waitTimeout)

	for {
		if p.tryAcquire(token, ttl) {
			return token, nil
		}
		if time.Now().After(deadline) {
			return Token{}, appErrors.Clone(appErrors.ErrLockTimeout, fmt.Sprintf("plan group %s is locked by another generation", key))
		}

		timer := time.NewTimer(p.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Token{}, appErrors.Wrap(ctx.Err(), appErrors.ErrLockTimeout.Code, appErrors.ErrLockTimeout.Status, "lock wait cancelled")
		case <-timer.C:
		}
	}
}

// Release gives the lease back; releasing a lost lease is a no-op.
func (p *MemoryProvider) Release(_ context.Context, token Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.leases[token.Key]; ok && current.value == token.Value {
		delete(p.leases, token.Key)
	}
	return nil
}

func (p *MemoryProvider) tryAcquire(token Token, ttl time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if current, ok := p.leases[token.Key]; ok && current.expiresAt.After(now) {
		return false
	}
	p.leases[token.Key] = lease{value: token.Value, expiresAt: now.Add(ttl)}
	return true
}
