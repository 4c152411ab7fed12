package lock

import (
	"context"
	"time"
)

// Token identifies a held lease so that only the holder can release it.
type Token struct {
	Key   string
	Value string
}

// Provider serialises plan-group generations: at most one holder per key.
// Acquire blocks up to the provider's wait timeout and fails with
// errors.ErrLockTimeout when the key stays held.
type Provider interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Token, error)
	Release(ctx context.Context, token Token) error
}
