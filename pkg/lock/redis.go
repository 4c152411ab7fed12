package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
)

const keyPrefix = "planlock:"

// releaseScript deletes the key only when it still holds our token, so an
// expired lease re-acquired by another run is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisProvider implements Provider on a shared Redis instance using the
// SET NX PX lease pattern.
type RedisProvider struct {
	client      *redis.Client
	waitTimeout time.Duration
	retryDelay  time.Duration
}

// NewRedisProvider builds a provider. waitTimeout bounds how long Acquire
// polls for a busy key before giving up with ErrLockTimeout.
func NewRedisProvider(client *redis.Client, waitTimeout time.Duration) *RedisProvider {
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	return &RedisProvider{
		client:      client,
		waitTimeout: waitTimeout,
		retryDelay:  100 * time.Millisecond,
	}
}

// Acquire takes the lease for key or fails with ErrLockTimeout.
func (p *RedisProvider) Acquire(ctx context.Context, key string, ttl time.Duration) (Token, error) {
	if key == "" {
		return Token{}, appErrors.Clone(appErrors.ErrValidation, "lock key is required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	token := Token{Key: keyPrefix + key, Value: uuid.NewString()}
	deadline := time.Now().Add(p.waitTimeout)

	for {
		ok, err := p.client.SetNX(ctx, token.Key, token.Value, ttl).Result()
		if err != nil {
			return Token{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lock backend unavailable")
		}
		if ok {
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
func (p *RedisProvider) Release(ctx context.Context, token Token) error {
	if token.Key == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, p.client, []string{token.Key}, token.Value).Err(); err != nil && err != redis.Nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lock release failed")
	}
	return nil
}
