package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLeaseHeld = errors.New("run lease held by another instance")
)

// Leaser limits reminder sweeps to at most one per time slice, so
// overlapping worker instances cannot double-dispatch the same windows.
type Leaser interface {
	WithRunLease(ctx context.Context, slice string, fn func(ctx context.Context) error) error
}

type redisRunLeaser struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRunLeaser creates a leaser backed by a per slice Redis key
func NewRedisRunLeaser(client *redis.Client, ttl time.Duration) Leaser {
	return &redisRunLeaser{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisRunLeaser) WithRunLease(ctx context.Context, slice string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lease:reminder-run:%s", slice)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lease: %w", err)
	}
	if !ok {
		return ErrLeaseHeld
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	if err := fn(ctxWithTimeout); err != nil {
		// A failed sweep hands the slice back so a retry can claim it.
		_ = l.release(ctx, key, token)
		return err
	}

	// A successful sweep keeps the lease until the TTL expires; releasing
	// it here would let a second trigger in the same slice dispatch again.
	return nil
}

var releaseScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisRunLeaser) release(ctx context.Context, key, token string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release run lease: %w", err)
	}
	return nil
}

// RunSlice is the lease key fragment for the minute containing t.
func RunSlice(t time.Time) string {
	return t.Format("2006-01-02T15:04")
}
