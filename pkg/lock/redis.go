package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease key only when the caller still owns it,
// so a lease that expired and was re-acquired elsewhere is never released
// by the old holder.
const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`

// RedisLocker implements Locker with SET NX PX leases.
type RedisLocker struct {
	rdb   *redis.Client
	wait  time.Duration
	retry time.Duration
}

// NewRedisLocker builds a locker that polls for up to wait before giving up
// with ErrLockContention.
func NewRedisLocker(rdb *redis.Client, wait time.Duration) *RedisLocker {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &RedisLocker{rdb: rdb, wait: wait, retry: 50 * time.Millisecond}
}

type redisLease struct {
	rdb   *redis.Client
	name  string
	token string
}

func (l *redisLease) Release(ctx context.Context) error {
	return l.rdb.Eval(ctx, releaseScript, []string{l.name}, l.token).Err()
}

// Acquire polls SET NX until the wait budget is exhausted.
func (rl *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(rl.wait)

	for {
		ok, err := rl.rdb.SetNX(ctx, name, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", name, err)
		}
		if ok {
			return &redisLease{rdb: rl.rdb, name: name, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s not acquired within %s", ErrLockContention, name, rl.wait)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rl.retry):
		}
	}
}
