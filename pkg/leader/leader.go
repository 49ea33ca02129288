// Package leader provides the leader-election capability the scheduler
// queries before running its periodic scan, so only one process instance
// drives recomputation.
package leader

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Elector reports whether this process currently holds leadership.
type Elector interface {
	IsLeader() bool
}

// Static is a fixed answer, for tests and single-node deployments.
type Static bool

// IsLeader returns the fixed answer.
func (s Static) IsLeader() bool { return bool(s) }

// RedisElector holds a renewing Redis lease. Whichever process first sets
// the key owns leadership until it stops renewing and the TTL lapses.
type RedisElector struct {
	rdb    *redis.Client
	key    string
	id     string
	ttl    time.Duration
	leader atomic.Bool
}

// NewRedisElector builds an elector identified by id on the given key.
func NewRedisElector(rdb *redis.Client, key, id string, ttl time.Duration) *RedisElector {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisElector{rdb: rdb, key: key, id: id, ttl: ttl}
}

// IsLeader reports the last observed leadership state.
func (e *RedisElector) IsLeader() bool { return e.leader.Load() }

// Run campaigns and renews until the context is cancelled. Renewal happens
// at a third of the TTL so a single missed beat does not drop the lease.
func (e *RedisElector) Run(ctx context.Context) {
	ticker := time.NewTicker(e.ttl / 3)
	defer ticker.Stop()
	e.campaign(ctx)
	for {
		select {
		case <-ctx.Done():
			e.resign()
			return
		case <-ticker.C:
			e.campaign(ctx)
		}
	}
}

func (e *RedisElector) campaign(ctx context.Context) {
	ok, err := e.rdb.SetNX(ctx, e.key, e.id, e.ttl).Result()
	if err != nil {
		log.Printf("[leader] campaign: %v", err)
		e.leader.Store(false)
		return
	}
	if ok {
		e.leader.Store(true)
		return
	}
	holder, err := e.rdb.Get(ctx, e.key).Result()
	if err != nil {
		e.leader.Store(false)
		return
	}
	if holder == e.id {
		// Still ours; push the lease out.
		e.rdb.PExpire(ctx, e.key, e.ttl)
		e.leader.Store(true)
		return
	}
	e.leader.Store(false)
}

func (e *RedisElector) resign() {
	if !e.leader.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if holder, err := e.rdb.Get(ctx, e.key).Result(); err == nil && holder == e.id {
		e.rdb.Del(ctx, e.key)
	}
	e.leader.Store(false)
}
