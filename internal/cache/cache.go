// Package cache holds the unread-notification counter cache. Redis backs it
// when REDIS_ADDR is configured; otherwise a no-op implementation makes every
// lookup a miss so callers fall back to COUNT queries.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/config"
)

// Counter caches one integer per user. Every Invalidate bumps a per-user
// generation; Set only stores a value computed under the current generation,
// so a count read before a concurrent Invalidate is never cached.
type Counter interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, userID uint) (int64, bool, error)
	// Stamp returns the current generation for userID. Take it before
	// computing the value passed to Set.
	Stamp(ctx context.Context, userID uint) (int64, error)
	// Set stores n for userID unless the generation moved past stamp.
	Set(ctx context.Context, userID uint, n, stamp int64) error
	// Invalidate drops the cached value for userID and bumps its generation.
	Invalidate(ctx context.Context, userID uint) error
}

// New returns a Redis-backed Counter when cfg.Addr is set and a Noop
// otherwise. The returned close function is always non-nil.
func New(ctx context.Context, cfg config.RedisConfig) (Counter, func() error, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return Noop{}, func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedis(client, cfg.TTL), client.Close, nil
}

// Redis is a Counter stored under "gifiti:unread:<uid>" keys with a TTL. The
// generation lives under "gifiti:unread:<uid>:gen" without expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func unreadKey(userID uint) string {
	return fmt.Sprintf("gifiti:unread:%d", userID)
}

func genKey(userID uint) string {
	return unreadKey(userID) + ":gen"
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGen(ctx context.Context, c stringGetter, userID uint) (int64, error) {
	g, err := c.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return g, err
}

// Get implements Counter.
func (r *Redis) Get(ctx context.Context, userID uint) (int64, bool, error) {
	n, err := r.client.Get(ctx, unreadKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// Stamp implements Counter.
func (r *Redis) Stamp(ctx context.Context, userID uint) (int64, error) {
	return readGen(ctx, r.client, userID)
}

// Set implements Counter. The write runs in a WATCH transaction on the
// generation key; a stale stamp or a concurrent Invalidate skips it.
func (r *Redis) Set(ctx context.Context, userID uint, n, stamp int64) error {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		g, err := readGen(ctx, tx, userID)
		if err != nil {
			return err
		}
		if g != stamp {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, unreadKey(userID), n, r.ttl)
			return nil
		})
		return err
	}, genKey(userID))
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate implements Counter.
func (r *Redis) Invalidate(ctx context.Context, userID uint) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(userID))
		p.Del(ctx, unreadKey(userID))
		return nil
	})
	return err
}

// Noop never stores anything.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, uint) (int64, bool, error) { return 0, false, nil }

// Stamp is always zero.
func (Noop) Stamp(context.Context, uint) (int64, error) { return 0, nil }

// Set discards n.
func (Noop) Set(context.Context, uint, int64, int64) error { return nil }

// Invalidate does nothing.
func (Noop) Invalidate(context.Context, uint) error { return nil }
