// Package ratelimit caps login attempts per key inside a fixed window.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	// Allow records one attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Redis shares counters across server replicas.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

func NewRedis(client *redis.Client, max int, window time.Duration) *Redis {
	return &Redis{client: client, max: max, window: window, prefix: "ratelimit:login:"}
}

// Dial connects to the Redis instance at url and checks it answers.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	full := r.prefix + key
	count, err := r.client.Incr(ctx, full).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, full, r.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(r.max), nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Memory is the single-process fallback used when no Redis is configured.
type Memory struct {
	clock  clockwork.Clock
	max    int
	window time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	count   int
	resetAt time.Time
}

func NewMemory(max int, window time.Duration, clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{clock: clock, max: max, window: window, entries: make(map[string]entry)}
}

func (m *Memory) Allow(ctx context.Context, key string) (bool, error) {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = entry{resetAt: now.Add(m.window)}
	}
	e.count++
	m.entries[key] = e
	if len(m.entries) > 4096 {
		m.sweep(now)
	}
	return e.count <= m.max, nil
}

func (m *Memory) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) sweep(now time.Time) {
	for key, e := range m.entries {
		if !now.Before(e.resetAt) {
			delete(m.entries, key)
		}
	}
}
