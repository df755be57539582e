package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Result describes one limiter decision.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is the time left in the current window.
	RetryAfter time.Duration
}

// FixedWindowLimiter limits requests per key in a fixed time window.
// It uses Redis-backed distributed mode only.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration
	clock  clockwork.Clock

	redisClient *redis.Client
	redisPrefix string
}

// Option customizes a limiter.
type Option func(*FixedWindowLimiter)

// WithClock sets the clock used to pick the window slot.
func WithClock(clock clockwork.Clock) Option {
	return func(l *FixedWindowLimiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewRedisFixedWindowLimiter creates a Redis-backed distributed limiter.
func NewRedisFixedWindowLimiter(addr, password, prefix string, limit int, window time.Duration, opts ...Option) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "assistant:ratelimit"
	}
	l := &FixedWindowLimiter{
		limit:  limit,
		window: window,
		clock:  clockwork.NewRealClock(),
		redisClient: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		redisPrefix: prefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow counts one request for key. On Redis failures it fails closed and
// returns the error alongside a denied result.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if l == nil {
		return Result{}, errors.New("rate limiter not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	if windowMs <= 0 {
		return Result{Allowed: true, Remaining: l.limit}, nil
	}
	nowMs := l.clock.Now().UTC().UnixMilli()
	windowSlot := nowMs / windowMs
	retryAfter := time.Duration((windowSlot+1)*windowMs-nowMs) * time.Millisecond
	redisKey := fmt.Sprintf("%s:%s:%d", l.redisPrefix, key, windowSlot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.redisClient, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return Result{RetryAfter: retryAfter}, fmt.Errorf("rate limit check: %w", err)
	}
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    count <= int64(l.limit),
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Close releases the Redis client.
func (l *FixedWindowLimiter) Close() error {
	if l == nil || l.redisClient == nil {
		return nil
	}
	return l.redisClient.Close()
}
