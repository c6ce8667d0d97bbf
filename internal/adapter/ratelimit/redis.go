// Package ratelimit adapts a Redis-backed sliding-window limiter. The
// limiting policy lives with the shared Redis deployment; this adapter only
// asks the question and reports the answer with enough detail for the
// X-RateLimit response headers.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Result is one limiter decision.
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Limiter is the decision port the HTTP surface consumes.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// SlidingWindow counts requests in a rolling window using a sorted set per
// key. Old entries age out; the set cardinality is the current count.
type SlidingWindow struct {
	client *redis.Client
	logger *zap.Logger

	window time.Duration
	limit  int64
	now    func() time.Time
}

// Config holds the limiter knobs.
type Config struct {
	Addr   string
	DB     int
	Window time.Duration
	Limit  int64
	Logger *zap.Logger
}

// New connects to Redis and returns a sliding-window limiter.
func New(cfg Config) *SlidingWindow {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	return &SlidingWindow{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB}),
		logger: logger,
		window: window,
		limit:  limit,
		now:    time.Now,
	}
}

// SetClock replaces the clock, for tests.
func (l *SlidingWindow) SetClock(fn func() time.Time) {
	l.now = fn
}

// Allow records one request under the key and reports whether it fits in the
// window. A denied request is not recorded, so hammering a limited key does
// not push the reset time further out.
func (l *SlidingWindow) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	windowStart := now.Add(-l.window)
	redisKey := "ratelimit:" + key

	if err := l.client.ZRemRangeByScore(ctx, redisKey,
		"0", fmt.Sprintf("%d", windowStart.UnixNano())).Err(); err != nil {
		return Result{}, fmt.Errorf("trim window: %w", err)
	}

	count, err := l.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("count window: %w", err)
	}

	if count >= l.limit {
		resetAt, err := l.oldestEntryExpiry(ctx, redisKey, now)
		if err != nil {
			return Result{}, err
		}
		l.logger.Debug("rate limited",
			zap.String("key", key),
			zap.Int64("count", count),
		)
		return Result{Allowed: false, Limit: l.limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	member := uuid.NewString()
	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("record request: %w", err)
	}

	return Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - count - 1,
		ResetAt:   now.Add(l.window),
	}, nil
}

// oldestEntryExpiry computes when the window frees a slot: the moment the
// oldest counted request ages out.
func (l *SlidingWindow) oldestEntryExpiry(ctx context.Context, redisKey string, now time.Time) (time.Time, error) {
	entries, err := l.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("oldest entry: %w", err)
	}
	if len(entries) == 0 {
		return now.Add(l.window), nil
	}
	oldest := time.Unix(0, int64(entries[0].Score))
	return oldest.Add(l.window), nil
}

// Close releases the Redis connection.
func (l *SlidingWindow) Close() error {
	return l.client.Close()
}
