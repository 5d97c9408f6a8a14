// Package ratelimit provides rolling-window attempt counting per device.
//
// The default deployment counts attempts straight from the audit trail; this
// package holds the alternative Redis-backed counter for deployments where
// the audit table is too hot to query on every verification.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/uid"
)

// Limiter counts recent verification attempts within a rolling window.
type Limiter interface {
	// AttemptsInWindow returns how many attempts were recorded for the key in
	// [now - window, now].
	AttemptsInWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	// RecordAttempt records one attempt for the key at the given time.
	RecordAttempt(ctx context.Context, key string, at time.Time) error
}

// Redis implements Limiter with a sorted set per key, scored by timestamp.
type Redis struct {
	client *redis.Client
	uuid   uid.StringID
	clock  clock.Clocker
	prefix string
}

// NewRedis creates a Redis-backed Limiter.
func NewRedis(client *redis.Client, uuid uid.StringID, clk clock.Clocker) *Redis {
	return &Redis{
		client: client,
		uuid:   uuid,
		clock:  clk,
		prefix: "ratelimit:",
	}
}

// AttemptsInWindow prunes entries older than the window, then counts the rest.
func (r *Redis) AttemptsInWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	cutoff := r.clock.Now().Add(-window).UnixNano()

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, r.prefix+key, "-inf", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, r.prefix+key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return card.Val(), nil
}

// RecordAttempt adds one attempt and refreshes the key expiry.
//
// The expiry only bounds storage for idle devices; correctness comes from the
// score-based pruning in AttemptsInWindow.
func (r *Redis) RecordAttempt(ctx context.Context, key string, at time.Time) error {
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, r.prefix+key, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: r.uuid.Generate(),
	})
	pipe.Expire(ctx, r.prefix+key, 24*time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}
