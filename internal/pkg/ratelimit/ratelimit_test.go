package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/uid"
)

func newTestLimiter(t *testing.T, now func() time.Time) *Redis {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, uid.NewUUID(), clock.Func(now))
}

func TestRedis_AttemptsInWindow(t *testing.T) {
	base := time.Unix(1_700_000_000, 0).UTC()
	limiter := newTestLimiter(t, func() time.Time { return base })
	ctx := context.Background()

	require.NoError(t, limiter.RecordAttempt(ctx, "sensor-001", base.Add(-10*time.Minute)))
	require.NoError(t, limiter.RecordAttempt(ctx, "sensor-001", base.Add(-4*time.Minute)))
	require.NoError(t, limiter.RecordAttempt(ctx, "sensor-001", base.Add(-1*time.Minute)))

	count, err := limiter.AttemptsInWindow(ctx, "sensor-001", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The 10-minute-old entry was pruned above; a tighter window drops the rest.
	count, err = limiter.AttemptsInWindow(ctx, "sensor-001", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRedis_WindowRollsWithClock(t *testing.T) {
	base := time.Unix(1_700_000_000, 0).UTC()
	now := base
	limiter := newTestLimiter(t, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, limiter.RecordAttempt(ctx, "sensor-001", base))

	count, err := limiter.AttemptsInWindow(ctx, "sensor-001", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	now = base.Add(6 * time.Minute)

	count, err = limiter.AttemptsInWindow(ctx, "sensor-001", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRedis_KeysAreIndependent(t *testing.T) {
	base := time.Unix(1_700_000_000, 0).UTC()
	limiter := newTestLimiter(t, func() time.Time { return base })
	ctx := context.Background()

	for range 3 {
		require.NoError(t, limiter.RecordAttempt(ctx, "sensor-001", base))
	}
	require.NoError(t, limiter.RecordAttempt(ctx, "sensor-002", base))

	count, err := limiter.AttemptsInWindow(ctx, "sensor-001", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = limiter.AttemptsInWindow(ctx, "sensor-002", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
