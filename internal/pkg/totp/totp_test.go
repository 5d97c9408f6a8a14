package totp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 6238 Appendix B test secret for the SHA-1 mode.
var rfcSecret = []byte("12345678901234567890")

func TestCodeAt_RFC6238Vectors(t *testing.T) {
	engine := New(8, 30, 1)

	// (unix seconds, expected 8-digit code) pairs from the RFC table.
	vectors := []struct {
		at   int64
		code int
	}{
		{59, 94287082},
		{1111111109, 7081804},
		{1111111111, 14050471},
		{1234567890, 89005924},
		{2000000000, 69279037},
		{20000000000, 65353130},
	}

	for _, v := range vectors {
		code, err := engine.CodeAt(rfcSecret, engine.StepAt(time.Unix(v.at, 0)))
		require.NoError(t, err)
		assert.Equal(t, v.code, code, "at unix %d", v.at)
	}
}

func TestCodeAt_DeterministicAndInRange(t *testing.T) {
	engine := New(6, 30, 1)

	first, err := engine.CodeAt(rfcSecret, 12345)
	require.NoError(t, err)
	second, err := engine.CodeAt(rfcSecret, 12345)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 1000000)
}

func TestNew_FallbackDefaults(t *testing.T) {
	engine := New(7, 0, 0)

	assert.Equal(t, 6, engine.Digits())
	assert.Equal(t, uint64(2), engine.StepAt(time.Unix(60, 0))) // 30s period
}

func TestVerify_RoundTrip(t *testing.T) {
	for _, window := range []uint{0, 1, 2} {
		engine := New(6, 30, window)
		now := time.Unix(1700000000, 0)

		code, err := engine.CodeAt(rfcSecret, engine.StepAt(now))
		require.NoError(t, err)

		assert.True(t, engine.Verify(rfcSecret, code, now), "window=%d", window)
	}
}

func TestVerify_WindowBoundary(t *testing.T) {
	engine := New(6, 30, 1)

	const step = uint64(56666666) // arbitrary fixed step
	code, err := engine.CodeAt(rfcSecret, step)
	require.NoError(t, err)

	at := func(s uint64) time.Time {
		return time.Unix(int64(s)*30+5, 0)
	}

	assert.True(t, engine.Verify(rfcSecret, code, at(step-1)))
	assert.True(t, engine.Verify(rfcSecret, code, at(step)))
	assert.True(t, engine.Verify(rfcSecret, code, at(step+1)))

	assert.False(t, engine.Verify(rfcSecret, code, at(step-2)))
	assert.False(t, engine.Verify(rfcSecret, code, at(step+2)))
}

func TestVerify_OutsideDefaultWindow(t *testing.T) {
	engine := New(6, 30, 1)

	base := int64(56000000) * 30
	code, err := engine.CodeAt(rfcSecret, engine.StepAt(time.Unix(base, 0)))
	require.NoError(t, err)

	// 5 seconds later is still the same step.
	assert.True(t, engine.Verify(rfcSecret, code, time.Unix(base+5, 0)))

	// 95 seconds later is three steps ahead, outside the +/-1 window.
	assert.False(t, engine.Verify(rfcSecret, code, time.Unix(base+95, 0)))
}

func TestVerify_NegativeCode(t *testing.T) {
	engine := New(6, 30, 1)
	assert.False(t, engine.Verify(rfcSecret, -1, time.Unix(59, 0)))
}
