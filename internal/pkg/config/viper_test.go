package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViperFromBytes_OTPWindowDefault(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(`
otp:
  digits: 6
  interval_seconds: 30
`))
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, uint(1), cfg.GetUint("otp.window"))
}

func TestNewViperFromBytes_OTPWindowExplicitZero(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(`
otp:
  window: 0
`))
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, uint(0), cfg.GetUint("otp.window"))
}

func TestNewViperFromBytes_OTPWindowExplicitValue(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(`
otp:
  window: 2
`))
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, uint(2), cfg.GetUint("otp.window"))
}

func TestNewViperFromBytes_RequiresConfigType(t *testing.T) {
	_, err := NewViperFromBytes("  ", []byte("a: 1"))
	require.Error(t, err)
}
