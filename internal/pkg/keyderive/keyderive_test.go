package keyderive

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHMACDeriver_EmptyMaster(t *testing.T) {
	d, err := NewHMACDeriver(nil)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrEmptyMasterSecret)

	d, err = NewHMACDeriver([]byte{})
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrEmptyMasterSecret)
}

func TestHMACDeriver_Deterministic(t *testing.T) {
	d, err := NewHMACDeriver([]byte("A7F3C94E91D6B1EEB2AA7792DD4F3211"))
	require.NoError(t, err)

	first := d.Derive("DEVICE-XY-123456")
	second := d.Derive("DEVICE-XY-123456")

	assert.Len(t, first, SecretSize)
	assert.Equal(t, first, second)
}

func TestHMACDeriver_DistinctDevices(t *testing.T) {
	d, err := NewHMACDeriver([]byte("master"))
	require.NoError(t, err)

	seen := make(map[string]string, 1000)
	for i := range 1000 {
		id := fmt.Sprintf("device-%04d", i)
		secret := string(d.Derive(id))

		prev, dup := seen[secret]
		require.False(t, dup, "secret collision between %q and %q", prev, id)
		seen[secret] = id
	}
}

func TestHMACDeriver_DifferentMasters(t *testing.T) {
	d1, err := NewHMACDeriver([]byte("master-one"))
	require.NoError(t, err)
	d2, err := NewHMACDeriver([]byte("master-two"))
	require.NoError(t, err)

	assert.NotEqual(t, d1.Derive("D1"), d2.Derive("D1"))
}
