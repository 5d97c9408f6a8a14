package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestDeviceDetail(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	out, err := f.uc.DeviceDetail(context.Background(), DeviceDetailInput{DeviceID: "sensor-001"})
	require.NoError(t, err)

	assert.Equal(t, "sensor-001", out.Device.DeviceID)
	assert.Equal(t, "acme", out.Device.OwnerID)
	assert.True(t, out.Device.Active)
}

func TestDeviceDetail_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.DeviceDetail(context.Background(), DeviceDetailInput{DeviceID: "ghost"})
	requireErrorCode(t, err, goerror.CodeNotFound)
}
