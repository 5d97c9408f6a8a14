package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestDeactivate(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	err := f.uc.Deactivate(context.Background(), DeactivateInput{
		DeviceID: "sensor-001",
		Source:   "10.0.0.3",
	})
	require.NoError(t, err)

	dev, err := f.repo.GetDevice(context.Background(), "sensor-001")
	require.NoError(t, err)
	assert.False(t, dev.Active)
	require.NotNil(t, dev.DeactivatedAt)
	assert.Equal(t, testNow, *dev.DeactivatedAt)

	audit, ok := f.repo.lastAudit("sensor-001")
	require.True(t, ok)
	assert.Equal(t, entity.AuditActionDeactivated, audit.Action)
	assert.True(t, audit.Success)

	require.NoError(t, f.goro.Wait())
	require.Len(t, f.msg.deactivated, 1)
	assert.Equal(t, "acme", f.msg.deactivated[0].OwnerID)
}

func TestDeactivate_AlreadyInactive(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	require.NoError(t, f.uc.Deactivate(context.Background(), DeactivateInput{DeviceID: "sensor-001"}))

	before := len(f.repo.auditActions("sensor-001"))

	// Repeating the call succeeds without another audit row or event.
	require.NoError(t, f.uc.Deactivate(context.Background(), DeactivateInput{DeviceID: "sensor-001"}))
	assert.Len(t, f.repo.auditActions("sensor-001"), before)
}

func TestDeactivate_NotFound(t *testing.T) {
	f := newFixture(t)

	err := f.uc.Deactivate(context.Background(), DeactivateInput{DeviceID: "ghost"})
	requireErrorCode(t, err, goerror.CodeNotFound)
}
