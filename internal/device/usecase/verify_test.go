package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestVerify_ValidCode(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	out, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     f.validCode(t, "sensor-001"),
		Source:   "10.0.0.2",
	})
	require.NoError(t, err)
	assert.True(t, out.Valid)

	dev, err := f.repo.GetDevice(context.Background(), "sensor-001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), dev.UsageCount)
	require.NotNil(t, dev.LastUsedAt)
	assert.Equal(t, testNow, *dev.LastUsedAt)

	audit, ok := f.repo.lastAudit("sensor-001")
	require.True(t, ok)
	assert.Equal(t, entity.AuditActionVerified, audit.Action)
	assert.True(t, audit.Success)

	assert.Len(t, f.limiter.recorded, 1)
}

func TestVerify_InvalidCode(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	wrong := (f.validCode(t, "sensor-001") + 1) % 1_000_000

	out, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     wrong,
		Source:   "10.0.0.2",
	})
	require.NoError(t, err)
	assert.False(t, out.Valid)

	dev, err := f.repo.GetDevice(context.Background(), "sensor-001")
	require.NoError(t, err)
	assert.Zero(t, dev.UsageCount)
	assert.Nil(t, dev.LastUsedAt)

	audit, ok := f.repo.lastAudit("sensor-001")
	require.True(t, ok)
	assert.Equal(t, entity.AuditActionVerificationRejected, audit.Action)
	assert.False(t, audit.Success)
	assert.Equal(t, "invalid code", audit.Detail)
}

func TestVerify_DeviceMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "ghost",
		Code:     123456,
	})
	requireErrorCode(t, err, goerror.CodeNotFound)

	audit, ok := f.repo.lastAudit("ghost")
	require.True(t, ok)
	assert.Equal(t, entity.AuditActionVerificationRejected, audit.Action)
	assert.Equal(t, "device not found or inactive", audit.Detail)
	assert.Equal(t, "system", audit.Source)
}

func TestVerify_DeviceInactive(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	code := f.validCode(t, "sensor-001")

	require.NoError(t, f.uc.Deactivate(context.Background(), DeactivateInput{DeviceID: "sensor-001"}))

	// A previously valid code is refused as unavailable, not as a mismatch.
	_, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     code,
	})
	requireErrorCode(t, err, goerror.CodeNotFound)
}

func TestVerify_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")
	f.limiter.attempts = 11

	// Even the correct code is refused before being checked.
	_, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     f.validCode(t, "sensor-001"),
		Source:   "10.0.0.2",
	})
	requireErrorCode(t, err, goerror.CodeTooManyRequest)

	audit, ok := f.repo.lastAudit("sensor-001")
	require.True(t, ok)
	assert.Equal(t, entity.AuditActionRateLimited, audit.Action)

	require.NoError(t, f.goro.Wait())
	require.Len(t, f.msg.breaches, 1)
	assert.Equal(t, int64(11), f.msg.breaches[0].Attempts)
}

func TestVerify_AtThresholdAllowed(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")
	f.limiter.attempts = 10 // budget is exceeded strictly above the threshold

	out, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     f.validCode(t, "sensor-001"),
	})
	require.NoError(t, err)
	assert.True(t, out.Valid)
}

func TestVerify_StoreFailureNeverReportsValid(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")
	f.repo.failMarkUsed = true

	out, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     f.validCode(t, "sensor-001"),
	})
	requireErrorCode(t, err, goerror.CodeInternal)
	assert.Nil(t, out)

	dev, err := f.repo.GetDevice(context.Background(), "sensor-001")
	require.NoError(t, err)
	assert.Zero(t, dev.UsageCount)
}

func TestVerify_AuditWriteFailure(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")
	f.repo.failCreateAudit = true

	wrong := (f.validCode(t, "sensor-001") + 1) % 1_000_000

	// An unaudited rejection must not be reported as an evaluated result.
	_, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     wrong,
	})
	requireErrorCode(t, err, goerror.CodeInternal)
}
