package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/keyderive"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.Register(context.Background(), RegisterInput{
		DeviceID: "sensor-001",
		OwnerID:  "acme",
		Source:   "10.0.0.1",
	})
	require.NoError(t, err)

	secret, err := base64.StdEncoding.DecodeString(out.DerivedSecret)
	require.NoError(t, err)
	assert.Len(t, secret, keyderive.SecretSize)
	assert.Equal(t, f.deriver.Derive("sensor-001"), secret)

	dev, err := f.repo.GetDevice(context.Background(), "sensor-001")
	require.NoError(t, err)
	assert.True(t, dev.Active)
	assert.Equal(t, "acme", dev.OwnerID)
	assert.Equal(t, testNow, dev.CreatedAt)

	// Only the fingerprint is stored, never the secret.
	sum := sha256.Sum256(secret)
	assert.Equal(t, hex.EncodeToString(sum[:]), dev.SecretFingerprint)

	audit, ok := f.repo.lastAudit("sensor-001")
	require.True(t, ok)
	assert.Equal(t, entity.AuditActionRegistered, audit.Action)
	assert.True(t, audit.Success)
	assert.Equal(t, "10.0.0.1", audit.Source)

	require.NoError(t, f.goro.Wait())
	assert.Len(t, f.msg.registered, 1)
	assert.Equal(t, "sensor-001", f.msg.registered[0].DeviceID)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	_, err := f.uc.Register(context.Background(), RegisterInput{
		DeviceID: "sensor-001",
		OwnerID:  "other",
	})
	requireErrorCode(t, err, goerror.CodeConflict)
}

func TestRegister_DeactivatedIDNeverReusable(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	require.NoError(t, f.uc.Deactivate(context.Background(), DeactivateInput{DeviceID: "sensor-001"}))

	_, err := f.uc.Register(context.Background(), RegisterInput{
		DeviceID: "sensor-001",
		OwnerID:  "acme",
	})
	requireErrorCode(t, err, goerror.CodeConflict)
}

func TestRegister_InvalidDeviceID(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"", "has space", "bad/slash", "x@y"} {
		_, err := f.uc.Register(context.Background(), RegisterInput{
			DeviceID: id,
			OwnerID:  "acme",
		})
		requireErrorCode(t, err, goerror.CodeInvalidInput)
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.failCreateDevice = true

	_, err := f.uc.Register(context.Background(), RegisterInput{
		DeviceID: "sensor-001",
		OwnerID:  "acme",
	})
	requireErrorCode(t, err, goerror.CodeInternal)
	assert.Empty(t, f.repo.auditActions("sensor-001"))
}
