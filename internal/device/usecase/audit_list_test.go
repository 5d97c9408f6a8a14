package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestAuditList(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	_, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     f.validCode(t, "sensor-001"),
	})
	require.NoError(t, err)

	out, err := f.uc.AuditList(context.Background(), AuditListInput{DeviceID: "sensor-001"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), out.Total) // REGISTERED + VERIFIED
	assert.Len(t, out.Events, 2)
	assert.Equal(t, int32(1), out.Page)
	assert.Equal(t, auditListDefaultSize, out.Size)
}

func TestAuditList_SizeClamped(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	out, err := f.uc.AuditList(context.Background(), AuditListInput{
		DeviceID: "sensor-001",
		Size:     10_000,
	})
	require.NoError(t, err)
	assert.Equal(t, auditListMaxSize, out.Size)
}

func TestAuditList_OffsetFromPage(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	out, err := f.uc.AuditList(context.Background(), AuditListInput{
		DeviceID: "sensor-001",
		Page:     3,
		Size:     25,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), out.Page)
	assert.Equal(t, int32(50), f.repo.lastListFilter.Offset)
	assert.Equal(t, int32(25), f.repo.lastListFilter.Size)
}

func TestAuditList_OneSidedDateRange(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	_, err := f.uc.AuditList(context.Background(), AuditListInput{
		DeviceID: "sensor-001",
		DateFrom: testNow.Add(-time.Hour),
	})
	requireErrorCode(t, err, goerror.CodeInvalidInput)

	_, err = f.uc.AuditList(context.Background(), AuditListInput{
		DeviceID: "sensor-001",
		DateTo:   testNow,
	})
	requireErrorCode(t, err, goerror.CodeInvalidInput)
}

func TestAuditList_DeviceNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.AuditList(context.Background(), AuditListInput{DeviceID: "ghost"})
	requireErrorCode(t, err, goerror.CodeNotFound)
}
