package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestAuditExport(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	_, err := f.uc.Verify(context.Background(), VerifyInput{
		DeviceID: "sensor-001",
		Code:     f.validCode(t, "sensor-001"),
	})
	require.NoError(t, err)

	out, err := f.uc.AuditExport(context.Background(), AuditExportInput{
		DeviceID: "sensor-001",
		DateFrom: testNow.Add(-time.Hour),
		DateTo:   testNow.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), out.Events)
	assert.Contains(t, out.ObjectKey, "audit-exports/sensor-001/")
	assert.Contains(t, out.DownloadURL, "https://storage.test/otpgate-exports/")
	assert.Equal(t, 15*time.Minute, out.ExpiresIn)

	data, ok := f.storage.objects["otpgate-exports/"+out.ObjectKey]
	require.True(t, ok)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)

	var row auditExportRow
	require.NoError(t, json.Unmarshal(lines[0], &row))
	assert.Equal(t, "sensor-001", row.DeviceID)
	assert.Equal(t, "REGISTERED", row.Action)
}

func TestAuditExport_EmptyRange(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	out, err := f.uc.AuditExport(context.Background(), AuditExportInput{
		DeviceID: "sensor-001",
		DateFrom: testNow.Add(time.Hour),
		DateTo:   testNow.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Zero(t, out.Events)
}

func TestAuditExport_InvalidRange(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")

	_, err := f.uc.AuditExport(context.Background(), AuditExportInput{
		DeviceID: "sensor-001",
		DateFrom: testNow,
		DateTo:   testNow.Add(-time.Hour),
	})
	requireErrorCode(t, err, goerror.CodeInvalidInput)
}

func TestAuditExport_DeviceNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.AuditExport(context.Background(), AuditExportInput{
		DeviceID: "ghost",
		DateFrom: testNow.Add(-time.Hour),
		DateTo:   testNow,
	})
	requireErrorCode(t, err, goerror.CodeNotFound)
}

func TestAuditExport_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.registerDevice(t, "sensor-001", "acme")
	f.storage.putErr = errStore

	_, err := f.uc.AuditExport(context.Background(), AuditExportInput{
		DeviceID: "sensor-001",
		DateFrom: testNow.Add(-time.Hour),
		DateTo:   testNow.Add(time.Hour),
	})
	requireErrorCode(t, err, goerror.CodeInternal)
}
