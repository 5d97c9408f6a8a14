package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/storage"
)

const (
	auditExportPageSize  int32 = 1_000
	auditExportMaxEvents       = 250_000

	defaultExportPresignTTL = 15 * time.Minute
)

type AuditExportInput struct {
	DeviceID string    `validate:"required,deviceid"`
	DateFrom time.Time `validate:"required"`
	DateTo   time.Time `validate:"required"`
	Source   string
}

type AuditExportOutput struct {
	ObjectKey   string
	DownloadURL string
	Events      int64
	ExpiresIn   time.Duration
}

type auditExportRow struct {
	ID        int64  `json:"id"`
	DeviceID  string `json:"device_id"`
	Action    string `json:"action"`
	Success   bool   `json:"success"`
	Source    string `json:"source"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AuditExport copies a device's audit rows for a time range to object storage
// as JSON lines and returns a signed download URL. Rows are copied, never
// deleted; the database stays the durable trail.
func (s *Usecase) AuditExport(ctx context.Context, in AuditExportInput) (*AuditExportOutput, error) {
	ctx, span := s.startSpan(ctx, "AuditExport")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.DateTo.After(in.DateFrom) {
		return nil, goerror.NewInvalidInput(nil, "date_to", "must be after date_from")
	}

	deviceID := strings.TrimSpace(in.DeviceID)

	if _, err := s.repoDB.GetDevice(ctx, deviceID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("device not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get device", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	var (
		buf     bytes.Buffer
		afterID int64
		total   int64
	)

	for {
		events, err := s.repoDB.GetAuditRange(ctx, deviceID, in.DateFrom, in.DateTo, afterID, auditExportPageSize)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo read audit range", "device_id", deviceID, "error", err)
			return nil, goerror.NewServer(err)
		}

		if len(events) == 0 {
			break
		}

		rows := lo.Map(events, func(ev entity.AuditEvent, _ int) auditExportRow {
			return auditExportRow{
				ID:        ev.ID,
				DeviceID:  ev.DeviceID,
				Action:    ev.Action.String(),
				Success:   ev.Success,
				Source:    ev.Source,
				Detail:    ev.Detail,
				CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339Nano),
			}
		})

		for _, row := range rows {
			line, err := json.Marshal(row)
			if err != nil {
				return nil, goerror.NewServer(err)
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}

		total += int64(len(events))
		if total >= auditExportMaxEvents {
			slog.WarnContext(ctx, "audit export truncated", "device_id", deviceID, "events", total)
			break
		}

		afterID = events[len(events)-1].ID
	}

	bucket := s.cfg.GetString("storage.bucket")
	key := fmt.Sprintf("audit-exports/%s/%s.jsonl", deviceID, s.uuid.Generate())

	opts := storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"device_id": deviceID},
	}
	if _, err := s.storage.PutObject(ctx, bucket, key, &buf, opts); err != nil {
		slog.ErrorContext(ctx, "failed to store audit export", "device_id", deviceID, "object_key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.cfg.GetMinute("storage.presign_ttl_minutes")
	if ttl <= 0 {
		ttl = defaultExportPresignTTL
	}

	url, err := s.storage.PresignGet(ctx, bucket, key, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign audit export", "device_id", deviceID, "object_key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AuditExportOutput{
		ObjectKey:   key,
		DownloadURL: url,
		Events:      total,
		ExpiresIn:   ttl,
	}, nil
}
