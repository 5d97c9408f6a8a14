package db

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/otpgate/otpgate/internal/device/entity"
)

func collectAuditEvents(rows pgx.Rows) ([]entity.AuditEvent, error) {
	out := make([]entity.AuditEvent, 0)

	for rows.Next() {
		var (
			ev     entity.AuditEvent
			action string
		)
		if err := rows.Scan(&ev.ID, &ev.DeviceID, &action, &ev.Success, &ev.Source, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}

		ev.Action = entity.AuditActionFromString(action)
		out = append(out, ev)
	}

	return out, rows.Err()
}

const deviceColumns = `device_id, owner_id, secret_fingerprint, is_active, usage_count, created_at, deactivated_at, last_used_at`

func (s *DB) GetDevice(ctx context.Context, deviceID string) (dev *entity.Device, err error) {
	ctx, span := s.startSpan(ctx, "GetDevice")
	defer func() { s.endSpan(span, err) }()

	err = s.withReadRetry(ctx, func(ctx context.Context) error {
		row := s.conn.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE device_id = $1`, deviceID)

		var d entity.Device
		if sErr := row.Scan(
			&d.DeviceID,
			&d.OwnerID,
			&d.SecretFingerprint,
			&d.Active,
			&d.UsageCount,
			&d.CreatedAt,
			&d.DeactivatedAt,
			&d.LastUsedAt,
		); sErr != nil {
			return s.mapError(sErr)
		}

		dev = &d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dev, nil
}

func (s *DB) GetAuditList(ctx context.Context, filter entity.AuditListFilterData) (events []entity.AuditEvent, total int64, err error) {
	ctx, span := s.startSpan(ctx, "GetAuditList")
	defer func() { s.endSpan(span, err) }()

	where := []string{"device_id = $1"}
	args := []any{filter.DeviceID}

	if filter.IsFilterByAction {
		args = append(args, entity.ToStringSlice(filter.Actions))
		where = append(where, "action = ANY($"+strconv.Itoa(len(args))+")")
	}

	if filter.IsFilterByDate {
		args = append(args, filter.DateFrom)
		where = append(where, "created_at >= $"+strconv.Itoa(len(args)))
		args = append(args, filter.DateTo)
		where = append(where, "created_at <= $"+strconv.Itoa(len(args)))
	}

	cond := strings.Join(where, " AND ")

	err = s.withReadRetry(ctx, func(ctx context.Context) error {
		if sErr := s.conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM device_audit_logs WHERE `+cond, args...,
		).Scan(&total); sErr != nil {
			return s.mapError(sErr)
		}

		pageArgs := append(append([]any{}, args...), filter.Size, filter.Offset)
		limitPos := strconv.Itoa(len(pageArgs) - 1)
		offsetPos := strconv.Itoa(len(pageArgs))

		rows, qErr := s.conn.Query(ctx,
			`SELECT id, device_id, action, success, source, detail, created_at
			 FROM device_audit_logs
			 WHERE `+cond+`
			 ORDER BY created_at DESC, id DESC
			 LIMIT $`+limitPos+` OFFSET $`+offsetPos,
			pageArgs...,
		)
		if qErr != nil {
			return s.mapError(qErr)
		}
		defer rows.Close()

		out, cErr := collectAuditEvents(rows)
		if cErr != nil {
			return s.mapError(cErr)
		}

		events = out
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// GetAuditRange reads audit rows for a time range in insertion order using
// keyset pagination on the snowflake id.
func (s *DB) GetAuditRange(ctx context.Context, deviceID string, from, to time.Time, afterID int64, limit int32) (events []entity.AuditEvent, err error) {
	ctx, span := s.startSpan(ctx, "GetAuditRange")
	defer func() { s.endSpan(span, err) }()

	err = s.withReadRetry(ctx, func(ctx context.Context) error {
		rows, qErr := s.conn.Query(ctx,
			`SELECT id, device_id, action, success, source, detail, created_at
			 FROM device_audit_logs
			 WHERE device_id = $1 AND created_at >= $2 AND created_at <= $3 AND id > $4
			 ORDER BY id ASC
			 LIMIT $5`,
			deviceID, from, to, afterID, limit,
		)
		if qErr != nil {
			return s.mapError(qErr)
		}
		defer rows.Close()

		out, cErr := collectAuditEvents(rows)
		if cErr != nil {
			return s.mapError(cErr)
		}

		events = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}
