package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/otpgate/otpgate/internal/device/entity"
)

const insertAuditSQL = `INSERT INTO device_audit_logs (id, device_id, action, success, source, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// CreateDevice inserts the device row and its REGISTERED audit row in one
// transaction. The primary key on device_id is the registration uniqueness
// check; a duplicate surfaces as goerror.ErrConflict.
func (s *DB) CreateDevice(ctx context.Context, dev entity.Device, audit entity.AuditEvent) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDevice")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO devices (device_id, owner_id, secret_fingerprint, is_active, usage_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		dev.DeviceID, dev.OwnerID, dev.SecretFingerprint, dev.Active, dev.UsageCount, dev.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if _, err := tx.Exec(ctx, insertAuditSQL,
		audit.ID, audit.DeviceID, audit.Action.String(), audit.Success, audit.Source, audit.Detail, audit.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) CreateAudit(ctx context.Context, audit entity.AuditEvent) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAudit")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, insertAuditSQL,
		audit.ID, audit.DeviceID, audit.Action.String(), audit.Success, audit.Source, audit.Detail, audit.CreatedAt,
	)
	err = s.mapError(err)
	return err
}
