package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

// MarkDeviceUsed bumps usage statistics and records the VERIFIED audit row in
// one transaction, so a successful verification is never unaudited.
func (s *DB) MarkDeviceUsed(ctx context.Context, deviceID string, usedAt time.Time, audit entity.AuditEvent) (err error) {
	ctx, span := s.startSpan(ctx, "MarkDeviceUsed")
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

	tag, err := tx.Exec(ctx,
		`UPDATE devices SET usage_count = usage_count + 1, last_used_at = $2
		 WHERE device_id = $1 AND is_active = TRUE`,
		deviceID, usedAt,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		// lost the race against a concurrent deactivation
		return goerror.ErrNotFound
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

// DeactivateDevice flips the device inactive and records the DEACTIVATED
// audit row in one transaction. deactivated_at is only ever set once.
func (s *DB) DeactivateDevice(ctx context.Context, deviceID string, at time.Time, audit entity.AuditEvent) (err error) {
	ctx, span := s.startSpan(ctx, "DeactivateDevice")
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

	tag, err := tx.Exec(ctx,
		`UPDATE devices SET is_active = FALSE, deactivated_at = $2
		 WHERE device_id = $1 AND is_active = TRUE`,
		deviceID, at,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		// already inactive; the caller treats this as a no-op
		return nil
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
