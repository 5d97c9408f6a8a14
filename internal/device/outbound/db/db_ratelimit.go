package db

import (
	"context"
	"time"
)

// AttemptsInWindow counts VERIFIED and VERIFICATION_REJECTED audit rows for
// the device inside the rolling window. Audit writes commit before any
// response is returned, so the count a concurrent verification sees already
// includes every finished attempt.
func (s *DB) AttemptsInWindow(ctx context.Context, key string, window time.Duration) (count int64, err error) {
	ctx, span := s.startSpan(ctx, "AttemptsInWindow")
	defer func() { s.endSpan(span, err) }()

	cutoff := s.clock.Now().Add(-window)

	err = s.withReadRetry(ctx, func(ctx context.Context) error {
		return s.mapError(s.conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM device_audit_logs
			 WHERE device_id = $1 AND action IN ('VERIFIED', 'VERIFICATION_REJECTED') AND created_at >= $2`,
			key, cutoff,
		).Scan(&count))
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// RecordAttempt is a no-op: the audit row written by the caller is the
// attempt record this limiter counts.
func (s *DB) RecordAttempt(_ context.Context, _ string, _ time.Time) error {
	return nil
}
