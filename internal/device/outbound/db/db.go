package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
)

type DB struct {
	conn  *pgxpool.Pool
	clock clock.Clocker
	ins   instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, clk clock.Clocker, ins instrument.Instrumentation) *DB {
	return &DB{
		conn:  conn,
		clock: clk,
		ins:   ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - 40001 serialization_failure → retryable for reads only
// - 40P01 deadlock_detected → retryable for reads only
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("device.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// withReadRetry retries idempotent reads a bounded number of times. Writes
// never go through here: a retried insert would duplicate audit rows or
// double-increment usage counters.
func (s *DB) withReadRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(2, retry.NewConstant(50*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, goerror.ErrNotFound) || errors.Is(err, goerror.ErrConflict) {
			return err
		}

		return retry.RetryableError(err)
	})
}
