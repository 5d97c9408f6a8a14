package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

const (
	defaultRateLimitMaxAttempts   int64 = 10
	defaultRateLimitWindowSeconds       = 300 * time.Second
)

type VerifyInput struct {
	DeviceID string `validate:"required,deviceid"`
	Code     int    `validate:"min=0,max=99999999"`
	Source   string
}

type VerifyOutput struct {
	Valid bool
}

// Verify checks a code against the device's derived secret.
//
// A wrong code is a normal outcome (Valid=false, no error); errors mean the
// code could not be evaluated at all. The two are never conflated.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	deviceID := strings.TrimSpace(in.DeviceID)

	dev, err := s.repoDB.GetDevice(ctx, deviceID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get device", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if dev == nil || !dev.Active {
		audit := s.newAuditEvent(deviceID, entity.AuditActionVerificationRejected, false, in.Source, "device not found or inactive")
		if err := s.repoDB.CreateAudit(ctx, audit); err != nil {
			slog.ErrorContext(ctx, "failed to repo create audit event", "device_id", deviceID, "error", err)
			return nil, goerror.NewServer(err)
		}
		s.recordAttempt(ctx, deviceID)

		slog.WarnContext(ctx, "verification against unavailable device", "device_id", deviceID)
		return nil, goerror.NewBusiness("device not found or inactive", goerror.CodeNotFound)
	}

	attempts, err := s.limiter.AttemptsInWindow(ctx, deviceID, s.rateLimitWindow())
	if err != nil {
		slog.ErrorContext(ctx, "failed to count recent attempts", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if attempts > s.rateLimitMaxAttempts() {
		audit := s.newAuditEvent(deviceID, entity.AuditActionRateLimited, false, in.Source, "attempt budget exceeded")
		if err := s.repoDB.CreateAudit(ctx, audit); err != nil {
			slog.ErrorContext(ctx, "failed to repo create audit event", "device_id", deviceID, "error", err)
			return nil, goerror.NewServer(err)
		}

		s.goroutine.Go(ctx, func(ctx context.Context) error {
			return s.repoMessaging.PublishRateLimitBreach(ctx, RateLimitBreachEvent{
				DeviceID: deviceID,
				Source:   in.Source,
				Attempts: attempts,
			})
		})

		slog.WarnContext(ctx, "device exceeded attempt budget", "device_id", deviceID, "attempts", attempts)
		return nil, goerror.NewBusiness("too many verification attempts", goerror.CodeTooManyRequest)
	}

	secret := s.deriver.Derive(deviceID)

	if s.totp.Verify(secret, in.Code, s.clock.Now()) {
		audit := s.newAuditEvent(deviceID, entity.AuditActionVerified, true, in.Source, "")
		if err := s.repoDB.MarkDeviceUsed(ctx, deviceID, s.clock.Now(), audit); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark device used", "device_id", deviceID, "error", err)
			return nil, goerror.NewServer(err)
		}
		s.recordAttempt(ctx, deviceID)

		return &VerifyOutput{Valid: true}, nil
	}

	audit := s.newAuditEvent(deviceID, entity.AuditActionVerificationRejected, false, in.Source, "invalid code")
	if err := s.repoDB.CreateAudit(ctx, audit); err != nil {
		slog.ErrorContext(ctx, "failed to repo create audit event", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}
	s.recordAttempt(ctx, deviceID)

	return &VerifyOutput{Valid: false}, nil
}

// recordAttempt feeds the redis-backed limiter; for the audit-backed limiter
// it is a no-op because the audit row just written is the record.
func (s *Usecase) recordAttempt(ctx context.Context, deviceID string) {
	if err := s.limiter.RecordAttempt(ctx, deviceID, s.clock.Now()); err != nil {
		slog.WarnContext(ctx, "failed to record attempt", "device_id", deviceID, "error", err)
	}
}

func (s *Usecase) rateLimitMaxAttempts() int64 {
	if v := s.cfg.GetInt64("rate_limit.max_attempts"); v > 0 {
		return v
	}
	return defaultRateLimitMaxAttempts
}

func (s *Usecase) rateLimitWindow() time.Duration {
	if v := s.cfg.GetSecond("rate_limit.window_seconds"); v > 0 {
		return v
	}
	return defaultRateLimitWindowSeconds
}
