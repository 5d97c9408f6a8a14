package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type CodePreviewInput struct {
	DerivedSecret string `validate:"required"`
}

type CodePreviewOutput struct {
	Code      int
	Step      uint64
	ExpiresIn int64
}

// CodePreview computes the current code for a caller-supplied derived secret.
//
// It exists for integration testing against the verify endpoint and is only
// registered when the service runs in debug mode. It touches no stored state.
func (s *Usecase) CodePreview(ctx context.Context, in CodePreviewInput) (*CodePreviewOutput, error) {
	ctx, span := s.startSpan(ctx, "CodePreview")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, err := base64.StdEncoding.DecodeString(in.DerivedSecret)
	if err != nil {
		return nil, goerror.NewInvalidInput(nil, "derived_secret", "must be standard base64")
	}

	now := s.clock.Now()
	step := s.totp.StepAt(now)

	code, err := s.totp.CodeAt(secret, step)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute code", "error", err)
		return nil, goerror.NewServer(err)
	}

	interval := s.cfg.GetInt64("otp.interval_seconds")
	if interval <= 0 {
		interval = 30
	}

	return &CodePreviewOutput{
		Code:      code,
		Step:      step,
		ExpiresIn: interval - (now.Unix() % interval),
	}, nil
}
