package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type RegisterInput struct {
	DeviceID string `validate:"required,deviceid"`
	OwnerID  string `validate:"required,min=1,max=100"`
	Source   string
}

type RegisterOutput struct {
	DeviceID      string
	DerivedSecret string
}

// Register creates a device and returns its derived secret exactly once.
//
// The secret is recomputable from the master secret, so nothing secret is
// persisted; the fingerprint stored with the device only allows equality
// checks against a recomputed key.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	deviceID := strings.TrimSpace(in.DeviceID)

	secret := s.deriver.Derive(deviceID)
	fingerprint, err := s.hasher.Hash(string(secret))
	if err != nil {
		slog.ErrorContext(ctx, "failed to fingerprint derived secret", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	dev := entity.Device{
		DeviceID:          deviceID,
		OwnerID:           in.OwnerID,
		SecretFingerprint: string(fingerprint),
		Active:            true,
		CreatedAt:         now,
	}

	audit := s.newAuditEvent(deviceID, entity.AuditActionRegistered, true, in.Source, "")

	// The insert is the uniqueness check: concurrent registrations for one
	// device_id produce exactly one winner via the primary key.
	err = s.repoDB.CreateDevice(ctx, dev, audit)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "device already registered", "device_id", deviceID)
		return nil, goerror.NewBusiness("device already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create device", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		return s.repoMessaging.PublishDeviceRegistered(ctx, DeviceRegisteredEvent{
			DeviceID: deviceID,
			OwnerID:  in.OwnerID,
			Source:   in.Source,
		})
	})

	return &RegisterOutput{
		DeviceID:      deviceID,
		DerivedSecret: base64.StdEncoding.EncodeToString(secret),
	}, nil
}
