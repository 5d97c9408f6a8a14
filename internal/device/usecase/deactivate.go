package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type DeactivateInput struct {
	DeviceID string `validate:"required,deviceid"`
	Source   string
}

// Deactivate permanently disables a device.
//
// Deactivation is terminal: the device can never verify again and its
// device_id can never be re-registered. Repeating the call for an already
// inactive device succeeds without touching the row again.
func (s *Usecase) Deactivate(ctx context.Context, in DeactivateInput) error {
	ctx, span := s.startSpan(ctx, "Deactivate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	deviceID := strings.TrimSpace(in.DeviceID)

	dev, err := s.repoDB.GetDevice(ctx, deviceID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "device not found", "device_id", deviceID)
		return goerror.NewBusiness("device not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get device", "device_id", deviceID, "error", err)
		return goerror.NewServer(err)
	}

	if !dev.Active {
		return nil
	}

	audit := s.newAuditEvent(deviceID, entity.AuditActionDeactivated, true, in.Source, "")
	if err := s.repoDB.DeactivateDevice(ctx, deviceID, s.clock.Now(), audit); err != nil {
		slog.ErrorContext(ctx, "failed to repo deactivate device", "device_id", deviceID, "error", err)
		return goerror.NewServer(err)
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		return s.repoMessaging.PublishDeviceDeactivated(ctx, DeviceDeactivatedEvent{
			DeviceID: deviceID,
			OwnerID:  dev.OwnerID,
			Source:   in.Source,
		})
	})

	return nil
}
