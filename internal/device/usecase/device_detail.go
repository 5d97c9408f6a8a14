package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type DeviceDetailInput struct {
	DeviceID string `validate:"required,deviceid"`
}

type DeviceDetailOutput struct {
	Device entity.Device
}

// DeviceDetail returns device metadata. Secrets are never part of it.
func (s *Usecase) DeviceDetail(ctx context.Context, in DeviceDetailInput) (*DeviceDetailOutput, error) {
	ctx, span := s.startSpan(ctx, "DeviceDetail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	deviceID := strings.TrimSpace(in.DeviceID)

	dev, err := s.repoDB.GetDevice(ctx, deviceID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("device not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get device", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DeviceDetailOutput{Device: *dev}, nil
}
