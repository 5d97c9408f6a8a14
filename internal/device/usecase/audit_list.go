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
	auditListDefaultSize int32 = 20
	auditListMaxSize     int32 = 100
)

type AuditListInput struct {
	DeviceID string `validate:"required,deviceid"`
	Actions  []string
	DateFrom time.Time
	DateTo   time.Time
	Page     int32
	Size     int32
}

type AuditListOutput struct {
	Events []entity.AuditEvent
	Total  int64
	Page   int32
	Size   int32
}

// AuditList returns a page of the device's audit trail, newest first.
func (s *Usecase) AuditList(ctx context.Context, in AuditListInput) (*AuditListOutput, error) {
	ctx, span := s.startSpan(ctx, "AuditList")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.DateFrom.IsZero() != in.DateTo.IsZero() {
		return nil, goerror.NewInvalidInput(nil, "date_range", "date_from and date_to must be provided together")
	}

	deviceID := strings.TrimSpace(in.DeviceID)

	if _, err := s.repoDB.GetDevice(ctx, deviceID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("device not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get device", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	size := in.Size
	if size <= 0 {
		size = auditListDefaultSize
	}
	if size > auditListMaxSize {
		size = auditListMaxSize
	}

	page := in.Page
	if page <= 0 {
		page = 1
	}

	filter := entity.AuditListFilterData{
		DeviceID: deviceID,
		Actions:  entity.ParseSafeAuditActions(in.Actions),
		DateFrom: in.DateFrom,
		DateTo:   in.DateTo,
		Size:     size,
		Offset:   (page - 1) * size,
	}
	if len(filter.Actions) > 0 {
		filter.IsFilterByAction = true
	}
	if !in.DateFrom.IsZero() && !in.DateTo.IsZero() {
		filter.IsFilterByDate = true
	}

	events, total, err := s.repoDB.GetAuditList(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit events", "device_id", deviceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AuditListOutput{
		Events: events,
		Total:  total,
		Page:   page,
		Size:   size,
	}, nil
}
