package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goroutine"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/keyderive"
	"github.com/otpgate/otpgate/internal/pkg/storage"
	"github.com/otpgate/otpgate/internal/pkg/totp"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

type DeviceRegisteredEvent struct {
	DeviceID string
	OwnerID  string
	Source   string
}

type DeviceDeactivatedEvent struct {
	DeviceID string
	OwnerID  string
	Source   string
}

type RateLimitBreachEvent struct {
	DeviceID string
	Source   string
	Attempts int64
}

type repoMessaging interface {
	PublishDeviceRegistered(ctx context.Context, msg DeviceRegisteredEvent) error
	PublishDeviceDeactivated(ctx context.Context, msg DeviceDeactivatedEvent) error
	PublishRateLimitBreach(ctx context.Context, msg RateLimitBreachEvent) error
}

type repoDB interface {
	GetDevice(ctx context.Context, deviceID string) (*entity.Device, error)
	GetAuditList(ctx context.Context, filter entity.AuditListFilterData) ([]entity.AuditEvent, int64, error)
	GetAuditRange(ctx context.Context, deviceID string, from, to time.Time, afterID int64, limit int32) ([]entity.AuditEvent, error)

	CreateDevice(ctx context.Context, dev entity.Device, audit entity.AuditEvent) error
	CreateAudit(ctx context.Context, audit entity.AuditEvent) error
	MarkDeviceUsed(ctx context.Context, deviceID string, usedAt time.Time, audit entity.AuditEvent) error
	DeactivateDevice(ctx context.Context, deviceID string, at time.Time, audit entity.AuditEvent) error
}

// RateLimiter counts recent verification attempts. The db repository
// satisfies it by querying the audit trail; the redis driver keeps its own
// counter. Exported because the module wiring picks the driver.
type RateLimiter interface {
	AttemptsInWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	RecordAttempt(ctx context.Context, key string, at time.Time) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	limiter       RateLimiter
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	deriver       keyderive.Deriver
	hasher        hash.Hash
	totp          totp.Engine
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RateLimiter   RateLimiter
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	Deriver       keyderive.Deriver
	Hash          hash.Hash
	Totp          totp.Engine
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		limiter:       dep.RateLimiter,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		deriver:       dep.Deriver,
		hasher:        dep.Hash,
		totp:          dep.Totp,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("device.usecase").Start(ctx, name)
}

func (s *Usecase) newAuditEvent(deviceID string, action entity.AuditAction, success bool, source, detail string) entity.AuditEvent {
	if source == "" {
		source = "system"
	}

	return entity.AuditEvent{
		ID:        s.uid.Generate(),
		DeviceID:  deviceID,
		Action:    action,
		Success:   success,
		Source:    source,
		Detail:    detail,
		CreatedAt: s.clock.Now(),
	}
}
