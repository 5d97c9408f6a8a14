package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/goroutine"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/keyderive"
	"github.com/otpgate/otpgate/internal/pkg/storage"
	"github.com/otpgate/otpgate/internal/pkg/totp"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

var testNow = time.Unix(1_700_000_000, 0).UTC()

var errStore = errors.New("store unavailable")

type fakeRepoDB struct {
	mu      sync.Mutex
	devices map[string]*entity.Device
	audits  []entity.AuditEvent

	failCreateAudit  bool
	failMarkUsed     bool
	failCreateDevice bool

	lastListFilter entity.AuditListFilterData
}

func newFakeRepoDB() *fakeRepoDB {
	return &fakeRepoDB{devices: map[string]*entity.Device{}}
}

func (f *fakeRepoDB) GetDevice(_ context.Context, deviceID string) (*entity.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dev, ok := f.devices[deviceID]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	cp := *dev
	return &cp, nil
}

func (f *fakeRepoDB) GetAuditList(_ context.Context, filter entity.AuditListFilterData) ([]entity.AuditEvent, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastListFilter = filter

	out := make([]entity.AuditEvent, 0)
	for _, ev := range f.audits {
		if ev.DeviceID == filter.DeviceID {
			out = append(out, ev)
		}
	}

	return out, int64(len(out)), nil
}

func (f *fakeRepoDB) GetAuditRange(_ context.Context, deviceID string, from, to time.Time, afterID int64, _ int32) ([]entity.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.AuditEvent, 0)
	for _, ev := range f.audits {
		if ev.DeviceID != deviceID || ev.ID <= afterID {
			continue
		}
		if ev.CreatedAt.Before(from) || ev.CreatedAt.After(to) {
			continue
		}
		out = append(out, ev)
	}

	return out, nil
}

func (f *fakeRepoDB) CreateDevice(_ context.Context, dev entity.Device, audit entity.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreateDevice {
		return errStore
	}

	if _, ok := f.devices[dev.DeviceID]; ok {
		return goerror.ErrConflict
	}

	f.devices[dev.DeviceID] = &dev
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeRepoDB) CreateAudit(_ context.Context, audit entity.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreateAudit {
		return errStore
	}

	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeRepoDB) MarkDeviceUsed(_ context.Context, deviceID string, usedAt time.Time, audit entity.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failMarkUsed {
		return errStore
	}

	dev, ok := f.devices[deviceID]
	if !ok || !dev.Active {
		return goerror.ErrNotFound
	}

	dev.UsageCount++
	dev.LastUsedAt = &usedAt
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeRepoDB) DeactivateDevice(_ context.Context, deviceID string, at time.Time, audit entity.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dev, ok := f.devices[deviceID]
	if !ok {
		return goerror.ErrNotFound
	}

	if !dev.Active {
		return nil
	}

	dev.Active = false
	dev.DeactivatedAt = &at
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeRepoDB) auditActions(deviceID string) []entity.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.AuditAction, 0)
	for _, ev := range f.audits {
		if ev.DeviceID == deviceID {
			out = append(out, ev.Action)
		}
	}

	return out
}

func (f *fakeRepoDB) lastAudit(deviceID string) (entity.AuditEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.audits) - 1; i >= 0; i-- {
		if f.audits[i].DeviceID == deviceID {
			return f.audits[i], true
		}
	}

	return entity.AuditEvent{}, false
}

type fakeMessaging struct {
	mu          sync.Mutex
	registered  []DeviceRegisteredEvent
	deactivated []DeviceDeactivatedEvent
	breaches    []RateLimitBreachEvent
}

func (f *fakeMessaging) PublishDeviceRegistered(_ context.Context, msg DeviceRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, msg)
	return nil
}

func (f *fakeMessaging) PublishDeviceDeactivated(_ context.Context, msg DeviceDeactivatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, msg)
	return nil
}

func (f *fakeMessaging) PublishRateLimitBreach(_ context.Context, msg RateLimitBreachEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breaches = append(f.breaches, msg)
	return nil
}

type fakeLimiter struct {
	attempts int64
	err      error

	mu       sync.Mutex
	recorded []time.Time
}

func (f *fakeLimiter) AttemptsInWindow(context.Context, string, time.Duration) (int64, error) {
	return f.attempts, f.err
}

func (f *fakeLimiter) RecordAttempt(_ context.Context, _ string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, at)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+key] = data

	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data)), ContentType: opts.ContentType}, nil
}

func (f *fakeStorage) StatObject(_ context.Context, bucket, key string) (storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return storage.ObjectInfo{}, goerror.ErrNotFound
	}

	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + key, nil
}

type seqNumberID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqNumberID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type fixedStringID string

func (s fixedStringID) Generate() string { return string(s) }

type fixture struct {
	uc      *Usecase
	repo    *fakeRepoDB
	msg     *fakeMessaging
	limiter *fakeLimiter
	storage *fakeStorage
	engine  *totp.TOTP
	deriver *keyderive.HMACDeriver
	goro    *goroutine.Manager
}

const testConfigYAML = `
rate_limit:
  max_attempts: 10
  window_seconds: 300
storage:
  bucket: otpgate-exports
  presign_ttl_minutes: 15
otp:
  interval_seconds: 30
`

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	v10, err := validator.NewV10Validator()
	require.NoError(t, err)

	deriver, err := keyderive.NewHMACDeriver([]byte("test-master-secret"))
	require.NoError(t, err)

	f := &fixture{
		repo:    newFakeRepoDB(),
		msg:     &fakeMessaging{},
		limiter: &fakeLimiter{},
		storage: &fakeStorage{},
		engine:  totp.New(6, 30, 1),
		deriver: deriver,
		goro:    goroutine.NewManager(8),
	}

	f.uc = New(Dependency{
		RepoDB:        f.repo,
		RepoMessaging: f.msg,
		RateLimiter:   f.limiter,
		Validator:     v10,
		Config:        cfg,
		Storage:       f.storage,
		Deriver:       deriver,
		Hash:          hash.NewSHA256(),
		Totp:          f.engine,
		UID:           &seqNumberID{},
		UUID:          fixedStringID("export-0001"),
		Clock:         clock.Func(func() time.Time { return testNow }),
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.goro,
	})

	return f
}

// validCode computes the code an authenticator holding the derived secret
// would show at the fixture's frozen time.
func (f *fixture) validCode(t *testing.T, deviceID string) int {
	t.Helper()

	code, err := f.engine.CodeAt(f.deriver.Derive(deviceID), f.engine.StepAt(testNow))
	require.NoError(t, err)
	return code
}

func (f *fixture) registerDevice(t *testing.T, deviceID, ownerID string) {
	t.Helper()

	_, err := f.uc.Register(context.Background(), RegisterInput{
		DeviceID: deviceID,
		OwnerID:  ownerID,
		Source:   "10.0.0.1",
	})
	require.NoError(t, err)
}

func requireErrorCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, code, gerr.Code())
}
