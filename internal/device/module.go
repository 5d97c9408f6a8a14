package device

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/otpgate/otpgate/internal/device/inbound"
	"github.com/otpgate/otpgate/internal/device/outbound/db"
	"github.com/otpgate/otpgate/internal/device/outbound/mq"
	"github.com/otpgate/otpgate/internal/device/usecase"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goroutine"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/keyderive"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"github.com/otpgate/otpgate/internal/pkg/ratelimit"
	"github.com/otpgate/otpgate/internal/pkg/router"
	"github.com/otpgate/otpgate/internal/pkg/storage"
	"github.com/otpgate/otpgate/internal/pkg/totp"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Deriver    keyderive.Deriver          `validate:"required"`
	Hash       hash.Hash                  `validate:"required"`
	Totp       totp.Engine                `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbDevice := db.NewDB(dep.DBConn, dep.Clock, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Clock, dep.Instrument)

	// The attempt counter defaults to the audit trail itself; the redis
	// driver keeps an independent counter for deployments where the audit
	// table is too hot to query on every verification.
	limiter := usecaseLimiter(dep, dbDevice)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbDevice,
		RepoMessaging: repoMsg,
		RateLimiter:   limiter,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		Deriver:       dep.Deriver,
		Hash:          dep.Hash,
		Totp:          dep.Totp,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetBool("app.debug"))

	return nil
}

func usecaseLimiter(dep Dependency, dbDevice *db.DB) usecase.RateLimiter {
	if dep.Config.GetString("rate_limit.driver") == "redis" {
		return ratelimit.NewRedis(dep.CacheConn, dep.UUID, dep.Clock)
	}
	return dbDevice
}
