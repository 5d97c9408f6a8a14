package app

import (
	"log/slog"
	"os"

	"github.com/otpgate/otpgate/internal/device"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.device.enabled") {
		if err := device.New(device.Dependency{
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Deriver:    a.deriver,
			Hash:       a.sha256,
			Totp:       a.totp,
			Clock:      a.clock,
			Validator:  a.validator,
			Router:     a.router,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Messaging:  a.messaging,
			Storage:    a.storage,
			Goroutine:  a.goroutine,
		}); err != nil {
			slog.Error("failed to init module device", "error", err)
			os.Exit(1)
		}
	}
}
