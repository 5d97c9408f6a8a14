package app

import (
	"context"
	"time"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

type bannerResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Env     string `json:"env"`
}

func (bannerResponse) Message() string {
	return "Welcome to otpgate."
}

type healthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (healthResponse) Message() string {
	return "All dependencies are healthy."
}

func (a *App) registerSystemRoutes() {
	a.router.GET("/", func(*router.Request) (any, error) {
		return bannerResponse{
			Service: a.config.GetString("instrument.service_name"),
			Version: a.config.GetString("instrument.service_version"),
			Env:     a.config.GetString("instrument.env"),
		}, nil
	})

	a.router.GET("/health", func(r *router.Request) (any, error) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := a.dbConn.Ping(ctx); err != nil {
			return nil, goerror.NewServer(err)
		}

		if err := a.cacheConn.Ping(ctx).Err(); err != nil {
			return nil, goerror.NewServer(err)
		}

		return healthResponse{Database: "up", Redis: "up"}, nil
	})
}
