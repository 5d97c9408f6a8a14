package inbound

import (
	"context"

	"github.com/otpgate/otpgate/internal/device/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Deactivate(ctx context.Context, in usecase.DeactivateInput) error

	DeviceDetail(ctx context.Context, in usecase.DeviceDetailInput) (*usecase.DeviceDetailOutput, error)
	AuditList(ctx context.Context, in usecase.AuditListInput) (*usecase.AuditListOutput, error)
	AuditExport(ctx context.Context, in usecase.AuditExportInput) (*usecase.AuditExportOutput, error)

	CodePreview(ctx context.Context, in usecase.CodePreviewInput) (*usecase.CodePreviewOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, debug bool) {
	end := &HTTPEndpoint{uc: uc}

	// Device Lifecycle
	r.POST("/api/v1/devices/register", end.Register)
	r.POST("/api/v1/devices/:id/deactivate", end.Deactivate)
	r.GET("/api/v1/devices/:id", end.DeviceDetail)

	// Verification
	r.POST("/api/v1/otp/verify", end.Verify)

	// Audit Trail
	r.GET("/api/v1/devices/:id/audit", end.AuditList)
	r.POST("/api/v1/audit/export", end.AuditExport)

	// Debug tooling; never registered in production
	if debug {
		r.POST("/api/v1/test/generate-otp", end.CodePreview)
	}
}
