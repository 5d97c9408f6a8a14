package inbound

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/otpgate/otpgate/internal/device/entity"
	"github.com/otpgate/otpgate/internal/device/usecase"
	"github.com/otpgate/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for device lifecycle and verification.
type HTTPEndpoint struct {
	uc uc
}

// Register provisions a new device and returns its secret once.
// @Summary Register device
// @Description Derives a per-device secret, persists the device, and returns the secret exactly once.
// @Tags Device
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registered device"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Device already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/devices/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		DeviceID: req.DeviceID,
		OwnerID:  req.OwnerID,
		Source:   r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		DeviceID:      resp.DeviceID,
		DerivedSecret: resp.DerivedSecret,
	}, nil
}

// Verify evaluates a TOTP code for a device.
// @Summary Verify code
// @Description Checks a code against the device's derived secret. A wrong code is a 200 with valid=false.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Device not found or inactive"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many verification attempts"
// @Failure 500 {object} router.errorResponse "Verification could not be evaluated"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = r.RemoteAddr
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		DeviceID: req.DeviceID,
		Code:     req.Code,
		Source:   source,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Valid: resp.Valid}, nil
}

// Deactivate permanently disables a device.
// @Summary Deactivate device
// @Description Disables the device forever. Repeating the call is a no-op success.
// @Tags Device
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} router.successResponse{data=DeactivateResponse} "Deactivated device"
// @Failure 404 {object} router.errorResponse "Device not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/devices/{id}/deactivate [post]
func (h *HTTPEndpoint) Deactivate(r *router.Request) (any, error) {
	deviceID := r.GetParam("id")

	if err := h.uc.Deactivate(r.Context(), usecase.DeactivateInput{
		DeviceID: deviceID,
		Source:   r.RemoteAddr,
	}); err != nil {
		return nil, err
	}

	return DeactivateResponse{DeviceID: deviceID}, nil
}

// DeviceDetail returns device metadata.
// @Summary Device detail
// @Description Returns device metadata. Secrets are never included.
// @Tags Device
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} router.successResponse{data=DeviceResponse} "Device metadata"
// @Failure 404 {object} router.errorResponse "Device not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/devices/{id} [get]
func (h *HTTPEndpoint) DeviceDetail(r *router.Request) (any, error) {
	resp, err := h.uc.DeviceDetail(r.Context(), usecase.DeviceDetailInput{
		DeviceID: r.GetParam("id"),
	})
	if err != nil {
		return nil, err
	}

	return DeviceResponse{
		DeviceID:      resp.Device.DeviceID,
		OwnerID:       resp.Device.OwnerID,
		Active:        resp.Device.Active,
		UsageCount:    resp.Device.UsageCount,
		CreatedAt:     resp.Device.CreatedAt,
		DeactivatedAt: resp.Device.DeactivatedAt,
		LastUsedAt:    resp.Device.LastUsedAt,
	}, nil
}

// AuditList returns a page of the device audit trail.
// @Summary Device audit trail
// @Description Returns audit events for a device, newest first. Filter with action (comma separated), date_from, date_to (RFC 3339), page, size.
// @Tags Audit
// @Produce json
// @Param id path string true "Device ID"
// @Param action query string false "Comma separated actions"
// @Param date_from query string false "RFC 3339 lower bound"
// @Param date_to query string false "RFC 3339 upper bound"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} router.successResponse{data=AuditListResponse} "Audit events"
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 404 {object} router.errorResponse "Device not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/devices/{id}/audit [get]
func (h *HTTPEndpoint) AuditList(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	dateFrom, err := r.GetQueryDate("date_from", time.RFC3339)
	if err != nil {
		return nil, err
	}

	dateTo, err := r.GetQueryDate("date_to", time.RFC3339)
	if err != nil {
		return nil, err
	}

	var actions []string
	if raw := r.GetQuery("action"); raw != "" {
		actions = strings.Split(raw, ",")
	}

	resp, err := h.uc.AuditList(r.Context(), usecase.AuditListInput{
		DeviceID: r.GetParam("id"),
		Actions:  actions,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Page:     page,
		Size:     size,
	})
	if err != nil {
		return nil, err
	}

	return AuditListResponse{
		Events: lo.Map(resp.Events, func(ev entity.AuditEvent, _ int) AuditEventResponse {
			return AuditEventResponse{
				ID:        ev.ID,
				DeviceID:  ev.DeviceID,
				Action:    ev.Action.String(),
				Success:   ev.Success,
				Source:    ev.Source,
				Detail:    ev.Detail,
				CreatedAt: ev.CreatedAt,
			}
		}),
		total: resp.Total,
		page:  resp.Page,
		size:  resp.Size,
	}, nil
}

// AuditExport copies audit rows for a time range to object storage.
// @Summary Export audit trail
// @Description Writes the device's audit rows for a time range to object storage as JSON lines and returns a signed download URL.
// @Tags Audit
// @Accept json
// @Produce json
// @Param request body AuditExportRequest true "Export payload"
// @Success 200 {object} router.successResponse{data=AuditExportResponse} "Export result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Device not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Export failed"
// @Router /api/v1/audit/export [post]
func (h *HTTPEndpoint) AuditExport(r *router.Request) (any, error) {
	var req AuditExportRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.AuditExport(r.Context(), usecase.AuditExportInput{
		DeviceID: req.DeviceID,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Source:   r.RemoteAddr,
	})
	if err != nil {
		return nil, err
	}

	return AuditExportResponse{
		ObjectKey:        resp.ObjectKey,
		DownloadURL:      resp.DownloadURL,
		Events:           resp.Events,
		ExpiresInSeconds: int64(resp.ExpiresIn.Seconds()),
	}, nil
}

// CodePreview computes the current code for a supplied derived secret.
// @Summary Generate code (debug)
// @Description Computes the current code for a caller-supplied derived secret. Only registered when debug mode is on.
// @Tags Debug
// @Accept json
// @Produce json
// @Param request body CodePreviewRequest true "Preview payload"
// @Success 200 {object} router.successResponse{data=CodePreviewResponse} "Current code"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/test/generate-otp [post]
func (h *HTTPEndpoint) CodePreview(r *router.Request) (any, error) {
	var req CodePreviewRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CodePreview(r.Context(), usecase.CodePreviewInput{
		DerivedSecret: req.DerivedSecret,
	})
	if err != nil {
		return nil, err
	}

	return CodePreviewResponse{
		Code:      resp.Code,
		Step:      resp.Step,
		ExpiresIn: resp.ExpiresIn,
	}, nil
}
