package inbound

import (
	"net/http"
	"time"
)

type RegisterRequest struct {
	DeviceID string `json:"device_id"`
	OwnerID  string `json:"owner_id"`
}

type RegisterResponse struct {
	DeviceID      string `json:"device_id"`
	DerivedSecret string `json:"derived_secret"`
}

func (RegisterResponse) Message() string {
	return "Device registered. Store the derived secret now; it will not be shown again."
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

type VerifyRequest struct {
	DeviceID string `json:"device_id"`
	Code     int    `json:"code"`
	Source   string `json:"source,omitempty"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

func (v VerifyResponse) Message() string {
	if v.Valid {
		return "Code accepted."
	}
	return "Code rejected."
}

type DeactivateResponse struct {
	DeviceID string `json:"device_id"`
}

func (DeactivateResponse) Message() string {
	return "Device deactivated. This is permanent."
}

type DeviceResponse struct {
	DeviceID      string     `json:"device_id"`
	OwnerID       string     `json:"owner_id"`
	Active        bool       `json:"active"`
	UsageCount    int64      `json:"usage_count"`
	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
}

type AuditEventResponse struct {
	ID        int64     `json:"id,string"`
	DeviceID  string    `json:"device_id"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Source    string    `json:"source"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditListResponse struct {
	Events []AuditEventResponse `json:"events"`

	total int64
	page  int32
	size  int32
}

func (a AuditListResponse) Meta() map[string]any {
	return map[string]any{
		"total": a.total,
		"page":  a.page,
		"size":  a.size,
	}
}

type AuditExportRequest struct {
	DeviceID string    `json:"device_id"`
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`
}

type AuditExportResponse struct {
	ObjectKey        string `json:"object_key"`
	DownloadURL      string `json:"download_url"`
	Events           int64  `json:"events"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

func (AuditExportResponse) Message() string {
	return "Audit export ready."
}

type CodePreviewRequest struct {
	DerivedSecret string `json:"derived_secret"`
}

type CodePreviewResponse struct {
	Code      int    `json:"code"`
	Step      uint64 `json:"step,string"`
	ExpiresIn int64  `json:"expires_in_seconds"`
}
