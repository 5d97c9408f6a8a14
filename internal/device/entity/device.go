package entity

import "time"

// Device is a registered authenticator device.
//
// The per-device secret itself is never stored; only its fingerprint is, so a
// dump of this table cannot be used to mint valid codes.
type Device struct {
	DeviceID          string
	OwnerID           string
	SecretFingerprint string
	Active            bool
	UsageCount        int64
	CreatedAt         time.Time
	DeactivatedAt     *time.Time
	LastUsedAt        *time.Time
}

// AuditEvent is one append-only row of the device audit trail.
type AuditEvent struct {
	ID        int64
	DeviceID  string
	Action    AuditAction
	Success   bool
	Source    string
	Detail    string
	CreatedAt time.Time
}

// AuditListFilterData narrows and pages an audit trail read.
type AuditListFilterData struct {
	DeviceID string
	Actions  []AuditAction
	DateFrom time.Time
	DateTo   time.Time
	Size     int32
	Offset   int32

	IsFilterByAction bool
	IsFilterByDate   bool
}
