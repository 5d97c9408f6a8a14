package uid

import "github.com/google/uuid"

// UUID generates RFC 4122 UUID strings. It is used for correlation IDs
// and export object names, where time-ordered IDs keep listings readable.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUIDv7 string, falling back to v4 when the
// monotonic clock source is unavailable.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
