package validator

// Validator validates a struct against its declared rules.
type Validator interface {
	// Validate returns nil when data passes validation. On failure it returns
	// an implementation-specific error carrying per-field messages.
	Validate(data any) error
}
