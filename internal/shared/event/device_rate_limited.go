package event

const DeviceRateLimitedDestination string = "device_rate_limited"

type DeviceRateLimitedMessage struct {
	DeviceID   string `json:"device_id"`
	Source     string `json:"source"`
	Attempts   int64  `json:"attempts"`
	OccurredAt int64  `json:"occurred_at"`
}
