package event

const DeviceRegisteredDestination string = "device_registered"

type DeviceRegisteredMessage struct {
	DeviceID   string `json:"device_id"`
	OwnerID    string `json:"owner_id"`
	Source     string `json:"source"`
	OccurredAt int64  `json:"occurred_at"`
}
