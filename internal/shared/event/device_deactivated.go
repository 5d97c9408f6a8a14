package event

const DeviceDeactivatedDestination string = "device_deactivated"

type DeviceDeactivatedMessage struct {
	DeviceID   string `json:"device_id"`
	OwnerID    string `json:"owner_id"`
	Source     string `json:"source"`
	OccurredAt int64  `json:"occurred_at"`
}
