// Package keyderive derives per-device secrets from a single master secret.
//
// Nothing derived here is ever persisted: the server recomputes the secret on
// every verification, so a compromised datastore never yields usable keys.
package keyderive

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// SecretSize is the length in bytes of every derived secret.
const SecretSize = sha256.Size

// ErrEmptyMasterSecret indicates the deriver was built without a master secret.
//
// This is a configuration error and should abort startup, not be handled per
// request.
var ErrEmptyMasterSecret = errors.New("keyderive: master secret must not be empty")

// Deriver deterministically derives a per-device secret from a device ID.
type Deriver interface {
	// Derive returns the 32-byte secret bound to the device ID.
	Derive(deviceID string) []byte
}

// HMACDeriver implements Deriver using HMAC-SHA256 keyed by the master secret.
type HMACDeriver struct {
	master []byte
}

// NewHMACDeriver creates a Deriver keyed with the master secret.
func NewHMACDeriver(master []byte) (*HMACDeriver, error) {
	if len(master) == 0 {
		return nil, ErrEmptyMasterSecret
	}

	return &HMACDeriver{master: master}, nil
}

// Derive returns HMAC-SHA256(master, device_id).
//
// The output is deterministic: the same device ID always maps to the same
// secret, and distinct device IDs yield independent-looking secrets.
func (d *HMACDeriver) Derive(deviceID string) []byte {
	h := hmac.New(sha256.New, d.master)
	h.Write([]byte(deviceID))
	return h.Sum(nil)
}
