// Package totp generates and validates time-based one-time password codes.
//
// Codes are plain integers in [0, 10^digits) produced by the RFC 4226 dynamic
// truncation of an HMAC-SHA1 digest, so any conforming authenticator client
// interoperates. Comparison is always on the integer value; zero-padding is a
// display concern only.
package totp

import (
	"encoding/base32"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Engine defines the contract for TOTP code operations.
type Engine interface {
	// CodeAt computes the code for the given secret at an absolute time step.
	CodeAt(secret []byte, step uint64) (int, error)
	// StepAt returns the time step that contains the given instant.
	StepAt(at time.Time) uint64
	// Verify reports whether the code is valid for the secret at the given
	// time, tolerating up to the configured window of steps of clock drift.
	Verify(secret []byte, code int, at time.Time) bool
}

// TOTP implements Engine using the Time-based One-Time Password algorithm.
type TOTP struct {
	period uint
	window uint
	digits otp.Digits
}

// New constructs a TOTP engine.
//
// If digits is not 6 or 8 it falls back to 6. If period is 0 it uses the
// common 30-second period. A window of 0 is valid and means exact-step
// matching only.
func New(digits int, period, window uint) *TOTP {
	d := otp.Digits(digits)
	if d != otp.DigitsSix && d != otp.DigitsEight {
		d = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	return &TOTP{
		period: period,
		window: window,
		digits: d,
	}
}

// CodeAt computes the integer code for the secret at an absolute time step.
func (o *TOTP) CodeAt(secret []byte, step uint64) (int, error) {
	at := time.Unix(int64(step)*int64(o.period), 0).UTC()

	code, err := totp.GenerateCodeCustom(encodeSecret(secret), at, totp.ValidateOpts{
		Period:    o.period,
		Skew:      0,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(code)
}

// StepAt returns the time step that contains the given instant.
func (o *TOTP) StepAt(at time.Time) uint64 {
	return uint64(at.Unix()) / uint64(o.period)
}

// Verify checks the code against the secret at the given time.
func (o *TOTP) Verify(secret []byte, code int, at time.Time) bool {
	if code < 0 {
		return false
	}

	rv, err := totp.ValidateCustom(o.digits.Format(int32(code)), encodeSecret(secret), at, totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.window,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})

	return rv && err == nil
}

// Digits returns the configured code length.
func (o *TOTP) Digits() int {
	return o.digits.Length()
}

func encodeSecret(secret []byte) string {
	return base32.StdEncoding.EncodeToString(secret)
}
