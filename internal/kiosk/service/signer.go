package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TimeWindowSigner signs kiosk QR payloads with an HMAC bound to a
// coarse time slot. A signature is only accepted while the slot it was
// minted in is still current, so a screenshotted QR code stops working
// once the window rolls over.
type TimeWindowSigner struct {
	secret []byte
	window time.Duration
	now    func() time.Time
}

// NewTimeWindowSigner creates a signer with the given secret and window.
func NewTimeWindowSigner(secret string, window time.Duration) *TimeWindowSigner {
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &TimeWindowSigner{
		secret: []byte(secret),
		window: window,
		now:    time.Now,
	}
}

// CurrentSlot returns the slot index the current time falls in.
func (s *TimeWindowSigner) CurrentSlot() int64 {
	return s.now().UnixMilli() / s.window.Milliseconds()
}

// Sign returns the hex HMAC-SHA256 signature for an employee in a slot.
func (s *TimeWindowSigner) Sign(employeeID string, slot int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", employeeID, slot)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the signature is valid for the employee and slot,
// and the slot is still current. Comparison is constant-time.
func (s *TimeWindowSigner) Verify(employeeID string, slot int64, signature string) bool {
	if slot != s.CurrentSlot() {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", employeeID, slot)
	expected := mac.Sum(nil)

	if len(provided) != len(expected) {
		return false
	}
	return hmac.Equal(provided, expected)
}

// ExpiresAt returns the instant the given slot's signatures stop validating.
func (s *TimeWindowSigner) ExpiresAt(slot int64) time.Time {
	return time.UnixMilli((slot + 1) * s.window.Milliseconds()).UTC()
}
