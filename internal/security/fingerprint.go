// Package security implements the request-level security primitives:
// device fingerprinting, database-backed rate limiting, and the static
// role/permission tables.
package security

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint derives a stable device identifier from the client IP and
// User-Agent. The same pair always yields the same value, so it can key
// rate-limit windows and detect session reuse from a different device.
func Fingerprint(ipAddress, userAgent string) string {
	sum := sha256.Sum256([]byte(ipAddress + ":" + userAgent))
	return fmt.Sprintf("%x", sum)[:32]
}
