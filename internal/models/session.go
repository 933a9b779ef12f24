// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxSessionsPerUser caps concurrent sessions; creating one past the cap
// evicts the oldest session for that user.
const MaxSessionsPerUser = 5

// SessionTTL is how long a session stays valid without being renewed.
const SessionTTL = 24 * time.Hour

// Session represents an authenticated browser session persisted as a
// database row. The token is the opaque value stored in the cookie.
type Session struct {
	Token        string    `json:"token"`
	UserID       uuid.UUID `json:"user_id"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	DeviceLabel  string    `json:"device_label"`
	Fingerprint  string    `json:"fingerprint"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired returns true if the session is past its expiry time.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
