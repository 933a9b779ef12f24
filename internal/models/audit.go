// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the security subsystem.
const (
	AuditLoginSuccess        = "login_success"
	AuditLoginFailed         = "login_failed"
	AuditLoginLocked         = "login_locked"
	AuditLoginUnknownUser    = "login_unknown_user"
	AuditLogout              = "logout"
	AuditPasswordChanged     = "password_changed"
	AuditSessionRevoked      = "session_revoked"
	AuditSessionFingerprint  = "session_fingerprint_mismatch"
	AuditRateLimitExceeded   = "rate_limit_exceeded"
	AuditRateLimitBurst      = "rate_limit_burst"
	AuditAccountUnlocked     = "account_unlocked"
	AuditContentPublished    = "content_published"
	AuditContentRestored     = "content_restored"
	AuditContentScheduled    = "content_scheduled"
	AuditReviewModerated     = "review_moderated"
	AuditUserCreated         = "user_created"
	AuditUserUpdated         = "user_updated"
	AuditUserDeactivated     = "user_deactivated"
	AuditTwoFAEnabled        = "two_fa_enabled"
)

// AuditEvent is an append-only security event row. Events are never
// updated or deleted through the application.
type AuditEvent struct {
	ID        uuid.UUID  `json:"id"`
	Action    string     `json:"action"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Details   string     `json:"details"`
	IPAddress string     `json:"ip_address"`
	CreatedAt time.Time  `json:"created_at"`
}
