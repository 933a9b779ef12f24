// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"kyctrust/internal/middleware"
	"kyctrust/internal/models"
	"kyctrust/internal/security"
	"kyctrust/internal/session"
	"kyctrust/internal/store"
)

// SecurityAdmin groups the admin security dashboard handlers: audit
// events, session management, rate-limit standing and lockout recovery.
type SecurityAdmin struct {
	users    *store.UserStore
	sessions *session.Store
	limiter  *security.RateLimiter
	audit    *store.AuditStore
}

// NewSecurityAdmin creates a new SecurityAdmin handler group.
func NewSecurityAdmin(users *store.UserStore, sessions *session.Store, limiter *security.RateLimiter, audit *store.AuditStore) *SecurityAdmin {
	return &SecurityAdmin{users: users, sessions: sessions, limiter: limiter, audit: audit}
}

// Events lists recent audit events, optionally filtered with ?action=
// and bounded with ?limit=.
func (h *SecurityAdmin) Events(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	events, err := h.audit.List(r.URL.Query().Get("action"), limit)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if events == nil {
		events = []models.AuditEvent{}
	}
	respondData(w, http.StatusOK, events)
}

// sessionView hides the raw token from list output; revocation goes
// through the truncated prefix instead.
type sessionView struct {
	TokenPrefix  string `json:"token_prefix"`
	UserID       string `json:"user_id"`
	IPAddress    string `json:"ip_address"`
	DeviceLabel  string `json:"device_label"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
	ExpiresAt    string `json:"expires_at"`
}

func sessionViews(sessions []models.Session) []sessionView {
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			TokenPrefix:  s.Token[:8],
			UserID:       s.UserID.String(),
			IPAddress:    s.IPAddress,
			DeviceLabel:  s.DeviceLabel,
			CreatedAt:    s.CreatedAt.Format("2006-01-02 15:04:05"),
			LastActivity: s.LastActivity.Format("2006-01-02 15:04:05"),
			ExpiresAt:    s.ExpiresAt.Format("2006-01-02 15:04:05"),
		})
	}
	return views
}

// Sessions lists every unexpired session across all users.
func (h *SecurityAdmin) Sessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	sessions, err := h.sessions.ListActive(r.Context(), limit)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, http.StatusOK, sessionViews(sessions))
}

// RateLimits reports the keys currently holding rate-limit rows.
func (h *SecurityAdmin) RateLimits(w http.ResponseWriter, r *http.Request) {
	keys, err := h.limiter.Active(r.Context())
	if err != nil {
		respondInternal(w, err)
		return
	}
	if keys == nil {
		keys = []security.ActiveKey{}
	}
	respondData(w, http.StatusOK, keys)
}

// UserSessions lists a user's active sessions.
func (h *SecurityAdmin) UserSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessions.ListForUser(r.Context(), id)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, http.StatusOK, sessionViews(sessions))
}

// RevokeSession deletes the session whose token starts with the given
// prefix for the given user.
func (h *SecurityAdmin) RevokeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	prefix := chi.URLParam(r, "prefix")
	if len(prefix) < 8 || len(prefix) > 64 {
		respondError(w, http.StatusBadRequest, "bad_prefix",
			"Token prefix must be 8 to 64 characters", "بادئة الرمز يجب أن تكون بين 8 و64 حرفاً")
		return
	}

	sessions, err := h.sessions.ListForUser(r.Context(), id)
	if err != nil {
		respondInternal(w, err)
		return
	}

	for _, s := range sessions {
		if strings.HasPrefix(s.Token, prefix) {
			if err := h.sessions.DeleteByToken(r.Context(), s.Token); err != nil {
				respondInternal(w, err)
				return
			}
			actor := middleware.UserFromCtx(r.Context())
			h.audit.RecordActor(r.Context(), models.AuditSessionRevoked, &actor.ID,
				"user="+id.String()+" token="+prefix, middleware.ClientIP(r))
			respondData(w, http.StatusOK, map[string]bool{"revoked": true})
			return
		}
	}

	respondError(w, http.StatusNotFound, "not_found",
		"Session not found", "الجلسة غير موجودة")
}

// RevokeAllSessions force-logs-out a user everywhere.
func (h *SecurityAdmin) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	n, err := h.sessions.DeleteAllForUser(r.Context(), id)
	if err != nil {
		respondInternal(w, err)
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	h.audit.RecordActor(r.Context(), models.AuditSessionRevoked, &actor.ID,
		"user="+id.String()+" all sessions", middleware.ClientIP(r))

	respondData(w, http.StatusOK, map[string]int64{"revoked": n})
}

// Unlock clears a user's lockout state ahead of locked_until.
func (h *SecurityAdmin) Unlock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.users.FindByID(id)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "not_found",
			"User not found", "المستخدم غير موجود")
		return
	}

	if err := h.users.Unlock(id); err != nil {
		respondInternal(w, err)
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	h.audit.RecordActor(r.Context(), models.AuditAccountUnlocked, &actor.ID,
		"unlocked "+user.Email, middleware.ClientIP(r))

	respondData(w, http.StatusOK, map[string]bool{"unlocked": true})
}
