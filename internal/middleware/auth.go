// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"kyctrust/internal/models"
	"kyctrust/internal/security"
	"kyctrust/internal/session"
	"kyctrust/internal/store"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the verified session.
	SessionKey contextKey = "session"

	// UserKey is the context key for the authenticated user.
	UserKey contextKey = "user"
)

// LoadSession verifies the session cookie against the database and, when
// valid, stores the session and its user in the request context. It does
// NOT enforce authentication; RequireAuth and RequirePermission do.
func LoadSession(sessions *session.Store, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Verify(r.Context(), r, ClientIP(r), r.UserAgent())
			if err != nil {
				slog.Warn("session verify failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(sess.UserID)
			if err != nil || user == nil || !user.Active {
				// A session pointing at a missing or deactivated user is
				// treated as unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with a 401.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized",
				"Authentication required", "يجب تسجيل الدخول")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission enforces the route-prefix permission table: the
// authenticated user's role must hold the permission mapped to the
// request path. Unguarded paths pass through untouched.
func RequirePermission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perm := security.RequiredPermission(r.URL.Path)
		if perm == nil {
			next.ServeHTTP(w, r)
			return
		}

		user := UserFromCtx(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized",
				"Authentication required", "يجب تسجيل الدخول")
			return
		}

		// Reads through a guarded prefix only need the read action.
		action := perm.Action
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			action = security.ActionRead
		}

		if !security.HasPermission(user.Role, perm.Resource, action) {
			writeError(w, http.StatusForbidden, "forbidden",
				"Insufficient permissions", "صلاحيات غير كافية")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the verified session from the request context.
// Returns nil if no session is loaded.
func SessionFromCtx(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(SessionKey).(*models.Session)
	return sess
}

// UserFromCtx extracts the authenticated user from the request context.
// Returns nil if the request is unauthenticated.
func UserFromCtx(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}

// writeError emits the API's bilingual JSON error envelope.
func writeError(w http.ResponseWriter, status int, code, message, messageAr string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":       code,
			"message":    message,
			"message_ar": messageAr,
		},
	})
}
