// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// DashUnlockCookie is the coarse dashboard gate cookie. It sits in
// front of the real session and RBAC checks: a shared code opens the
// admin area at all, then individual logins apply.
const DashUnlockCookie = "dash_unlock"

// DashUnlockValue derives the cookie value for a configured gate code.
// The cookie carries a hash, never the code itself.
func DashUnlockValue(code string) string {
	sum := sha256.Sum256([]byte("dash:" + code))
	return hex.EncodeToString(sum[:])
}

// DashGate requires the dash_unlock cookie on every request it wraps.
// An empty code disables the gate entirely.
func DashGate(code string) func(http.Handler) http.Handler {
	expected := ""
	if code != "" {
		expected = DashUnlockValue(code)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				next.ServeHTTP(w, r)
				return
			}
			cookie, err := r.Cookie(DashUnlockCookie)
			if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(expected)) != 1 {
				writeError(w, http.StatusForbidden, "dash_locked",
					"Dashboard access code required", "رمز الوصول إلى لوحة التحكم مطلوب")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
