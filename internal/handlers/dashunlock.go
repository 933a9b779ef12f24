// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"crypto/subtle"
	"net/http"

	"kyctrust/internal/middleware"
)

// dashUnlockTTL is how long one entered code keeps the dashboard open.
const dashUnlockTTL = 12 * 60 * 60

type dashUnlockRequest struct {
	Code string `json:"code" validate:"required"`
}

// DashUnlock exchanges the shared dashboard code for the dash_unlock
// cookie. With no code configured the gate is open and this endpoint
// just says so.
func DashUnlock(code string, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if code == "" {
			respondData(w, http.StatusOK, map[string]bool{"unlocked": true})
			return
		}

		var req dashUnlockRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			respondError(w, http.StatusBadRequest, "validation",
				"Access code is required", "رمز الوصول مطلوب")
			return
		}

		if subtle.ConstantTimeCompare([]byte(req.Code), []byte(code)) != 1 {
			respondError(w, http.StatusForbidden, "invalid_code",
				"Invalid access code", "رمز الوصول غير صحيح")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.DashUnlockCookie,
			Value:    middleware.DashUnlockValue(code),
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookies,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   dashUnlockTTL,
		})
		respondData(w, http.StatusOK, map[string]bool{"unlocked": true})
	}
}
