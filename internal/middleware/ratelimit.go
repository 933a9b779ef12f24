// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"net/http"

	"kyctrust/internal/security"
)

// RateLimit applies a rate-limit rule keyed by the caller's device
// fingerprint. Limited requests get a 429 with a Retry-After header whose
// value scales with how far over the limit the caller is.
func RateLimit(limiter *security.RateLimiter, rule security.LimitRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			key := security.Fingerprint(ip, r.UserAgent())

			res := limiter.Check(r.Context(), rule, key, ip)
			if !res.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())))
				writeError(w, http.StatusTooManyRequests, "rate_limited",
					"Too many requests, slow down", "عدد كبير من الطلبات، حاول لاحقاً")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
