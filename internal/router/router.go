// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// KYC Trust API. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kyctrust/internal/handlers"
	"kyctrust/internal/middleware"
	"kyctrust/internal/security"
	"kyctrust/internal/session"
	"kyctrust/internal/store"
)

// Handlers bundles every handler group the router mounts.
type Handlers struct {
	Auth       *handlers.Auth
	Content    *handlers.Content
	Reviews    *handlers.Reviews
	Users      *handlers.Users
	Analytics  *handlers.Analytics
	Security   *handlers.SecurityAdmin
	DashUnlock http.HandlerFunc
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. A non-empty dashCode puts the coarse
// dash_unlock cookie gate in front of the role-guarded admin routes.
func New(sessions *session.Store, users *store.UserStore, limiter *security.RateLimiter, dashCode string, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessions, users))

	// Health check. No auth, no rate limit.
	r.Get("/health", healthHandler)

	// Public routes. Each carries the rate limit rule matching its
	// abuse surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, security.RuleAPI))
		r.Get("/api/content/{locale}", h.Content.GetPublished)
		r.Get("/api/reviews", h.Reviews.ListPublic)
	})
	r.With(middleware.RateLimit(limiter, security.RuleReview)).
		Post("/api/reviews", h.Reviews.Submit)
	r.With(middleware.RateLimit(limiter, security.RuleAnalytics)).
		Post("/api/analytics/track", h.Analytics.Track)
	r.With(middleware.RateLimit(limiter, security.RuleLogin)).
		Post("/api/auth/login", h.Auth.Login)
	r.With(middleware.RateLimit(limiter, security.RuleLogin)).
		Post("/api/auth/dash-unlock", h.DashUnlock)

	// Authenticated area.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RateLimit(limiter, security.RuleAPI))

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
			r.Post("/change-password", h.Auth.ChangePassword)
			r.Post("/2fa/setup", h.Auth.TwoFASetup)
			r.Post("/2fa/verify", h.Auth.TwoFAVerify)
		})

		// Role-guarded routes. The permission table keys off the
		// request path prefix; GET and HEAD only need read access.
		// The dash gate sits in front when a code is configured.
		r.Group(func(r chi.Router) {
			r.Use(middleware.DashGate(dashCode))
			r.Use(middleware.RequirePermission)

			// Registered flat so the static "scheduled" and
			// "snapshots" segments are not swallowed by the public
			// {locale} route sharing this prefix.
			r.Put("/api/content/{locale}", h.Content.SaveDraft)
			r.Get("/api/content/{locale}/draft", h.Content.GetDraft)
			r.Post("/api/content/{locale}/publish", h.Content.Publish)
			r.Get("/api/content/{locale}/snapshots", h.Content.Snapshots)
			r.Post("/api/content/{locale}/schedule", h.Content.Schedule)
			r.Get("/api/content/scheduled", h.Content.ListScheduled)
			r.Post("/api/content/snapshots/{id}/restore", h.Content.Restore)

			r.Route("/api/admin/reviews", func(r chi.Router) {
				r.Get("/", h.Reviews.ListAdmin)
				r.Post("/{id}/moderate", h.Reviews.Moderate)
			})

			r.Route("/api/users", func(r chi.Router) {
				r.Get("/", h.Users.List)
				r.Post("/", h.Users.Create)
				r.Get("/{id}", h.Users.Get)
				r.Put("/{id}", h.Users.Update)
				r.Delete("/{id}", h.Users.Delete)
			})

			r.Get("/api/analytics/daily", h.Analytics.Daily)

			r.Route("/api/admin/security", func(r chi.Router) {
				r.Get("/events", h.Security.Events)
				r.Get("/sessions", h.Security.Sessions)
				r.Get("/rate-limits", h.Security.RateLimits)
				r.Get("/users/{id}/sessions", h.Security.UserSessions)
				r.Delete("/users/{id}/sessions", h.Security.RevokeAllSessions)
				r.Delete("/users/{id}/sessions/{prefix}", h.Security.RevokeSession)
				r.Post("/users/{id}/unlock", h.Security.Unlock)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
