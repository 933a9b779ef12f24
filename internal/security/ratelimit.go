// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package security

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// burstThreshold is the minimum spacing between two requests from one
// fingerprint before the pair is flagged as a burst.
const burstThreshold = 100 * time.Millisecond

// maxRetryAfterFactor caps the computed retry-after at this multiple of
// the base window.
const maxRetryAfterFactor = 5

// LimitRule describes one rate-limit class: how many requests a single
// fingerprint may make within the window.
type LimitRule struct {
	Type        string
	MaxRequests int
	Window      time.Duration
}

// Default rules per endpoint class.
var (
	RuleLogin     = LimitRule{Type: "login", MaxRequests: 5, Window: 15 * time.Minute}
	RuleReview    = LimitRule{Type: "review", MaxRequests: 10, Window: time.Hour}
	RuleAnalytics = LimitRule{Type: "analytics", MaxRequests: 60, Window: time.Minute}
	RuleAPI       = LimitRule{Type: "api", MaxRequests: 120, Window: time.Minute}
)

// Result is the outcome of a rate-limit check.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// EventRecorder receives security events worth persisting. Recording
// must never block or fail the caller.
type EventRecorder interface {
	Record(ctx context.Context, action, details, ipAddress string)
}

// RateLimiter counts requests per (type, fingerprint) key as rows in the
// rate_limits table, shared by every instance of the application. The
// insert-then-count sequence is not atomic: under a concurrent burst a
// request's count may lag or lead the attempts landing around it, so
// admission near the limit is approximate. No transaction is taken; the
// skew is bounded by the burst size, not corrupting.
type RateLimiter struct {
	db        *sql.DB
	events    EventRecorder
	whitelist map[string]struct{}
}

// NewRateLimiter creates a limiter backed by the given database.
// Whitelisted IPs bypass every rule.
func NewRateLimiter(db *sql.DB, events EventRecorder, whitelist []string) *RateLimiter {
	wl := make(map[string]struct{}, len(whitelist))
	for _, ip := range whitelist {
		wl[ip] = struct{}{}
	}
	return &RateLimiter{db: db, events: events, whitelist: wl}
}

// Check applies the rule to the key (normally a device fingerprint).
// Every attempt lands as a row, allowed or not, so a key that keeps
// hammering keeps growing its in-window count and its retry-after.
// Database failures let the request through: the limiter protects
// capacity, it must never consume it by becoming a point of failure
// itself.
func (rl *RateLimiter) Check(ctx context.Context, rule LimitRule, key, ipAddress string) Result {
	if _, ok := rl.whitelist[ipAddress]; ok {
		return Result{Allowed: true}
	}

	cutoff := time.Now().Add(-rule.Window)

	// Lazy pruning: requests outside the window no longer count.
	if _, err := rl.db.ExecContext(ctx, `
		DELETE FROM rate_limits WHERE type = $1 AND key = $2 AND created_at < $3
	`, rule.Type, key, cutoff); err != nil {
		slog.Warn("rate limit prune failed", "type", rule.Type, "error", err)
		return Result{Allowed: true}
	}

	// Burst detection compares against the previous attempt's timestamp.
	var newest sql.NullTime
	err := rl.db.QueryRowContext(ctx, `
		SELECT MAX(created_at) FROM rate_limits WHERE type = $1 AND key = $2
	`, rule.Type, key).Scan(&newest)
	if err != nil {
		slog.Warn("rate limit lookup failed", "type", rule.Type, "error", err)
		return Result{Allowed: true}
	}
	if newest.Valid && time.Since(newest.Time) < burstThreshold {
		rl.events.Record(ctx, "rate_limit_burst",
			fmt.Sprintf("type=%s key=%s spacing=%s", rule.Type, key, time.Since(newest.Time)),
			ipAddress)
	}

	if _, err := rl.db.ExecContext(ctx, `
		INSERT INTO rate_limits (type, key, ip_address) VALUES ($1, $2, $3)
	`, rule.Type, key, ipAddress); err != nil {
		slog.Warn("rate limit record failed", "type", rule.Type, "error", err)
	}

	var count int
	err = rl.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM rate_limits WHERE type = $1 AND key = $2
	`, rule.Type, key).Scan(&count)
	if err != nil {
		slog.Warn("rate limit count failed", "type", rule.Type, "error", err)
		return Result{Allowed: true}
	}

	if count > rule.MaxRequests {
		retry := RetryAfter(rule, count)
		rl.events.Record(ctx, "rate_limit_exceeded",
			fmt.Sprintf("type=%s key=%s count=%d max=%d", rule.Type, key, count, rule.MaxRequests),
			ipAddress)
		return Result{Allowed: false, RetryAfter: retry}
	}

	return Result{Allowed: true}
}

// RetryAfter computes how long a limited caller should wait. The wait
// grows with how far over the limit the caller is and is capped at
// maxRetryAfterFactor times the base window.
func RetryAfter(rule LimitRule, count int) time.Duration {
	factor := float64(count) / float64(rule.MaxRequests)
	if factor > maxRetryAfterFactor {
		factor = maxRetryAfterFactor
	}
	return time.Duration(float64(rule.Window) * factor)
}

// ActiveKey is one rate-limited key's current standing: how many
// requests it has in the table and when the latest landed.
type ActiveKey struct {
	Type        string    `json:"type"`
	Key         string    `json:"key"`
	Count       int       `json:"count"`
	LastRequest time.Time `json:"last_request"`
}

// Active returns the keys with recorded requests, busiest first. Rows
// outside every window are pruned by Purge, so stale keys age out.
func (rl *RateLimiter) Active(ctx context.Context) ([]ActiveKey, error) {
	rows, err := rl.db.QueryContext(ctx, `
		SELECT type, key, COUNT(*), MAX(created_at)
		FROM rate_limits
		GROUP BY type, key
		ORDER BY COUNT(*) DESC
		LIMIT 200
	`)
	if err != nil {
		return nil, fmt.Errorf("rate limit active: %w", err)
	}
	defer rows.Close()

	var keys []ActiveKey
	for rows.Next() {
		var k ActiveKey
		if err := rows.Scan(&k.Type, &k.Key, &k.Count, &k.LastRequest); err != nil {
			return nil, fmt.Errorf("scan rate limit key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Purge deletes rows older than the longest configured window. The
// scheduler calls this so the table does not grow unbounded for keys
// that never return.
func (rl *RateLimiter) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-maxWindow())
	res, err := rl.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("rate limit purge: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func maxWindow() time.Duration {
	max := RuleLogin.Window
	for _, r := range []LimitRule{RuleReview, RuleAnalytics, RuleAPI} {
		if r.Window > max {
			max = r.Window
		}
	}
	return max
}
