// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler runs the background jobs: promoting scheduled
// content once its publish time passes, and purging expired sessions
// and stale rate limit rows.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"kyctrust/internal/cache"
	"kyctrust/internal/models"
	"kyctrust/internal/security"
	"kyctrust/internal/session"
	"kyctrust/internal/store"
)

type Scheduler struct {
	cron     *cron.Cron
	content  *store.ContentStore
	sessions *session.Store
	limiter  *security.RateLimiter
	audit    *store.AuditStore
	cache    *cache.ContentCache
}

func New(content *store.ContentStore, sessions *session.Store, limiter *security.RateLimiter, audit *store.AuditStore, contentCache *cache.ContentCache) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		content:  content,
		sessions: sessions,
		limiter:  limiter,
		audit:    audit,
		cache:    contentCache,
	}
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.publishDue); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.cleanup); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		slog.Warn("scheduler stop timed out")
	}
}

// publishDue promotes every scheduled publish whose time has passed.
// A failed promotion is logged and retried on the next tick.
func (s *Scheduler) publishDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	due, err := s.content.DueScheduled()
	if err != nil {
		slog.Error("scheduler: list due content", "error", err)
		return
	}

	for _, sp := range due {
		snap, err := s.content.Publish(sp.Locale, &sp.Bundle, "scheduled publish", sp.CreatedBy)
		if err != nil {
			slog.Error("scheduler: publish due content", "id", sp.ID, "locale", sp.Locale, "error", err)
			continue
		}
		if err := s.content.MarkPublished(sp.ID); err != nil {
			slog.Error("scheduler: mark published", "id", sp.ID, "error", err)
			continue
		}

		s.cache.Invalidate(ctx, sp.Locale)
		s.audit.RecordActor(ctx, models.AuditContentPublished, &sp.CreatedBy,
			"scheduled publish "+sp.ID.String()+" snapshot "+snap.ID.String(), "")
		slog.Info("scheduled content published", "id", sp.ID, "locale", sp.Locale, "snapshot", snap.ID)
	}
}

// cleanup drops expired sessions and stale rate limit rows.
func (s *Scheduler) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if n, err := s.sessions.PurgeExpired(ctx); err != nil {
		slog.Error("scheduler: purge sessions", "error", err)
	} else if n > 0 {
		slog.Info("purged expired sessions", "count", n)
	}

	if n, err := s.limiter.Purge(ctx); err != nil {
		slog.Error("scheduler: purge rate limits", "error", err)
	} else if n > 0 {
		slog.Info("purged rate limit rows", "count", n)
	}
}
