// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"kyctrust/internal/models"
)

// AnalyticsStore maintains per-day traffic counters. Events are rolled up
// into the analytics_daily row for today with a single upsert per hit.
type AnalyticsStore struct {
	db *sql.DB
}

// NewAnalyticsStore creates a new AnalyticsStore backed by the given database.
func NewAnalyticsStore(db *sql.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// Event kinds tracked by the public site.
const (
	EventVisit            = "visit"
	EventPageView         = "page_view"
	EventReviewSubmission = "review_submission"
)

// Track increments today's counter for the given event kind.
func (s *AnalyticsStore) Track(event string) error {
	var col string
	switch event {
	case EventVisit:
		col = "visits"
	case EventPageView:
		col = "page_views"
	case EventReviewSubmission:
		col = "review_submissions"
	default:
		return fmt.Errorf("unknown analytics event %q", event)
	}

	_, err := s.db.Exec(`
		INSERT INTO analytics_daily (day, `+col+`)
		VALUES (CURRENT_DATE, 1)
		ON CONFLICT (day)
		DO UPDATE SET `+col+` = analytics_daily.`+col+` + 1
	`)
	if err != nil {
		return fmt.Errorf("track %s: %w", event, err)
	}
	return nil
}

// Daily returns the last n days of stats, oldest first. Days without
// traffic have no row; callers fill gaps if they need a dense series.
func (s *AnalyticsStore) Daily(days int) ([]models.DailyStat, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	rows, err := s.db.Query(`
		SELECT day, visits, page_views, review_submissions
		FROM analytics_daily
		WHERE day >= CURRENT_DATE - $1::int
		ORDER BY day ASC
	`, days)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DailyStat
	for rows.Next() {
		var st models.DailyStat
		var day time.Time
		if err := rows.Scan(&day, &st.Visits, &st.PageViews, &st.ReviewSubmissions); err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		st.Day = day
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
