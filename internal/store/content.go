// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"kyctrust/internal/models"
)

// snapshotColumns lists all columns for content_snapshots SELECTs.
const snapshotColumns = `id, locale, bundle, label, created_by, created_at`

// ContentStore manages published content bundles, their immutable
// snapshots and the scheduled publish queue.
type ContentStore struct {
	db       *sql.DB
	settings *SettingStore
}

// NewContentStore creates a new ContentStore backed by the given database.
func NewContentStore(db *sql.DB, settings *SettingStore) *ContentStore {
	return &ContentStore{db: db, settings: settings}
}

// Published returns the live bundle for a locale, nil when none was ever
// published.
func (s *ContentStore) Published(locale models.Locale) (*models.Bundle, error) {
	var bundle models.Bundle
	found, err := s.settings.Get(models.PublishedContentKey(locale), &bundle)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &bundle, nil
}

// Draft returns the editor's working copy for a locale, nil when none
// was ever saved.
func (s *ContentStore) Draft(locale models.Locale) (*models.Bundle, error) {
	var bundle models.Bundle
	found, err := s.settings.Get(models.DraftContentKey(locale), &bundle)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &bundle, nil
}

// SaveDraft upserts the working copy for a locale. Drafts leave no
// snapshot; only publishing does.
func (s *ContentStore) SaveDraft(locale models.Locale, bundle *models.Bundle) error {
	return s.settings.Set(models.DraftContentKey(locale), bundle)
}

// Publish makes the bundle live: it upserts the published settings row
// and writes an immutable snapshot in one transaction, so the snapshot
// history always contains every bundle that ever went live.
func (s *ContentStore) Publish(locale models.Locale, bundle *models.Bundle, label string, by uuid.UUID) (*models.Snapshot, error) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("publish begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		models.PublishedContentKey(locale), raw)
	if err != nil {
		return nil, fmt.Errorf("publish setting: %w", err)
	}

	snap, err := scanSnapshot(tx.QueryRow(`
		INSERT INTO content_snapshots (locale, bundle, label, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING `+snapshotColumns,
		string(locale), raw, label, by))
	if err != nil {
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("publish commit: %w", err)
	}
	return snap, nil
}

func scanSnapshot(scanner interface{ Scan(...any) error }) (*models.Snapshot, error) {
	var snap models.Snapshot
	var raw []byte
	err := scanner.Scan(&snap.ID, &snap.Locale, &raw, &snap.Label, &snap.CreatedBy, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &snap.Bundle); err != nil {
		return nil, fmt.Errorf("decode snapshot bundle: %w", err)
	}
	return &snap, nil
}

// Snapshots lists a locale's snapshots, newest first.
func (s *ContentStore) Snapshots(locale models.Locale, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT `+snapshotColumns+`
		FROM content_snapshots
		WHERE locale = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(locale), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

// FindSnapshot returns one snapshot by ID, nil if not found.
func (s *ContentStore) FindSnapshot(id uuid.UUID) (*models.Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(`
		SELECT `+snapshotColumns+` FROM content_snapshots WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	return snap, nil
}

// Schedule queues a bundle for future publishing.
func (s *ContentStore) Schedule(sp *models.ScheduledPublish) (*models.ScheduledPublish, error) {
	raw, err := json.Marshal(sp.Bundle)
	if err != nil {
		return nil, fmt.Errorf("encode scheduled bundle: %w", err)
	}

	err = s.db.QueryRow(`
		INSERT INTO scheduled_content (locale, bundle, publish_at, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, string(sp.Locale), raw, sp.PublishAt, sp.CreatedBy).Scan(&sp.ID, &sp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("schedule content: %w", err)
	}
	return sp, nil
}

// ListScheduled returns pending scheduled publishes, soonest first.
func (s *ContentStore) ListScheduled() ([]models.ScheduledPublish, error) {
	rows, err := s.db.Query(`
		SELECT id, locale, bundle, publish_at, published_at, created_by, created_at
		FROM scheduled_content
		WHERE published_at IS NULL
		ORDER BY publish_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list scheduled: %w", err)
	}
	return collectScheduled(rows)
}

// DueScheduled returns unpublished rows whose publish time has passed.
func (s *ContentStore) DueScheduled() ([]models.ScheduledPublish, error) {
	rows, err := s.db.Query(`
		SELECT id, locale, bundle, publish_at, published_at, created_by, created_at
		FROM scheduled_content
		WHERE published_at IS NULL AND publish_at <= NOW()
		ORDER BY publish_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("due scheduled: %w", err)
	}
	return collectScheduled(rows)
}

func collectScheduled(rows *sql.Rows) ([]models.ScheduledPublish, error) {
	defer rows.Close()
	var out []models.ScheduledPublish
	for rows.Next() {
		var sp models.ScheduledPublish
		var raw []byte
		if err := rows.Scan(&sp.ID, &sp.Locale, &raw, &sp.PublishAt, &sp.PublishedAt, &sp.CreatedBy, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled: %w", err)
		}
		if err := json.Unmarshal(raw, &sp.Bundle); err != nil {
			return nil, fmt.Errorf("decode scheduled bundle: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// MarkPublished stamps a scheduled row as done.
func (s *ContentStore) MarkPublished(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE scheduled_content SET published_at = NOW() WHERE id = $1 AND published_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}
