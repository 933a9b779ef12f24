// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kyctrust/internal/models"
)

// reviewColumns lists all columns for reviews SELECTs.
const reviewColumns = `id, name, rating, comment, status, moderated_at, moderated_by, created_at`

// ErrAlreadyModerated is returned when a moderation action targets a
// review that already left the pending state.
var ErrAlreadyModerated = fmt.Errorf("review already moderated")

// ReviewStore handles customer review persistence and moderation.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore creates a new ReviewStore backed by the given database.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func scanReview(scanner interface{ Scan(...any) error }) (*models.Review, error) {
	var r models.Review
	err := scanner.Scan(
		&r.ID, &r.Name, &r.Rating, &r.Comment, &r.Status,
		&r.ModeratedAt, &r.ModeratedBy, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new review. Status always starts as pending no matter
// what the caller submits.
func (s *ReviewStore) Create(name string, rating int, comment string) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRow(`
		INSERT INTO reviews (name, rating, comment, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING `+reviewColumns,
		name, rating, comment))
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return r, nil
}

// FindByID returns a single review, nil if not found.
func (s *ReviewStore) FindByID(id uuid.UUID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRow(`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return r, nil
}

// ListApproved returns approved reviews, newest first. This feeds the
// public endpoint, so nothing pending or rejected ever appears here.
func (s *ReviewStore) ListApproved() ([]models.Review, error) {
	return s.list(`SELECT ` + reviewColumns + ` FROM reviews WHERE status = 'approved' ORDER BY created_at DESC`)
}

// ListAll returns every review regardless of status, newest first.
func (s *ReviewStore) ListAll() ([]models.Review, error) {
	return s.list(`SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC`)
}

// ListByStatus returns reviews filtered to one moderation status.
func (s *ReviewStore) ListByStatus(status models.ReviewStatus) ([]models.Review, error) {
	rows, err := s.db.Query(`SELECT `+reviewColumns+` FROM reviews WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("list reviews by status: %w", err)
	}
	return collectReviews(rows)
}

func (s *ReviewStore) list(query string) ([]models.Review, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return collectReviews(rows)
}

func collectReviews(rows *sql.Rows) ([]models.Review, error) {
	defer rows.Close()
	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// Moderate moves a pending review to approved or rejected. The WHERE
// clause only matches pending rows, which makes the transition one-way at
// the database level regardless of application state.
func (s *ReviewStore) Moderate(id uuid.UUID, status models.ReviewStatus, moderator uuid.UUID) (*models.Review, error) {
	if status != models.ReviewStatusApproved && status != models.ReviewStatusRejected {
		return nil, fmt.Errorf("invalid moderation target %q", status)
	}

	r, err := scanReview(s.db.QueryRow(`
		UPDATE reviews
		SET status = $1, moderated_at = NOW(), moderated_by = $2
		WHERE id = $3 AND status = 'pending'
		RETURNING `+reviewColumns,
		status, moderator, id))
	if err == sql.ErrNoRows {
		// Either missing or already moderated; tell the two apart.
		existing, ferr := s.FindByID(id)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, nil
		}
		return nil, ErrAlreadyModerated
	}
	if err != nil {
		return nil, fmt.Errorf("moderate review: %w", err)
	}
	return r, nil
}

// CountByStatus returns review counts keyed by status for the dashboard.
func (s *ReviewStore) CountByStatus() (map[models.ReviewStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM reviews GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ReviewStatus]int)
	for rows.Next() {
		var status models.ReviewStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan review count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
