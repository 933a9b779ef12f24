// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"kyctrust/internal/models"
)

// AuditStore appends security events. Writes are dual-logged: every event
// goes to slog immediately and to the audit_events table best-effort. A
// database outage must never take the primary request path down with it,
// so persistence failures are logged and swallowed.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates a new AuditStore backed by the given database.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record appends an anonymous security event.
func (s *AuditStore) Record(ctx context.Context, action, details, ipAddress string) {
	s.RecordActor(ctx, action, nil, details, ipAddress)
}

// RecordActor appends a security event attributed to a user.
func (s *AuditStore) RecordActor(ctx context.Context, action string, actorID *uuid.UUID, details, ipAddress string) {
	slog.Info("audit event",
		"action", action,
		"actor_id", actorID,
		"details", details,
		"ip", ipAddress,
	)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (action, actor_id, details, ip_address)
		VALUES ($1, $2, $3, $4)
	`, action, actorID, details, ipAddress)
	if err != nil {
		slog.Error("failed to persist audit event", "action", action, "error", err)
	}
}

// List returns the newest events, optionally filtered by action.
func (s *AuditStore) List(action string, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, action, actor_id, details, ip_address, created_at
		FROM audit_events`
	args := []any{limit}
	if action != "" {
		query += ` WHERE action = $2`
		args = append(args, action)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.Details, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
