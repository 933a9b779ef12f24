// Package session provides Postgres-backed HTTP session management.
// Sessions are identified by a secure cookie whose value is an opaque
// random token stored as a row in the sessions table, so every instance
// of the application sees the same session state.
package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"kyctrust/internal/models"
	"kyctrust/internal/security"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "session_token"

	// idLength is the byte length of the random session token (32 bytes = 64 hex chars).
	idLength = 32
)

// EventRecorder receives security events such as fingerprint drift.
type EventRecorder interface {
	RecordActor(ctx context.Context, action string, actorID *uuid.UUID, details, ipAddress string)
}

// Store manages session lifecycle in the database.
type Store struct {
	db            *sql.DB
	events        EventRecorder
	ttl           time.Duration
	secureCookies bool
}

// NewStore creates a session store backed by the given database. When
// secureCookies is true, session cookies are marked Secure (HTTPS-only).
func NewStore(db *sql.DB, events EventRecorder, secureCookies bool) *Store {
	return &Store{
		db:            db,
		events:        events,
		ttl:           models.SessionTTL,
		secureCookies: secureCookies,
	}
}

// Create generates a new session for the user, persists it, enforces the
// concurrent-session cap and sets the session cookie on the response.
// Creating a session past the cap deletes the user's oldest session.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, user *models.User, ipAddress, userAgent string) (*models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}

	sess := &models.Session{
		Token:       token,
		UserID:      user.ID,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		DeviceLabel: deviceLabel(userAgent),
		Fingerprint: security.Fingerprint(ipAddress, userAgent),
		ExpiresAt:   time.Now().Add(s.ttl),
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (token, user_id, ip_address, user_agent, device_label, fingerprint, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, last_activity
	`, sess.Token, sess.UserID, sess.IPAddress, sess.UserAgent, sess.DeviceLabel, sess.Fingerprint, sess.ExpiresAt).
		Scan(&sess.CreatedAt, &sess.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	// Evict oldest sessions beyond the cap. Ordered by creation time, so
	// the least-recently-created session goes first.
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE user_id = $1 AND token NOT IN (
			SELECT token FROM sessions
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`, sess.UserID, models.MaxSessionsPerUser)
	if err != nil {
		return nil, fmt.Errorf("session cap: %w", err)
	}

	s.setCookie(w, token, int(s.ttl.Seconds()))
	return sess, nil
}

// Verify loads the session named by the request cookie. Expired sessions
// are rejected and lazily deleted. A device fingerprint that no longer
// matches the one stored at creation is recorded as a security event but
// does not block the request. Returns nil when no valid session exists.
func (s *Store) Verify(ctx context.Context, r *http.Request, ipAddress, userAgent string) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	sess, err := s.FindByToken(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	if sess.Expired() {
		s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, sess.Token)
		return nil, nil
	}

	if fp := security.Fingerprint(ipAddress, userAgent); fp != sess.Fingerprint {
		// Detection only: the token itself still proves possession.
		s.events.RecordActor(ctx, models.AuditSessionFingerprint, &sess.UserID,
			fmt.Sprintf("stored=%s seen=%s", sess.Fingerprint, fp), ipAddress)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE sessions SET last_activity = NOW() WHERE token = $1`, sess.Token)
	if err != nil {
		return nil, fmt.Errorf("session touch: %w", err)
	}

	return sess, nil
}

// FindByToken returns the session row for a token, nil if not found.
func (s *Store) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	sess := &models.Session{}
	err := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, ip_address, user_agent, device_label, fingerprint,
		       created_at, last_activity, expires_at
		FROM sessions WHERE token = $1
	`, token).Scan(
		&sess.Token, &sess.UserID, &sess.IPAddress, &sess.UserAgent, &sess.DeviceLabel,
		&sess.Fingerprint, &sess.CreatedAt, &sess.LastActivity, &sess.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	return sess, nil
}

// ListForUser returns a user's sessions, newest first.
func (s *Store) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, user_id, ip_address, user_agent, device_label, fingerprint,
		       created_at, last_activity, expires_at
		FROM sessions WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(
			&sess.Token, &sess.UserID, &sess.IPAddress, &sess.UserAgent, &sess.DeviceLabel,
			&sess.Fingerprint, &sess.CreatedAt, &sess.LastActivity, &sess.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListActive returns every unexpired session, most recent activity
// first. Feeds the security dashboard's site-wide session table.
func (s *Store) ListActive(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, user_id, ip_address, user_agent, device_label, fingerprint,
		       created_at, last_activity, expires_at
		FROM sessions WHERE expires_at > NOW()
		ORDER BY last_activity DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(
			&sess.Token, &sess.UserID, &sess.IPAddress, &sess.UserAgent, &sess.DeviceLabel,
			&sess.Fingerprint, &sess.CreatedAt, &sess.LastActivity, &sess.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Destroy removes the session named by the request cookie and clears the
// cookie. A missing cookie is not an error.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, cookie.Value); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	s.setCookie(w, "", -1)
	return nil
}

// DeleteByToken revokes a single session (admin revocation).
func (s *Store) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every session belonging to a user. Called on
// password change so no old token survives the new credential.
func (s *Store) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("session purge user: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PurgeExpired deletes sessions past their expiry. The scheduler runs
// this so rows rejected lazily by Verify do not accumulate.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("session purge expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// setCookie writes the session cookie. SameSite=Strict keeps the token
// off cross-site requests entirely.
func (s *Store) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// deviceLabel builds a short human-readable label like "Chrome on Windows"
// for the security dashboard's session list.
func deviceLabel(ua string) string {
	parsed := useragent.Parse(ua)
	switch {
	case parsed.Name != "" && parsed.OS != "":
		return parsed.Name + " on " + parsed.OS
	case parsed.Name != "":
		return parsed.Name
	default:
		return "Unknown device"
	}
}

// generateToken creates a cryptographically random session identifier.
func generateToken() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
