// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// End-to-end tests for the authentication flow, driven through the full
// router so the middleware chain is exercised too. Skipped when
// PostgreSQL is not available.
package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"kyctrust/internal/auth"
	"kyctrust/internal/database"
	"kyctrust/internal/handlers"
	"kyctrust/internal/models"
	"kyctrust/internal/router"
	"kyctrust/internal/security"
	"kyctrust/internal/session"
	"kyctrust/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "kyctrust")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "kyctrust")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testRouter wires the full application stack over the test database.
// IPs in whitelist bypass rate limiting so auth tests are not throttled.
func testRouter(t *testing.T, db *sql.DB, whitelist ...string) chi.Router {
	t.Helper()

	users := store.NewUserStore(db)
	audit := store.NewAuditStore(db)
	settings := store.NewSettingStore(db)
	content := store.NewContentStore(db, settings)
	reviews := store.NewReviewStore(db)
	analytics := store.NewAnalyticsStore(db)

	sessions := session.NewStore(db, audit, false)
	limiter := security.NewRateLimiter(db, audit, whitelist)
	service := auth.NewService(users, audit)

	h := router.Handlers{
		Auth:       handlers.NewAuth(service, sessions, users, audit),
		Content:    handlers.NewContent(content, nil, audit),
		Reviews:    handlers.NewReviews(reviews, analytics, audit),
		Users:      handlers.NewUsers(users, audit),
		Analytics:  handlers.NewAnalytics(analytics),
		Security:   handlers.NewSecurityAdmin(users, sessions, limiter, audit),
		DashUnlock: handlers.DashUnlock("", false),
	}
	return router.New(sessions, users, limiter, "", h)
}

func createTestUser(t *testing.T, db *sql.DB, email, password string, role models.Role) *models.User {
	t.Helper()
	users := store.NewUserStore(db)
	t.Cleanup(func() {
		db.Exec("DELETE FROM sessions WHERE user_id IN (SELECT id FROM users WHERE email = $1)", email)
		db.Exec("DELETE FROM users WHERE email = $1", email)
	})
	u, err := users.Create("Flow Test", email, password, role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func postJSON(t *testing.T, r chi.Router, path, ip string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", ip)
	req.Header.Set("User-Agent", "flow-test-agent")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func putJSON(t *testing.T, r chi.Router, path, ip string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", ip)
	req.Header.Set("User-Agent", "flow-test-agent")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, r chi.Router, path, ip string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Real-IP", ip)
	req.Header.Set("User-Agent", "flow-test-agent")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doRequest(r chi.Router, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			MessageAr string `json:"message_ar"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (body: %s)", err, w.Body.String())
	}
	if envelope.Error.Code != "" && (envelope.Error.Message == "" || envelope.Error.MessageAr == "") {
		t.Errorf("error %q missing a bilingual message: %+v", envelope.Error.Code, envelope.Error)
	}
	return envelope.Error.Code
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestLoginSuccess(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.50"
	r := testRouter(t, db, ip)
	createTestUser(t, db, "flow-login@handler-test.local", "correct-horse-9", models.RoleViewer)

	w := postJSON(t, r, "/api/auth/login", ip, map[string]string{
		"email":    "flow-login@handler-test.local",
		"password": "correct-horse-9",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status: got %d, body %s", w.Code, w.Body.String())
	}

	// The response envelope carries the user but never the hash.
	if bytes.Contains(w.Body.Bytes(), []byte("password_hash")) {
		t.Error("password hash leaked in login response")
	}

	cookie := sessionCookie(t, w)
	if len(cookie.Value) != 64 {
		t.Errorf("session token length: got %d, want 64", len(cookie.Value))
	}

	// The cookie authenticates follow-up requests.
	me := getJSON(t, r, "/api/auth/me", ip, cookie)
	if me.Code != http.StatusOK {
		t.Errorf("me status: got %d, body %s", me.Code, me.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.51"
	r := testRouter(t, db, ip)
	createTestUser(t, db, "flow-wrongpw@handler-test.local", "right-password", models.RoleViewer)

	w := postJSON(t, r, "/api/auth/login", ip, map[string]string{
		"email":    "flow-wrongpw@handler-test.local",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if code := errorCode(t, w); code != "invalid_credentials" {
		t.Errorf("error code: got %q", code)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.52"
	r := testRouter(t, db, ip)

	// Unknown accounts answer exactly like wrong passwords so the
	// endpoint cannot be used to enumerate emails.
	w := postJSON(t, r, "/api/auth/login", ip, map[string]string{
		"email":    "nobody@handler-test.local",
		"password": "whatever-pass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if code := errorCode(t, w); code != "invalid_credentials" {
		t.Errorf("error code: got %q", code)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.53"
	r := testRouter(t, db, ip)
	createTestUser(t, db, "flow-lockout@handler-test.local", "real-password-1", models.RoleViewer)

	body := func(pw string) map[string]string {
		return map[string]string{"email": "flow-lockout@handler-test.local", "password": pw}
	}

	for i := 0; i < models.MaxFailedLogins; i++ {
		w := postJSON(t, r, "/api/auth/login", ip, body(fmt.Sprintf("bad-password-%d", i)))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("failure %d: status %d, want 401", i+1, w.Code)
		}
	}

	// The account is now locked; even the right password is refused.
	w := postJSON(t, r, "/api/auth/login", ip, body("real-password-1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("locked login status: got %d, want 403 (body %s)", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "account_locked" {
		t.Errorf("error code: got %q, want account_locked", code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.54"
	r := testRouter(t, db) // no whitelist

	t.Cleanup(func() {
		db.Exec("DELETE FROM rate_limits WHERE ip_address = $1", ip)
	})

	rule := security.RuleLogin
	for i := 0; i < rule.MaxRequests; i++ {
		w := postJSON(t, r, "/api/auth/login", ip, map[string]string{
			"email":    "flow-ratelimit@handler-test.local",
			"password": "anything-goes",
		})
		if w.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d throttled under the limit", i+1)
		}
	}

	w := postJSON(t, r, "/api/auth/login", ip, map[string]string{
		"email":    "flow-ratelimit@handler-test.local",
		"password": "anything-goes",
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want 429", w.Code)
	}
	if code := errorCode(t, w); code != "rate_limited" {
		t.Errorf("error code: got %q", code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestChangePasswordRevokesAllSessions(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.55"
	r := testRouter(t, db, ip)
	createTestUser(t, db, "flow-pwchange@handler-test.local", "old-password-1", models.RoleViewer)

	login := func(pw string) *httptest.ResponseRecorder {
		return postJSON(t, r, "/api/auth/login", ip, map[string]string{
			"email": "flow-pwchange@handler-test.local", "password": pw,
		})
	}

	// Two independent sessions.
	first := sessionCookie(t, login("old-password-1"))
	second := sessionCookie(t, login("old-password-1"))

	w := postJSON(t, r, "/api/auth/change-password", ip, map[string]string{
		"current_password": "old-password-1",
		"new_password":     "new-password-22",
	}, second)
	if w.Code != http.StatusOK {
		t.Fatalf("change password status: got %d, body %s", w.Code, w.Body.String())
	}

	// Both sessions are dead, the one that made the change included.
	for i, c := range []*http.Cookie{first, second} {
		me := getJSON(t, r, "/api/auth/me", ip, c)
		if me.Code != http.StatusUnauthorized {
			t.Errorf("session %d survived password change: status %d", i+1, me.Code)
		}
	}

	// The new password works, the old one does not.
	if w := login("old-password-1"); w.Code != http.StatusUnauthorized {
		t.Errorf("old password still accepted: status %d", w.Code)
	}
	if w := login("new-password-22"); w.Code != http.StatusOK {
		t.Errorf("new password rejected: status %d, body %s", w.Code, w.Body.String())
	}
}
