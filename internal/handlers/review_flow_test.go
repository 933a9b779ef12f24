// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// End-to-end tests for review submission and moderation.
package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"kyctrust/internal/models"
)

type reviewPayload struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
	Status  string    `json:"status"`
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, w.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, body: %s", w.Body.String())
	}
	var out T
	if err := json.Unmarshal(envelope.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

func TestReviewSubmitAndModerateFlow(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.60"
	r := testRouter(t, db, ip)

	author := "Flow Reviewer"
	t.Cleanup(func() { db.Exec("DELETE FROM reviews WHERE name = $1", author) })
	createTestUser(t, db, "flow-review-editor@handler-test.local", "editor-pass-1", models.RoleEditor)

	// Public submission lands as pending.
	w := postJSON(t, r, "/api/reviews", ip, map[string]any{
		"name": author, "rating": 5, "comment": "Verification was fast and painless",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status: got %d, body %s", w.Code, w.Body.String())
	}
	review := decodeData[reviewPayload](t, w)
	if review.Status != "pending" {
		t.Errorf("submitted status: got %q, want pending", review.Status)
	}

	// Pending reviews stay out of the public list.
	pub := getJSON(t, r, "/api/reviews", ip)
	if pub.Code != http.StatusOK {
		t.Fatalf("public list status: %d", pub.Code)
	}
	for _, item := range decodeData[[]reviewPayload](t, pub) {
		if item.ID == review.ID {
			t.Fatal("pending review visible to the public")
		}
	}

	// Editor logs in and approves it.
	login := postJSON(t, r, "/api/auth/login", ip, map[string]string{
		"email": "flow-review-editor@handler-test.local", "password": "editor-pass-1",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("editor login status: %d, body %s", login.Code, login.Body.String())
	}
	cookie := sessionCookie(t, login)

	mod := postJSON(t, r, "/api/admin/reviews/"+review.ID.String()+"/moderate", ip,
		map[string]string{"status": "approved"}, cookie)
	if mod.Code != http.StatusOK {
		t.Fatalf("moderate status: got %d, body %s", mod.Code, mod.Body.String())
	}
	if got := decodeData[reviewPayload](t, mod); got.Status != "approved" {
		t.Errorf("moderated status: got %q", got.Status)
	}

	// Approved review now shows publicly.
	pub = getJSON(t, r, "/api/reviews", ip)
	var visible bool
	for _, item := range decodeData[[]reviewPayload](t, pub) {
		if item.ID == review.ID {
			visible = true
		}
	}
	if !visible {
		t.Error("approved review missing from public list")
	}

	// A second moderation is refused.
	again := postJSON(t, r, "/api/admin/reviews/"+review.ID.String()+"/moderate", ip,
		map[string]string{"status": "rejected"}, cookie)
	if again.Code != http.StatusConflict {
		t.Fatalf("re-moderation status: got %d, want 409", again.Code)
	}
	if code := errorCode(t, again); code != "already_moderated" {
		t.Errorf("error code: got %q", code)
	}
}

func TestReviewModerateRequiresRole(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.61"
	r := testRouter(t, db, ip)

	author := "Role Check Reviewer"
	t.Cleanup(func() { db.Exec("DELETE FROM reviews WHERE name = $1", author) })
	createTestUser(t, db, "flow-review-viewer@handler-test.local", "viewer-pass-1", models.RoleViewer)

	w := postJSON(t, r, "/api/reviews", ip, map[string]any{
		"name": author, "rating": 4, "comment": "Good support team",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status: %d", w.Code)
	}
	review := decodeData[reviewPayload](t, w)

	// Anonymous moderation is unauthorized.
	anon := postJSON(t, r, "/api/admin/reviews/"+review.ID.String()+"/moderate", ip,
		map[string]string{"status": "approved"})
	if anon.Code != http.StatusUnauthorized {
		t.Errorf("anonymous moderation: got %d, want 401", anon.Code)
	}

	// A viewer is authenticated but lacks the permission.
	login := postJSON(t, r, "/api/auth/login", ip, map[string]string{
		"email": "flow-review-viewer@handler-test.local", "password": "viewer-pass-1",
	})
	cookie := sessionCookie(t, login)

	denied := postJSON(t, r, "/api/admin/reviews/"+review.ID.String()+"/moderate", ip,
		map[string]string{"status": "approved"}, cookie)
	if denied.Code != http.StatusForbidden {
		t.Errorf("viewer moderation: got %d, want 403", denied.Code)
	}

	// The review is untouched.
	var status string
	if err := db.QueryRow("SELECT status FROM reviews WHERE id = $1", review.ID).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != "pending" {
		t.Errorf("review status changed to %q", status)
	}
}

func TestReviewSubmitValidation(t *testing.T) {
	db := testDB(t)
	ip := "203.0.113.62"
	r := testRouter(t, db, ip)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"rating": 3, "comment": "x"}},
		{"rating too high", map[string]any{"name": "A", "rating": 6, "comment": "x"}},
		{"rating too low", map[string]any{"name": "A", "rating": 0, "comment": "x"}},
		{"missing comment", map[string]any{"name": "A", "rating": 3}},
		{"markup-only comment", map[string]any{"name": "A", "rating": 3, "comment": "<script>x()</script>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/reviews", ip, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}
}
