// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"kyctrust/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-create@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create("Test User", email, "testpass123", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Email != email {
		t.Errorf("email: got %q, want %q", user.Email, email)
	}
	if user.Role != models.RoleEditor {
		t.Errorf("role: got %q, want %q", user.Role, models.RoleEditor)
	}
	if !user.Active {
		t.Error("expected new user to be active")
	}
	if user.FailedLoginAttempts != 0 {
		t.Errorf("failed_login_attempts: got %d, want 0", user.FailedLoginAttempts)
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password must be stored hashed")
	}
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-findbyemail@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	// Not found case.
	user, err := s.FindByEmail(email)
	if err != nil {
		t.Fatalf("FindByEmail (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created, err := s.Create("Find Me", email, "pass", models.RoleViewer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user, err = s.FindByEmail(email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID != created.ID {
		t.Errorf("ID mismatch: got %s, want %s", user.ID, created.ID)
	}
}

func TestUserStoreLockout(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-lockout@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create("Lockout", email, "pass", models.RoleViewer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Failures below the threshold must not set a lock.
	for i := 1; i < models.MaxFailedLogins; i++ {
		attempts, err := s.RecordLoginFailure(user.ID)
		if err != nil {
			t.Fatalf("RecordLoginFailure %d: %v", i, err)
		}
		if attempts != i {
			t.Errorf("attempts after failure %d: got %d, want %d", i, attempts, i)
		}
	}
	fresh, err := s.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if fresh.IsLocked() {
		t.Fatal("account locked before hitting the threshold")
	}

	// The threshold failure locks the account.
	attempts, err := s.RecordLoginFailure(user.ID)
	if err != nil {
		t.Fatalf("RecordLoginFailure (threshold): %v", err)
	}
	if attempts != models.MaxFailedLogins {
		t.Errorf("attempts at threshold: got %d, want %d", attempts, models.MaxFailedLogins)
	}

	fresh, err = s.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !fresh.IsLocked() {
		t.Fatal("expected account locked at threshold")
	}
	if fresh.LockedUntil == nil {
		t.Fatal("expected locked_until to be set")
	}
	rem := s.LockRemaining(fresh)
	if rem <= 0 || rem > models.LockoutDuration {
		t.Errorf("lock remaining out of range: %v", rem)
	}
}

func TestUserStoreLockoutSurvivesRestart(t *testing.T) {
	db := testDB(t)

	email := "test-lockout-restart@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	s1 := NewUserStore(db)
	user, err := s1.Create("Restart", email, "pass", models.RoleViewer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < models.MaxFailedLogins; i++ {
		if _, err := s1.RecordLoginFailure(user.ID); err != nil {
			t.Fatalf("RecordLoginFailure: %v", err)
		}
	}

	// A second store over the same database sees the lock, so the
	// state is durable rather than process-local.
	s2 := NewUserStore(db)
	fresh, err := s2.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !fresh.IsLocked() {
		t.Fatal("lock state did not persist across store instances")
	}
}

func TestUserStoreLoginSuccessClearsLock(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-lock-clear@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create("Clear", email, "pass", models.RoleViewer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < models.MaxFailedLogins; i++ {
		if _, err := s.RecordLoginFailure(user.ID); err != nil {
			t.Fatalf("RecordLoginFailure: %v", err)
		}
	}

	if err := s.RecordLoginSuccess(user.ID); err != nil {
		t.Fatalf("RecordLoginSuccess: %v", err)
	}

	fresh, err := s.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if fresh.FailedLoginAttempts != 0 {
		t.Errorf("failed_login_attempts: got %d, want 0", fresh.FailedLoginAttempts)
	}
	if fresh.LockedUntil != nil {
		t.Error("expected locked_until cleared")
	}
	if fresh.LastLoginAt == nil {
		t.Error("expected last_login_at stamped")
	}
}

func TestUserStoreUnlock(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-unlock@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create("Unlock", email, "pass", models.RoleViewer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < models.MaxFailedLogins; i++ {
		if _, err := s.RecordLoginFailure(user.ID); err != nil {
			t.Fatalf("RecordLoginFailure: %v", err)
		}
	}

	if err := s.Unlock(user.ID); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	fresh, err := s.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if fresh.IsLocked() {
		t.Error("expected account unlocked")
	}
	if fresh.FailedLoginAttempts != 0 {
		t.Errorf("failed_login_attempts: got %d, want 0", fresh.FailedLoginAttempts)
	}
}

func TestUserStoreDeactivate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-deactivate@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create("Deactivate", email, "pass", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Deactivate(user.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// The row survives so audit references stay intact.
	fresh, err := s.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if fresh == nil {
		t.Fatal("expected deactivated user to still exist")
	}
	if fresh.Active {
		t.Error("expected active=false")
	}
}

func TestUserStoreSetPassword(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "test-setpassword@store-test.local"
	t.Cleanup(func() { cleanUsers(t, db, email) })

	user, err := s.Create("SetPass", email, "oldpass", models.RoleViewer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetPassword(user.ID, "newpass456"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}

	fresh, err := s.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if s.CheckPassword(fresh, "oldpass") {
		t.Error("old password still accepted")
	}
	if !s.CheckPassword(fresh, "newpass456") {
		t.Error("new password rejected")
	}
}

func TestLockRemainingUnlocked(t *testing.T) {
	s := NewUserStore(nil)
	u := &models.User{}
	if got := s.LockRemaining(u); got != 0 {
		t.Errorf("LockRemaining on unlocked user: got %v, want 0", got)
	}

	past := time.Now().Add(-time.Minute)
	u.LockedUntil = &past
	if got := s.LockRemaining(u); got != 0 {
		t.Errorf("LockRemaining with expired lock: got %v, want 0", got)
	}
}
