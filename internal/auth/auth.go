// Package auth implements login verification with persistent lockout
// bookkeeping. All attempt state lives on the users row, never in process
// memory, so lockouts hold across horizontally scaled instances.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp/totp"

	"kyctrust/internal/models"
	"kyctrust/internal/store"
)

// Login failure sentinels. Handlers map these onto HTTP statuses and
// bilingual messages.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountInactive    = errors.New("account inactive")
	ErrTwoFARequired      = errors.New("two-factor code required")
	ErrTwoFAInvalid       = errors.New("two-factor code invalid")
)

// Service verifies credentials and maintains lockout counters.
type Service struct {
	users *store.UserStore
	audit *store.AuditStore
}

// NewService creates an auth service over the user and audit stores.
func NewService(users *store.UserStore, audit *store.AuditStore) *Service {
	return &Service{users: users, audit: audit}
}

// Login verifies email/password (and the TOTP code when the user has 2FA
// enabled) and returns the user on success. Every outcome is audited.
//
// Failure handling: each wrong password increments the persistent failure
// counter; reaching models.MaxFailedLogins locks the account for
// models.LockoutDuration. A locked account is rejected before the
// password is even checked, so the correct password does not shorten a
// lockout. Success resets the counter and clears any lock.
func (s *Service) Login(ctx context.Context, email, password, totpCode, ipAddress string) (*models.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	if user == nil {
		s.audit.Record(ctx, models.AuditLoginUnknownUser, "email="+email, ipAddress)
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		s.audit.RecordActor(ctx, models.AuditLoginFailed, &user.ID, "account inactive", ipAddress)
		return nil, ErrAccountInactive
	}

	if user.IsLocked() {
		s.audit.RecordActor(ctx, models.AuditLoginLocked, &user.ID,
			fmt.Sprintf("locked for %s", s.users.LockRemaining(user).Round(time.Second)), ipAddress)
		return nil, ErrAccountLocked
	}

	if !s.users.CheckPassword(user, password) {
		attempts, ferr := s.users.RecordLoginFailure(user.ID)
		if ferr != nil {
			slog.Error("failed to record login failure", "error", ferr)
		}
		s.audit.RecordActor(ctx, models.AuditLoginFailed, &user.ID,
			fmt.Sprintf("wrong password, attempt %d of %d", attempts, models.MaxFailedLogins), ipAddress)
		return nil, ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		if totpCode == "" {
			return nil, ErrTwoFARequired
		}
		if user.TOTPSecret == nil || !totp.Validate(totpCode, *user.TOTPSecret) {
			// A wrong TOTP code counts against the lockout like a wrong
			// password: the first factor alone must not be brute-forceable
			// into a confirmed credential.
			attempts, ferr := s.users.RecordLoginFailure(user.ID)
			if ferr != nil {
				slog.Error("failed to record login failure", "error", ferr)
			}
			s.audit.RecordActor(ctx, models.AuditLoginFailed, &user.ID,
				fmt.Sprintf("wrong totp code, attempt %d of %d", attempts, models.MaxFailedLogins), ipAddress)
			return nil, ErrTwoFAInvalid
		}
	}

	if err := s.users.RecordLoginSuccess(user.ID); err != nil {
		return nil, fmt.Errorf("record login success: %w", err)
	}

	s.audit.RecordActor(ctx, models.AuditLoginSuccess, &user.ID, "", ipAddress)

	// Re-read so the returned user reflects the cleared counters.
	fresh, err := s.users.FindByID(user.ID)
	if err != nil || fresh == nil {
		return user, nil
	}
	return fresh, nil
}

// ChangePassword verifies the current password, stores the new hash and
// reports success. Session purging is the handler's job since it owns the
// session store; the audit trail is written here.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, current, next, ipAddress string) error {
	if !s.users.CheckPassword(user, current) {
		s.audit.RecordActor(ctx, models.AuditLoginFailed, &user.ID, "password change: wrong current password", ipAddress)
		return ErrInvalidCredentials
	}

	if err := s.users.SetPassword(user.ID, next); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.audit.RecordActor(ctx, models.AuditPasswordChanged, &user.ID, "", ipAddress)
	return nil
}
