package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"kyctrust/internal/auth"
	"kyctrust/internal/middleware"
	"kyctrust/internal/models"
	"kyctrust/internal/session"
	"kyctrust/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	service  *auth.Service
	sessions *session.Store
	users    *store.UserStore
	audit    *store.AuditStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(service *auth.Service, sessions *session.Store, users *store.UserStore, audit *store.AuditStore) *Auth {
	return &Auth{service: service, sessions: sessions, users: users, audit: audit}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code,omitempty" validate:"omitempty,len=6,numeric"`
}

// Login verifies credentials and issues a session cookie.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation",
			"Email and password are required", "البريد الإلكتروني وكلمة المرور مطلوبان")
		return
	}

	ip := middleware.ClientIP(r)
	user, err := h.service.Login(r.Context(), req.Email, req.Password, req.TOTPCode, ip)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			respondError(w, http.StatusForbidden, "account_locked",
				"Account is temporarily locked, try again later", "الحساب مقفل مؤقتاً، حاول لاحقاً")
		case errors.Is(err, auth.ErrAccountInactive):
			respondError(w, http.StatusForbidden, "account_inactive",
				"Account is deactivated", "الحساب معطل")
		case errors.Is(err, auth.ErrTwoFARequired):
			respondError(w, http.StatusUnauthorized, "totp_required",
				"Two-factor code required", "رمز التحقق الثنائي مطلوب")
		case errors.Is(err, auth.ErrTwoFAInvalid):
			respondError(w, http.StatusUnauthorized, "totp_invalid",
				"Invalid two-factor code", "رمز التحقق الثنائي غير صحيح")
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "invalid_credentials",
				"Invalid email or password", "البريد الإلكتروني أو كلمة المرور غير صحيحة")
		default:
			respondInternal(w, err)
		}
		return
	}

	if _, err := h.sessions.Create(r.Context(), w, user, ip, r.UserAgent()); err != nil {
		respondInternal(w, err)
		return
	}

	respondData(w, http.StatusOK, user)
}

// Logout destroys the current session and clears the cookie.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if user := middleware.UserFromCtx(r.Context()); user != nil {
		h.audit.RecordActor(r.Context(), models.AuditLogout, &user.ID, "", middleware.ClientIP(r))
	}
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("logout destroy failed", "error", err)
	}
	respondData(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// Me returns the authenticated user.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, middleware.UserFromCtx(r.Context()))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangePassword updates the caller's password and purges every one of
// their sessions, the current one included. Old tokens are dead the
// moment the new hash lands.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation",
			"New password must be at least 8 characters", "كلمة المرور الجديدة يجب أن تكون 8 أحرف على الأقل")
		return
	}

	ip := middleware.ClientIP(r)
	if err := h.service.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword, ip); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid_credentials",
				"Current password is incorrect", "كلمة المرور الحالية غير صحيحة")
			return
		}
		respondInternal(w, err)
		return
	}

	purged, err := h.sessions.DeleteAllForUser(r.Context(), user.ID)
	if err != nil {
		respondInternal(w, err)
		return
	}
	slog.Info("sessions purged after password change", "user_id", user.ID, "count", purged)

	respondData(w, http.StatusOK, map[string]any{
		"changed":          true,
		"sessions_revoked": purged,
	})
}

// TwoFASetup generates a TOTP secret for the caller and returns the
// otpauth URL plus a base64 PNG QR code to scan.
func (h *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "KYC Trust",
		AccountName: user.Email,
	})
	if err != nil {
		respondInternal(w, err)
		return
	}

	if err := h.users.SetTOTPSecret(user.ID, key.Secret()); err != nil {
		respondInternal(w, err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		respondInternal(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"url":     key.URL(),
		"qr_code": base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type twoFAVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TwoFAVerify validates the first TOTP code and enables 2FA for the caller.
func (h *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	var req twoFAVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation",
			"A 6-digit code is required", "رمز مكون من 6 أرقام مطلوب")
		return
	}

	fresh, err := h.users.FindByID(user.ID)
	if err != nil || fresh == nil || fresh.TOTPSecret == nil {
		respondError(w, http.StatusBadRequest, "totp_not_setup",
			"Run 2FA setup first", "قم بإعداد التحقق الثنائي أولاً")
		return
	}

	if !totp.Validate(req.Code, *fresh.TOTPSecret) {
		respondError(w, http.StatusUnauthorized, "totp_invalid",
			"Invalid two-factor code", "رمز التحقق الثنائي غير صحيح")
		return
	}

	if err := h.users.EnableTOTP(user.ID); err != nil {
		respondInternal(w, err)
		return
	}

	h.audit.RecordActor(r.Context(), models.AuditTwoFAEnabled, &user.ID, "", middleware.ClientIP(r))
	respondData(w, http.StatusOK, map[string]bool{"enabled": true})
}
