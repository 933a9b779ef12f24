// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kyctrust/internal/middleware"
	"kyctrust/internal/models"
	"kyctrust/internal/store"
)

// Users groups the admin user-management handlers.
type Users struct {
	users *store.UserStore
	audit *store.AuditStore
}

// NewUsers creates a new Users handler group.
func NewUsers(users *store.UserStore, audit *store.AuditStore) *Users {
	return &Users{users: users, audit: audit}
}

// List returns every user. Password hashes never serialize.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, http.StatusOK, users)
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=admin editor viewer"`
}

// Create adds a new dashboard user.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation",
			"Name, valid email, password (8+ chars) and role are required",
			"الاسم والبريد الإلكتروني وكلمة المرور (8 أحرف فأكثر) والدور مطلوبة")
		return
	}

	existing, err := h.users.FindByEmail(req.Email)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "email_taken",
			"A user with this email already exists", "يوجد مستخدم بهذا البريد الإلكتروني")
		return
	}

	user, err := h.users.Create(sanitizeText(req.Name), req.Email, req.Password, models.Role(req.Role))
	if err != nil {
		respondInternal(w, err)
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	h.audit.RecordActor(r.Context(), models.AuditUserCreated, &actor.ID,
		"created "+user.Email, middleware.ClientIP(r))

	respondData(w, http.StatusCreated, user)
}

// Get returns one user by ID.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.users.FindByID(id)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "not_found",
			"User not found", "المستخدم غير موجود")
		return
	}
	respondData(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Email  string `json:"email" validate:"required,email"`
	Role   string `json:"role" validate:"required,oneof=admin editor viewer"`
	Active bool   `json:"active"`
}

// Update changes a user's profile, role and active flag.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation",
			"Name, valid email and role are required", "الاسم والبريد الإلكتروني والدور مطلوبة")
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	if actor.ID == id && models.Role(req.Role) != models.RoleAdmin {
		// An admin demoting themselves would strand the dashboard.
		respondError(w, http.StatusBadRequest, "self_demotion",
			"You cannot change your own role", "لا يمكنك تغيير دورك الخاص")
		return
	}

	user, err := h.users.Update(id, sanitizeText(req.Name), req.Email, models.Role(req.Role), req.Active)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "not_found",
			"User not found", "المستخدم غير موجود")
		return
	}

	h.audit.RecordActor(r.Context(), models.AuditUserUpdated, &actor.ID,
		"updated "+user.Email, middleware.ClientIP(r))

	respondData(w, http.StatusOK, user)
}

// Delete deactivates a user. Rows are never hard-deleted so audit events
// and moderation records keep their references.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	if actor.ID == id {
		respondError(w, http.StatusBadRequest, "self_delete",
			"You cannot deactivate yourself", "لا يمكنك تعطيل حسابك الخاص")
		return
	}

	if err := h.users.Deactivate(id); err != nil {
		respondInternal(w, err)
		return
	}

	h.audit.RecordActor(r.Context(), models.AuditUserDeactivated, &actor.ID,
		"deactivated "+id.String(), middleware.ClientIP(r))

	respondData(w, http.StatusOK, map[string]bool{"deactivated": true})
}

// parseID reads the {id} URL parameter as a UUID.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_id",
			"Invalid ID", "معرف غير صالح")
		return uuid.Nil, false
	}
	return id, true
}
