// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"kyctrust/internal/middleware"
	"kyctrust/internal/models"
	"kyctrust/internal/store"
)

// Reviews groups the public review submission/listing handlers and the
// admin moderation handlers.
type Reviews struct {
	reviews   *store.ReviewStore
	analytics *store.AnalyticsStore
	audit     *store.AuditStore
}

// NewReviews creates a new Reviews handler group.
func NewReviews(reviews *store.ReviewStore, analytics *store.AnalyticsStore, audit *store.AuditStore) *Reviews {
	return &Reviews{reviews: reviews, analytics: analytics, audit: audit}
}

type submitReviewRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// Submit accepts a public review. The review always lands as pending; a
// submitted status field is not even part of the payload.
func (h *Reviews) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation",
			"Name, rating (1-5) and comment are required", "الاسم والتقييم (1-5) والتعليق مطلوبة")
		return
	}

	name := sanitizeText(req.Name)
	comment := sanitizeText(req.Comment)
	if name == "" || comment == "" {
		respondError(w, http.StatusBadRequest, "validation",
			"Name and comment must contain text", "يجب أن يحتوي الاسم والتعليق على نص")
		return
	}

	review, err := h.reviews.Create(name, req.Rating, comment)
	if err != nil {
		respondInternal(w, err)
		return
	}

	// Counter failures never fail the submission.
	if err := h.analytics.Track(store.EventReviewSubmission); err != nil {
		slog.Warn("review submission tracking failed", "error", err)
	}

	respondData(w, http.StatusCreated, review)
}

// ListPublic returns approved reviews only.
func (h *Reviews) ListPublic(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListApproved()
	if err != nil {
		respondInternal(w, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	respondData(w, http.StatusOK, reviews)
}

// ListAdmin returns all reviews, optionally filtered with ?status=.
func (h *Reviews) ListAdmin(w http.ResponseWriter, r *http.Request) {
	var (
		reviews []models.Review
		err     error
	)

	switch status := r.URL.Query().Get("status"); status {
	case "":
		reviews, err = h.reviews.ListAll()
	case string(models.ReviewStatusPending), string(models.ReviewStatusApproved), string(models.ReviewStatusRejected):
		reviews, err = h.reviews.ListByStatus(models.ReviewStatus(status))
	default:
		respondError(w, http.StatusBadRequest, "bad_status",
			"Unknown review status", "حالة مراجعة غير معروفة")
		return
	}
	if err != nil {
		respondInternal(w, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	respondData(w, http.StatusOK, reviews)
}

type moderateRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// Moderate approves or rejects a pending review. The transition is
// one-way; a second moderation attempt returns a conflict.
func (h *Reviews) Moderate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req moderateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation",
			"Status must be approved or rejected", "الحالة يجب أن تكون approved أو rejected")
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	review, err := h.reviews.Moderate(id, models.ReviewStatus(req.Status), actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyModerated) {
			respondError(w, http.StatusConflict, "already_moderated",
				"Review was already moderated", "تمت مراجعة هذا التقييم مسبقاً")
			return
		}
		respondInternal(w, err)
		return
	}
	if review == nil {
		respondError(w, http.StatusNotFound, "not_found",
			"Review not found", "التقييم غير موجود")
		return
	}

	h.audit.RecordActor(r.Context(), models.AuditReviewModerated, &actor.ID,
		string(review.Status)+" "+review.ID.String(), middleware.ClientIP(r))

	respondData(w, http.StatusOK, review)
}
