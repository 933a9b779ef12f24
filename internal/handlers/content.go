// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kyctrust/internal/cache"
	"kyctrust/internal/middleware"
	"kyctrust/internal/models"
	"kyctrust/internal/store"
)

// Content groups the published-content, snapshot and scheduling handlers.
type Content struct {
	content *store.ContentStore
	cache   *cache.ContentCache
	audit   *store.AuditStore
}

// NewContent creates a new Content handler group.
func NewContent(content *store.ContentStore, contentCache *cache.ContentCache, audit *store.AuditStore) *Content {
	return &Content{content: content, cache: contentCache, audit: audit}
}

// parseLocale reads the {locale} URL parameter.
func parseLocale(w http.ResponseWriter, r *http.Request) (models.Locale, bool) {
	locale := models.Locale(chi.URLParam(r, "locale"))
	if !locale.Valid() {
		respondError(w, http.StatusBadRequest, "bad_locale",
			"Locale must be ar or en", "اللغة يجب أن تكون ar أو en")
		return "", false
	}
	return locale, true
}

// GetPublished serves the live bundle for a locale, cache-first. This is
// the public endpoint the landing page loads its copy from.
func (h *Content) GetPublished(w http.ResponseWriter, r *http.Request) {
	locale, ok := parseLocale(w, r)
	if !ok {
		return
	}

	if raw, hit := h.cache.Get(r.Context(), locale); hit {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
		return
	}

	bundle, err := h.content.Published(locale)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if bundle == nil {
		respondError(w, http.StatusNotFound, "not_found",
			"No published content for this locale", "لا يوجد محتوى منشور لهذه اللغة")
		return
	}

	payload, err := json.Marshal(map[string]any{"success": true, "data": bundle})
	if err != nil {
		respondInternal(w, err)
		return
	}
	h.cache.Set(r.Context(), locale, payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

type saveDraftRequest struct {
	Bundle models.Bundle `json:"bundle"`
}

// SaveDraft stores the editor's working copy for a locale. The draft is
// validated and sanitized like a publish but goes live only through
// Publish or Schedule.
func (h *Content) SaveDraft(w http.ResponseWriter, r *http.Request) {
	locale, ok := parseLocale(w, r)
	if !ok {
		return
	}

	var req saveDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sanitizeBundle(&req.Bundle)
	if msg, msgAr := validateBundle(&req.Bundle); msg != "" {
		respondError(w, http.StatusBadRequest, "validation", msg, msgAr)
		return
	}

	if err := h.content.SaveDraft(locale, &req.Bundle); err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, http.StatusOK, req.Bundle)
}

// GetDraft returns the working copy for a locale, falling back to the
// published bundle so a fresh editor starts from the live site.
func (h *Content) GetDraft(w http.ResponseWriter, r *http.Request) {
	locale, ok := parseLocale(w, r)
	if !ok {
		return
	}

	bundle, err := h.content.Draft(locale)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if bundle == nil {
		if bundle, err = h.content.Published(locale); err != nil {
			respondInternal(w, err)
			return
		}
	}
	if bundle == nil {
		respondError(w, http.StatusNotFound, "not_found",
			"No draft or published content for this locale", "لا توجد مسودة أو محتوى منشور لهذه اللغة")
		return
	}
	respondData(w, http.StatusOK, bundle)
}

type publishRequest struct {
	Bundle models.Bundle `json:"bundle"`
	Label  string        `json:"label,omitempty"`
}

// Publish makes a bundle live: published settings row plus an immutable
// snapshot, then cache invalidation.
func (h *Content) Publish(w http.ResponseWriter, r *http.Request) {
	locale, ok := parseLocale(w, r)
	if !ok {
		return
	}

	var req publishRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sanitizeBundle(&req.Bundle)
	if msg, msgAr := validateBundle(&req.Bundle); msg != "" {
		respondError(w, http.StatusBadRequest, "validation", msg, msgAr)
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	snap, err := h.content.Publish(locale, &req.Bundle, sanitizeText(req.Label), actor.ID)
	if err != nil {
		respondInternal(w, err)
		return
	}

	h.cache.Invalidate(r.Context(), locale)
	h.audit.RecordActor(r.Context(), models.AuditContentPublished, &actor.ID,
		"locale="+string(locale)+" snapshot="+snap.ID.String(), middleware.ClientIP(r))

	respondData(w, http.StatusOK, snap)
}

// Snapshots lists a locale's publish history, newest first.
func (h *Content) Snapshots(w http.ResponseWriter, r *http.Request) {
	locale, ok := parseLocale(w, r)
	if !ok {
		return
	}

	snaps, err := h.content.Snapshots(locale, 50)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if snaps == nil {
		snaps = []models.Snapshot{}
	}
	respondData(w, http.StatusOK, snaps)
}

// Restore republishes an old snapshot's bundle. The restore itself
// creates a fresh snapshot, so history stays linear and append-only.
func (h *Content) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	snap, err := h.content.FindSnapshot(id)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "not_found",
			"Snapshot not found", "النسخة غير موجودة")
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	restored, err := h.content.Publish(snap.Locale, &snap.Bundle,
		"restore of "+snap.ID.String(), actor.ID)
	if err != nil {
		respondInternal(w, err)
		return
	}

	h.cache.Invalidate(r.Context(), snap.Locale)
	h.audit.RecordActor(r.Context(), models.AuditContentRestored, &actor.ID,
		"snapshot="+snap.ID.String(), middleware.ClientIP(r))

	respondData(w, http.StatusOK, restored)
}

type scheduleRequest struct {
	Bundle    models.Bundle `json:"bundle"`
	PublishAt time.Time     `json:"publish_at"`
}

// Schedule queues a bundle to go live at a future time. The in-process
// scheduler promotes it when due.
func (h *Content) Schedule(w http.ResponseWriter, r *http.Request) {
	locale, ok := parseLocale(w, r)
	if !ok {
		return
	}

	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !req.PublishAt.After(time.Now()) {
		respondError(w, http.StatusBadRequest, "bad_publish_at",
			"publish_at must be in the future", "يجب أن يكون وقت النشر في المستقبل")
		return
	}

	sanitizeBundle(&req.Bundle)
	if msg, msgAr := validateBundle(&req.Bundle); msg != "" {
		respondError(w, http.StatusBadRequest, "validation", msg, msgAr)
		return
	}

	actor := middleware.UserFromCtx(r.Context())
	sp, err := h.content.Schedule(&models.ScheduledPublish{
		Locale:    locale,
		Bundle:    req.Bundle,
		PublishAt: req.PublishAt,
		CreatedBy: actor.ID,
	})
	if err != nil {
		respondInternal(w, err)
		return
	}

	h.audit.RecordActor(r.Context(), models.AuditContentScheduled, &actor.ID,
		"locale="+string(locale)+" at="+sp.PublishAt.Format(time.RFC3339), middleware.ClientIP(r))

	respondData(w, http.StatusCreated, sp)
}

// ListScheduled returns the pending scheduled publishes.
func (h *Content) ListScheduled(w http.ResponseWriter, r *http.Request) {
	scheduled, err := h.content.ListScheduled()
	if err != nil {
		respondInternal(w, err)
		return
	}
	if scheduled == nil {
		scheduled = []models.ScheduledPublish{}
	}
	respondData(w, http.StatusOK, scheduled)
}
