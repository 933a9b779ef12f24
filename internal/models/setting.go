// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"
)

// Setting keys used by the application. Published content lives under a
// per-locale key so each language publishes independently.
const (
	SettingPublishedContentAr = "published_content_ar"
	SettingPublishedContentEn = "published_content_en"
	SettingDraftContentAr     = "draft_content_ar"
	SettingDraftContentEn     = "draft_content_en"
	SettingSiteMaintenance    = "site_maintenance"
)

// PublishedContentKey returns the settings key holding the live bundle
// for a locale.
func PublishedContentKey(locale Locale) string {
	if locale == LocaleArabic {
		return SettingPublishedContentAr
	}
	return SettingPublishedContentEn
}

// DraftContentKey returns the settings key holding the editor's working
// copy for a locale.
func DraftContentKey(locale Locale) string {
	if locale == LocaleArabic {
		return SettingDraftContentAr
	}
	return SettingDraftContentEn
}

// Setting is a single key/JSONB configuration row.
type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}
