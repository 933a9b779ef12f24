// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Locale identifies a content language. The site ships Arabic and English.
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"
)

// Valid reports whether the locale is one the site supports.
func (l Locale) Valid() bool {
	return l == LocaleArabic || l == LocaleEnglish
}

// Hero is the top-of-page banner section.
type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CTALabel string `json:"cta_label"`
	CTALink  string `json:"cta_link"`
}

// Service is one entry in the services grid.
type Service struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// About is the company description section.
type About struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Contact holds the contact section details.
type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
	Address  string `json:"address"`
}

// FAQItem is a single question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Testimonial is a curated quote shown on the landing page, distinct from
// user-submitted reviews.
type Testimonial struct {
	Name    string `json:"name"`
	Quote   string `json:"quote"`
	Company string `json:"company,omitempty"`
}

// Design holds the visual design tokens applied site-wide.
type Design struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	FontHeading    string `json:"font_heading"`
	FontBody       string `json:"font_body"`
}

// Block is a toggleable landing page section. Order in the slice is
// render order.
type Block struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Bundle is the full per-locale content document for the landing page.
type Bundle struct {
	Hero         Hero          `json:"hero"`
	Services     []Service     `json:"services"`
	About        About         `json:"about"`
	Contact      Contact       `json:"contact"`
	FAQ          []FAQItem     `json:"faq"`
	Testimonials []Testimonial `json:"testimonials"`
	Design       Design        `json:"design"`
	Blocks       []Block       `json:"blocks"`
}

// Snapshot is an immutable copy of a published content bundle, kept so that
// any publish can be reverted.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Locale    Locale    `json:"locale"`
	Bundle    Bundle    `json:"bundle"`
	Label     string    `json:"label"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ScheduledPublish is a content bundle queued to go live at a future time.
// The scheduler promotes due rows to published content.
type ScheduledPublish struct {
	ID          uuid.UUID  `json:"id"`
	Locale      Locale     `json:"locale"`
	Bundle      Bundle     `json:"bundle"`
	PublishAt   time.Time  `json:"publish_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}
