package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"kyctrust/internal/models"
)

// validate is the shared validator instance for request payload structs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// sanitizer strips all HTML from user-submitted free text. Review
// comments and content strings render into the public page, so nothing
// that could script may survive.
var sanitizer = bluemonday.StrictPolicy()

// Validation limits for content and review fields.
const (
	maxNameLen     = 120
	maxCommentLen  = 2_000
	maxTitleLen    = 300
	maxBodyLen     = 20_000
	maxServices    = 12
	maxFAQItems    = 30
	maxTestimonial = 20
)

// sanitizeText strips HTML and trims whitespace from one field.
func sanitizeText(s string) string {
	return strings.TrimSpace(sanitizer.Sanitize(s))
}

// validateBundle checks a content bundle and returns the first problem
// found, in both languages, or empty strings when the bundle is fine.
func validateBundle(b *models.Bundle) (string, string) {
	if strings.TrimSpace(b.Hero.Title) == "" {
		return "Hero title is required", "عنوان الواجهة مطلوب"
	}
	if utf8.RuneCountInString(b.Hero.Title) > maxTitleLen {
		return "Hero title is too long", "عنوان الواجهة طويل جداً"
	}
	if utf8.RuneCountInString(b.About.Body) > maxBodyLen {
		return "About section is too long", "قسم من نحن طويل جداً"
	}
	if len(b.Services) > maxServices {
		return "Too many services", "عدد الخدمات كبير جداً"
	}
	if len(b.FAQ) > maxFAQItems {
		return "Too many FAQ items", "عدد الأسئلة الشائعة كبير جداً"
	}
	if len(b.Testimonials) > maxTestimonial {
		return "Too many testimonials", "عدد التوصيات كبير جداً"
	}
	for i := range b.Services {
		if strings.TrimSpace(b.Services[i].Title) == "" {
			return "Service title is required", "عنوان الخدمة مطلوب"
		}
	}
	for i := range b.FAQ {
		if strings.TrimSpace(b.FAQ[i].Question) == "" || strings.TrimSpace(b.FAQ[i].Answer) == "" {
			return "FAQ entries need both question and answer", "يجب إدخال السؤال والجواب"
		}
	}

	seen := make(map[string]bool, len(b.Blocks))
	for i := range b.Blocks {
		name := b.Blocks[i].Name
		if name == "" {
			return "Block name is required", "اسم القسم مطلوب"
		}
		if seen[name] {
			return "Duplicate block: " + name, "قسم مكرر: " + name
		}
		seen[name] = true
	}

	return "", ""
}

// sanitizeBundle strips HTML from every free-text field in place.
func sanitizeBundle(b *models.Bundle) {
	b.Hero.Title = sanitizeText(b.Hero.Title)
	b.Hero.Subtitle = sanitizeText(b.Hero.Subtitle)
	b.Hero.CTALabel = sanitizeText(b.Hero.CTALabel)
	b.About.Title = sanitizeText(b.About.Title)
	b.About.Body = sanitizeText(b.About.Body)
	for i := range b.Services {
		b.Services[i].Title = sanitizeText(b.Services[i].Title)
		b.Services[i].Description = sanitizeText(b.Services[i].Description)
	}
	for i := range b.FAQ {
		b.FAQ[i].Question = sanitizeText(b.FAQ[i].Question)
		b.FAQ[i].Answer = sanitizeText(b.FAQ[i].Answer)
	}
	for i := range b.Testimonials {
		b.Testimonials[i].Name = sanitizeText(b.Testimonials[i].Name)
		b.Testimonials[i].Quote = sanitizeText(b.Testimonials[i].Quote)
		b.Testimonials[i].Company = sanitizeText(b.Testimonials[i].Company)
	}
}
