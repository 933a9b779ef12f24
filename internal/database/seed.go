package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"kyctrust/internal/models"
)

// Seed populates the database with initial development data: a bootstrap
// admin user and a default published content bundle for each locale.
// It is a no-op when users already exist.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the bootstrap admin password. The hash goes in like any other
	// user's; there is no plaintext login path.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (name, email, password_hash, role, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`, "Administrator", "admin@kyctrust.example", string(hash), "admin").Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// Publish a starter bundle per locale so the public content endpoint
	// serves something before the first editorial publish.
	for locale, bundle := range map[models.Locale]models.Bundle{
		models.LocaleArabic:  defaultBundleAr(),
		models.LocaleEnglish: defaultBundleEn(),
	} {
		raw, err := json.Marshal(bundle)
		if err != nil {
			return fmt.Errorf("seed marshal bundle: %w", err)
		}

		_, err = db.Exec(`
			INSERT INTO settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`, models.PublishedContentKey(locale), raw)
		if err != nil {
			return fmt.Errorf("seed published content: %w", err)
		}

		_, err = db.Exec(`
			INSERT INTO content_snapshots (locale, bundle, label, created_by)
			VALUES ($1, $2, 'seed', $3)
		`, string(locale), raw, adminID)
		if err != nil {
			return fmt.Errorf("seed snapshot: %w", err)
		}
	}

	slog.Info("database seeded with bootstrap admin and starter content",
		"email", "admin@kyctrust.example",
	)

	return nil
}

func defaultBundleEn() models.Bundle {
	return models.Bundle{
		Hero: models.Hero{
			Title:    "KYC Trust",
			Subtitle: "Financial services you can rely on",
			CTALabel: "Get Started",
			CTALink:  "#contact",
		},
		Services: []models.Service{
			{Title: "Account Verification", Description: "Fast, compliant identity verification.", Icon: "shield"},
			{Title: "Business Onboarding", Description: "End-to-end company onboarding support.", Icon: "briefcase"},
		},
		About: models.About{
			Title: "About Us",
			Body:  "KYC Trust provides trusted financial verification services.",
		},
		Contact: models.Contact{
			Email: "info@kyctrust.example",
		},
		Design: defaultDesign(),
		Blocks: defaultBlocks(),
	}
}

func defaultBundleAr() models.Bundle {
	return models.Bundle{
		Hero: models.Hero{
			Title:    "كي واي سي ترست",
			Subtitle: "خدمات مالية موثوقة",
			CTALabel: "ابدأ الآن",
			CTALink:  "#contact",
		},
		Services: []models.Service{
			{Title: "توثيق الحسابات", Description: "توثيق سريع ومتوافق للهوية.", Icon: "shield"},
			{Title: "تأسيس الشركات", Description: "دعم كامل لتأسيس شركتك.", Icon: "briefcase"},
		},
		About: models.About{
			Title: "من نحن",
			Body:  "توفر كي واي سي ترست خدمات توثيق مالية موثوقة.",
		},
		Contact: models.Contact{
			Email: "info@kyctrust.example",
		},
		Design: defaultDesign(),
		Blocks: defaultBlocks(),
	}
}

func defaultDesign() models.Design {
	return models.Design{
		PrimaryColor:   "#0f4c81",
		SecondaryColor: "#1c1c28",
		AccentColor:    "#2bb3a3",
		FontHeading:    "Cairo",
		FontBody:       "Inter",
	}
}

func defaultBlocks() []models.Block {
	return []models.Block{
		{Name: "hero", Enabled: true},
		{Name: "services", Enabled: true},
		{Name: "about", Enabled: true},
		{Name: "testimonials", Enabled: true},
		{Name: "faq", Enabled: true},
		{Name: "contact", Enabled: true},
	}
}
