package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("env: got %q, want development", cfg.Env)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr: got %q", cfg.Addr())
	}
	if !cfg.IsDev() {
		t.Error("default env should be development")
	}
}

func TestDSNPrecedence(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d",
	}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("component DSN: got %q, want %q", got, want)
	}

	cfg.PostgresURL = "postgres://alias"
	if got := cfg.DSN(); got != "postgres://alias" {
		t.Errorf("POSTGRES_URL should win over components, got %q", got)
	}

	cfg.DatabaseURL = "postgres://primary"
	if got := cfg.DSN(); got != "postgres://primary" {
		t.Errorf("DATABASE_URL should win over POSTGRES_URL, got %q", got)
	}
}

func TestProductionRequiresCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	if _, err := Load(); err == nil {
		t.Error("expected error for production with default password")
	}

	t.Setenv("DATABASE_URL", "postgres://real")
	if _, err := Load(); err != nil {
		t.Errorf("DATABASE_URL should satisfy production check: %v", err)
	}
}

func TestWhitelistedIPs(t *testing.T) {
	cfg := &Config{RateLimitWhitelist: []string{" 10.0.0.1", "", "192.168.1.5 "}}
	ips := cfg.WhitelistedIPs()
	if len(ips) != 2 || ips[0] != "10.0.0.1" || ips[1] != "192.168.1.5" {
		t.Errorf("unexpected whitelist: %v", ips)
	}
}
