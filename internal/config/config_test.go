package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.WizardTTL != 30*time.Minute {
		t.Errorf("expected default wizard TTL 30m, got %s", cfg.WizardTTL)
	}
	if cfg.BookingWindowDays != 7 {
		t.Errorf("expected default booking window 7, got %d", cfg.BookingWindowDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("WIZARD_TTL", "10m")
	t.Setenv("BOOKING_WINDOW_DAYS", "14")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.WizardTTL != 10*time.Minute {
		t.Errorf("expected wizard TTL 10m, got %s", cfg.WizardTTL)
	}
	if cfg.BookingWindowDays != 14 {
		t.Errorf("expected booking window 14, got %d", cfg.BookingWindowDays)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{ClinicTimezone: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Error("expected UTC fallback for unknown zone")
	}
}
