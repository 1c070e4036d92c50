// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("SIGNING_KEY", "test-signing-key")
	os.Setenv("ALLOWED_PHONE_NUMBERS", "+15550001111, +15550002222")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres default, got %q", cfg.DatabaseType)
	}
	if len(cfg.AllowedPhoneNumbers) != 2 || cfg.AllowedPhoneNumbers[1] != "+15550002222" {
		t.Errorf("unexpected allowed numbers: %v", cfg.AllowedPhoneNumbers)
	}
	if cfg.AuthExpirationSeconds != 2592000 {
		t.Errorf("expected default auth expiration, got %d", cfg.AuthExpirationSeconds)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-t", "sqlite", "-signing-key", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %q", cfg.DatabaseType)
	}
}

func TestParseFlags_MissingSigningKey(t *testing.T) {
	os.Clearenv()

	_, err := ParseFlags([]string{"-d", "postgres://test"})
	if err == nil {
		t.Fatal("expected error when SIGNING_KEY missing")
	}
}
