package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"RECIPIENT", "TIMEOUT_SECONDS", "WORKERS", "RATE_LIMIT",
		"DRY_RUN", "NO_COLOR", "INSECURE_TLS", "HELO_NAME", "LOG_LEVEL",
	}
	for _, env := range envVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audit.Recipient != DefaultRecipient {
		t.Errorf("Audit.Recipient: got %q, want %q", cfg.Audit.Recipient, DefaultRecipient)
	}
	if cfg.Audit.TimeoutSeconds != 12 {
		t.Errorf("Audit.TimeoutSeconds: got %d, want 12", cfg.Audit.TimeoutSeconds)
	}
	if cfg.Audit.Workers != 1 {
		t.Errorf("Audit.Workers: got %d, want 1", cfg.Audit.Workers)
	}
	if cfg.Audit.Rate != 0 {
		t.Errorf("Audit.Rate: got %v, want 0", cfg.Audit.Rate)
	}
	if cfg.Audit.DryRun {
		t.Error("Audit.DryRun: got true, want false")
	}
	if cfg.Audit.Insecure {
		t.Error("Audit.Insecure: got true, want false")
	}
	if cfg.Audit.HELO != "localhost" {
		t.Errorf("Audit.HELO: got %q, want %q", cfg.Audit.HELO, "localhost")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECIPIENT", "audit@example.com")
	t.Setenv("TIMEOUT_SECONDS", "30")
	t.Setenv("WORKERS", "8")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("NO_COLOR", "1")
	t.Setenv("INSECURE_TLS", "yes")
	t.Setenv("HELO_NAME", "audit.example.com")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audit.Recipient != "audit@example.com" {
		t.Errorf("Audit.Recipient: got %q, want %q", cfg.Audit.Recipient, "audit@example.com")
	}
	if cfg.Audit.TimeoutSeconds != 30 {
		t.Errorf("Audit.TimeoutSeconds: got %d, want 30", cfg.Audit.TimeoutSeconds)
	}
	if cfg.Audit.Workers != 8 {
		t.Errorf("Audit.Workers: got %d, want 8", cfg.Audit.Workers)
	}
	if cfg.Audit.Rate != 2.5 {
		t.Errorf("Audit.Rate: got %v, want 2.5", cfg.Audit.Rate)
	}
	if !cfg.Audit.DryRun {
		t.Error("Audit.DryRun: got false, want true")
	}
	if !cfg.Audit.NoColor {
		t.Error("Audit.NoColor: got false, want true")
	}
	if !cfg.Audit.Insecure {
		t.Error("Audit.Insecure: got false, want true")
	}
	if cfg.Audit.HELO != "audit.example.com" {
		t.Errorf("Audit.HELO: got %q, want %q", cfg.Audit.HELO, "audit.example.com")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("WORKERS", "many")
	t.Setenv("RATE_LIMIT", "fast")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audit.TimeoutSeconds != 12 {
		t.Errorf("Audit.TimeoutSeconds: got %d, want 12", cfg.Audit.TimeoutSeconds)
	}
	if cfg.Audit.Workers != 1 {
		t.Errorf("Audit.Workers: got %d, want 1", cfg.Audit.Workers)
	}
	if cfg.Audit.Rate != 0 {
		t.Errorf("Audit.Rate: got %v, want 0", cfg.Audit.Rate)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	content := `
audit:
  recipient: file@example.com
  timeout_seconds: 20
  workers: 4
  rate: 5
  dry_run: true
  helo: probe.example.com
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audit.Recipient != "file@example.com" {
		t.Errorf("Audit.Recipient: got %q, want %q", cfg.Audit.Recipient, "file@example.com")
	}
	if cfg.Audit.TimeoutSeconds != 20 {
		t.Errorf("Audit.TimeoutSeconds: got %d, want 20", cfg.Audit.TimeoutSeconds)
	}
	if cfg.Audit.Workers != 4 {
		t.Errorf("Audit.Workers: got %d, want 4", cfg.Audit.Workers)
	}
	if cfg.Audit.Rate != 5 {
		t.Errorf("Audit.Rate: got %v, want 5", cfg.Audit.Rate)
	}
	if !cfg.Audit.DryRun {
		t.Error("Audit.DryRun: got false, want true")
	}
	if cfg.Audit.HELO != "probe.example.com" {
		t.Errorf("Audit.HELO: got %q, want %q", cfg.Audit.HELO, "probe.example.com")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECIPIENT", "env@example.com")
	t.Setenv("WORKERS", "16")

	content := `
audit:
  recipient: file@example.com
  workers: 4
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audit.Recipient != "env@example.com" {
		t.Errorf("Audit.Recipient: got %q, want %q", cfg.Audit.Recipient, "env@example.com")
	}
	if cfg.Audit.Workers != 16 {
		t.Errorf("Audit.Workers: got %d, want 16", cfg.Audit.Workers)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("audit: [not a mapping"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}
