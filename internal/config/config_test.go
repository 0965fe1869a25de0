package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Expected default config to be valid, got errors: %v", errs)
	}
}

func TestValidate_SessionSettings(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		interval float64
		wantErrs int
	}{
		{"valid settings", 60, 1, 0},
		{"zero duration", 0, 1, 1},
		{"negative duration", -5, 1, 1},
		{"zero interval", 60, 0, 1},
		{"both invalid", 0, -1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Session.DurationSeconds = tt.duration
			cfg.Session.IntervalSeconds = tt.interval

			errs := cfg.validateSession()
			if len(errs) != tt.wantErrs {
				t.Errorf("Expected %d validation errors, got %d: %v", tt.wantErrs, len(errs), errs)
			}
		})
	}
}

func TestValidate_ServerPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0

	if errs := cfg.validateServer(); len(errs) != 1 {
		t.Errorf("Expected 1 validation error for port 0, got %d", len(errs))
	}

	cfg.Server.Port = 70000
	if errs := cfg.validateServer(); len(errs) != 1 {
		t.Errorf("Expected 1 validation error for port 70000, got %d", len(errs))
	}
}

func TestValidate_LoggingLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"

	if errs := cfg.validateLogging(); len(errs) != 1 {
		t.Errorf("Expected 1 validation error for invalid level, got %d", len(errs))
	}
}

func TestLoadFrom_MergesOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
session:
  duration_seconds: 120
  interval_seconds: 2
metrics:
  enable_gpu: true
server:
  port: 9900
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Session.DurationSeconds != 120 {
		t.Errorf("Expected duration 120, got %v", cfg.Session.DurationSeconds)
	}
	if cfg.Session.IntervalSeconds != 2 {
		t.Errorf("Expected interval 2, got %v", cfg.Session.IntervalSeconds)
	}
	if cfg.Server.Port != 9900 {
		t.Errorf("Expected port 9900, got %d", cfg.Server.Port)
	}
	// Unset fields keep their defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default logging level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("session: [not a mapping"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadFrom_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
session:
  duration_seconds: -10
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("Expected validation error for negative duration")
	}
}
