package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("COUNTDOWN_POLL_INTERVAL", "2m")
	t.Setenv("COUNTDOWN_EMPTY_BODY_INTERVAL", "10s")
	t.Setenv("COUNTDOWN_STATUS_URL", "http://status.test/status.txt")
	t.Setenv("COUNTDOWN_METRICS_ENABLED", "true")
	t.Setenv("COUNTDOWN_METRICS_PORT", "9100")
	t.Setenv("COUNTDOWN_BACKOFF_CEILING", "500s")

	s := DefaultSettings()
	if err := ApplyEnvOverrides(s); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}
	if s.PollInterval != 2*time.Minute {
		t.Fatalf("expected poll 2m, got %v", s.PollInterval)
	}
	if s.EmptyBodyInterval != 10*time.Second {
		t.Fatalf("expected empty body 10s, got %v", s.EmptyBodyInterval)
	}
	if s.StatusURL != "http://status.test/status.txt" {
		t.Fatalf("unexpected status url: %s", s.StatusURL)
	}
	if !s.MetricsEnabled || s.MetricsPort != 9100 {
		t.Fatalf("unexpected metrics config: %v %d", s.MetricsEnabled, s.MetricsPort)
	}
	if s.BackoffCeiling != 500*time.Second {
		t.Fatalf("unexpected backoff ceiling: %v", s.BackoffCeiling)
	}
	// unset variables keep defaults
	if s.HTTPErrorInterval != 180*time.Second {
		t.Fatalf("expected default http error interval, got %v", s.HTTPErrorInterval)
	}
}

func TestApplyEnvOverridesInvalid(t *testing.T) {
	t.Setenv("COUNTDOWN_POLL_INTERVAL", "soon")
	if err := ApplyEnvOverrides(DefaultSettings()); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing dotenv should be ignored, got %v", err)
	}

	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("COUNTDOWN_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// register for restoration; LoadDotEnv only sets variables that are unset
	t.Setenv("COUNTDOWN_LOG_LEVEL", "")
	os.Unsetenv("COUNTDOWN_LOG_LEVEL")
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	s := DefaultSettings()
	if err := ApplyEnvOverrides(s); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}
	if s.LogLevel != "debug" {
		t.Fatalf("expected log level from dotenv, got %q", s.LogLevel)
	}
}
