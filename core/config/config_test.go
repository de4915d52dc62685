package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProgressThrottle != 8*time.Second {
		t.Errorf("expected default progress throttle 8s, got %v", cfg.ProgressThrottle)
	}
	if cfg.FirstProgressThreshold != 15*time.Second {
		t.Errorf("expected default first progress threshold 15s, got %v", cfg.FirstProgressThreshold)
	}
	if cfg.HardTimeout != 60*time.Second {
		t.Errorf("expected default hard timeout 60s, got %v", cfg.HardTimeout)
	}
	if cfg.MaxToolRounds != 6 {
		t.Errorf("expected default max tool rounds 6, got %d", cfg.MaxToolRounds)
	}
	if cfg.UpdateVerbosity != "verbose" {
		t.Errorf("expected default verbosity verbose, got %q", cfg.UpdateVerbosity)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ARIA_PROGRESS_THROTTLE", "2s")
	t.Setenv("ARIA_FIRST_PROGRESS_THRESHOLD", "5s")
	t.Setenv("ARIA_HARD_TIMEOUT", "30s")
	t.Setenv("ARIA_MAX_TOOL_ROUNDS", "3")
	t.Setenv("ARIA_UPDATE_VERBOSITY", "minimal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProgressThrottle != 2*time.Second {
		t.Errorf("expected progress throttle 2s, got %v", cfg.ProgressThrottle)
	}
	if cfg.FirstProgressThreshold != 5*time.Second {
		t.Errorf("expected first progress threshold 5s, got %v", cfg.FirstProgressThreshold)
	}
	if cfg.HardTimeout != 30*time.Second {
		t.Errorf("expected hard timeout 30s, got %v", cfg.HardTimeout)
	}
	if cfg.MaxToolRounds != 3 {
		t.Errorf("expected max tool rounds 3, got %d", cfg.MaxToolRounds)
	}
	if cfg.UpdateVerbosity != "minimal" {
		t.Errorf("expected verbosity minimal, got %q", cfg.UpdateVerbosity)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, tc := range []struct {
		name  string
		key   string
		value string
	}{
		{"malformed duration", "ARIA_HARD_TIMEOUT", "sixty"},
		{"negative duration", "ARIA_PROGRESS_THROTTLE", "-2s"},
		{"zero rounds", "ARIA_MAX_TOOL_ROUNDS", "0"},
		{"unknown verbosity", "ARIA_UPDATE_VERBOSITY", "chatty"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}
