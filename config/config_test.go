package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"research-bot/retry"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("GROQ_URL", "")
	t.Setenv("GROQ_MODEL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TelegramToken != "tg-token" || cfg.GroqAPIKey != "groq-key" {
		t.Errorf("env vars not picked up: %+v", cfg)
	}
	if cfg.GroqURL != "https://api.groq.com/openai/v1/chat/completions" {
		t.Errorf("default GroqURL not applied: %q", cfg.GroqURL)
	}
	if cfg.GroqModel != "llama3-70b-8192" {
		t.Errorf("default GroqModel not applied: %q", cfg.GroqModel)
	}
	if cfg.Retry.MaxAttempts != retry.DefaultPolicy.MaxAttempts {
		t.Errorf("retry defaults not applied: %+v", cfg.Retry)
	}
}

func TestLoadRetryOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
retry:
  max_attempts: 4
  base_wait_seconds: 1.5
  max_wait_seconds: 20
  multiplier: 3
  transient_markers: ["rate limit", "slow down"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseWait != 1500*time.Millisecond {
		t.Errorf("BaseWait = %v, want 1.5s", cfg.Retry.BaseWait)
	}
	if cfg.Retry.MaxWait != 20*time.Second {
		t.Errorf("MaxWait = %v, want 20s", cfg.Retry.MaxWait)
	}
	if cfg.Retry.Multiplier != 3 {
		t.Errorf("Multiplier = %v, want 3", cfg.Retry.Multiplier)
	}
	if len(cfg.Retry.TransientMarkers) != 2 || cfg.Retry.TransientMarkers[1] != "slow down" {
		t.Errorf("markers not overridden: %v", cfg.Retry.TransientMarkers)
	}
}

func TestLoadPartialOverlayKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  max_attempts: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseWait != retry.DefaultPolicy.BaseWait {
		t.Errorf("BaseWait changed unexpectedly: %v", cfg.Retry.BaseWait)
	}
	if len(cfg.Retry.TransientMarkers) == 0 {
		t.Error("markers lost on partial overlay")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing optional file must not error: %v", err)
	}
	if cfg.Retry.MaxAttempts != retry.DefaultPolicy.MaxAttempts {
		t.Errorf("defaults not applied: %+v", cfg.Retry)
	}
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("retry: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}
