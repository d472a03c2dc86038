package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.MaxPublicationsPerDay != 5 {
		t.Fatalf("expected daily cap 5, got %d", cfg.Limits.MaxPublicationsPerDay)
	}
	if cfg.Limits.MaxSimilarityThreshold != 0.70 {
		t.Fatalf("expected threshold 0.70, got %f", cfg.Limits.MaxSimilarityThreshold)
	}
	if cfg.MinPublishDelay() != 24*time.Hour {
		t.Fatalf("expected 24h delay, got %v", cfg.MinPublishDelay())
	}
	if cfg.PublishTimeout() != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.PublishTimeout())
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
limits:
  maxPublicationsPerDay: 2
  maxSimilarityThreshold: 0.5
  pauseDurationHours: 12
publish:
  endpointUrl: https://publisher.internal/api
alerts:
  slackWebhookUrl: https://hooks.slack.com/services/T0/B0/x
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.MaxPublicationsPerDay != 2 || cfg.Limits.MaxSimilarityThreshold != 0.5 {
		t.Fatalf("yaml limits not applied: %+v", cfg.Limits)
	}
	if cfg.PauseDuration() != 12*time.Hour {
		t.Fatalf("expected 12h pause, got %v", cfg.PauseDuration())
	}
	if cfg.Publish.EndpointURL != "https://publisher.internal/api" {
		t.Fatalf("publish endpoint not applied: %q", cfg.Publish.EndpointURL)
	}
	if cfg.Alerts.SlackWebhookURL == "" {
		t.Fatal("slack webhook not applied")
	}
	// Untouched keys keep their defaults.
	if cfg.Limits.MaxPublishAttempts != 3 {
		t.Fatalf("expected default attempts 3, got %d", cfg.Limits.MaxPublishAttempts)
	}
}

func TestEnvOverridesBeatYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("limits:\n  maxPublicationsPerDay: 2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SEOFORGE_MAX_PUBLICATIONS_PER_DAY", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.MaxPublicationsPerDay != 7 {
		t.Fatalf("expected env override 7, got %d", cfg.Limits.MaxPublicationsPerDay)
	}
}

func TestFloorsRejectNonsenseValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "limits:\n  maxPublicationsPerDay: -3\n  maxSimilarityThreshold: 1.5\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.MaxPublicationsPerDay != 5 {
		t.Fatalf("expected floor to restore 5, got %d", cfg.Limits.MaxPublicationsPerDay)
	}
	if cfg.Limits.MaxSimilarityThreshold != 0.70 {
		t.Fatalf("expected floor to restore 0.70, got %f", cfg.Limits.MaxSimilarityThreshold)
	}
}

func TestPathHonorsExplicitEnv(t *testing.T) {
	t.Setenv("SEOFORGE_CONFIG", "/etc/seoforge/config.yaml")
	got, err := Path()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if got != "/etc/seoforge/config.yaml" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestLoaderReloadSwapsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("limits:\n  maxPublicationsPerDay: 2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader, err := NewLoader(path)
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	if loader.Current().Limits.MaxPublicationsPerDay != 2 {
		t.Fatalf("initial load: %+v", loader.Current().Limits)
	}

	if err := os.WriteFile(path, []byte("limits:\n  maxPublicationsPerDay: 4\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if _, err := loader.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loader.Current().Limits.MaxPublicationsPerDay != 4 {
		t.Fatalf("expected reloaded value 4, got %d", loader.Current().Limits.MaxPublicationsPerDay)
	}
}
