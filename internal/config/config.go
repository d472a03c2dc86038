// Package config loads runtime configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the environment variable prefix for overrides.
	EnvPrefix = "SEOFORGE"
	// ConfigDir is the default config directory name.
	ConfigDir = ".seoforge"
	// ConfigFile is the default config file name.
	ConfigFile = "config.yaml"
)

// Config is the root configuration struct.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Limits  LimitsConfig  `yaml:"limits"`
	Publish PublishConfig `yaml:"publish"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

// PathsConfig groups filesystem locations.
type PathsConfig struct {
	DBPath string `yaml:"dbPath" envconfig:"DB_PATH"`
}

// LimitsConfig holds the safety thresholds. Values are seeded into
// system_state at startup and read back at every decision point, so operators
// can retune a running system through the store.
type LimitsConfig struct {
	MaxPublicationsPerDay  int     `yaml:"maxPublicationsPerDay" envconfig:"MAX_PUBLICATIONS_PER_DAY"`
	MaxSimilarityThreshold float64 `yaml:"maxSimilarityThreshold" envconfig:"MAX_SIMILARITY_THRESHOLD"`
	MaxErrorsBeforePause   int     `yaml:"maxErrorsBeforePause" envconfig:"MAX_ERRORS_BEFORE_PAUSE"`
	PauseDurationHours     int     `yaml:"pauseDurationHours" envconfig:"PAUSE_DURATION_HOURS"`
	MinPublishDelayHours   int     `yaml:"minPublishDelayHours" envconfig:"MIN_PUBLISH_DELAY_HOURS"`
	MaxPublishAttempts     int     `yaml:"maxPublishAttempts" envconfig:"MAX_PUBLISH_ATTEMPTS"`
}

// PublishConfig configures the outbound site-publishing collaborator.
type PublishConfig struct {
	EndpointURL    string `yaml:"endpointUrl" envconfig:"PUBLISH_ENDPOINT_URL"`
	AuthToken      string `yaml:"authToken" envconfig:"PUBLISH_AUTH_TOKEN"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" envconfig:"PUBLISH_TIMEOUT_SECONDS"`
}

// AlertsConfig configures the outbound alert sinks.
type AlertsConfig struct {
	SlackWebhookURL string   `yaml:"slackWebhookUrl" envconfig:"SLACK_WEBHOOK_URL"`
	SlackChannel    string   `yaml:"slackChannel" envconfig:"SLACK_CHANNEL"`
	KafkaBrokers    []string `yaml:"kafkaBrokers" envconfig:"KAFKA_BROKERS"`
	KafkaTopic      string   `yaml:"kafkaTopic" envconfig:"KAFKA_TOPIC"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Paths: PathsConfig{
			DBPath: filepath.Join(home, ConfigDir, "seoforge.db"),
		},
		Limits: LimitsConfig{
			MaxPublicationsPerDay:  5,
			MaxSimilarityThreshold: 0.70,
			MaxErrorsBeforePause:   10,
			PauseDurationHours:     48,
			MinPublishDelayHours:   24,
			MaxPublishAttempts:     3,
		},
		Publish: PublishConfig{
			TimeoutSeconds: 30,
		},
		Alerts: AlertsConfig{
			KafkaTopic: "seoforge.alerts",
		},
	}
}

// Path returns the config file path, honoring SEOFORGE_CONFIG.
func Path() (string, error) {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load reads the YAML file (missing file means defaults) and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process env overrides: %w", err)
	}
	cfg.applyFloors()
	return cfg, nil
}

func (c *Config) applyFloors() {
	d := Default()
	if c.Limits.MaxPublicationsPerDay <= 0 {
		c.Limits.MaxPublicationsPerDay = d.Limits.MaxPublicationsPerDay
	}
	if c.Limits.MaxSimilarityThreshold <= 0 || c.Limits.MaxSimilarityThreshold > 1 {
		c.Limits.MaxSimilarityThreshold = d.Limits.MaxSimilarityThreshold
	}
	if c.Limits.MaxErrorsBeforePause <= 0 {
		c.Limits.MaxErrorsBeforePause = d.Limits.MaxErrorsBeforePause
	}
	if c.Limits.PauseDurationHours <= 0 {
		c.Limits.PauseDurationHours = d.Limits.PauseDurationHours
	}
	if c.Limits.MinPublishDelayHours <= 0 {
		c.Limits.MinPublishDelayHours = d.Limits.MinPublishDelayHours
	}
	if c.Limits.MaxPublishAttempts <= 0 {
		c.Limits.MaxPublishAttempts = d.Limits.MaxPublishAttempts
	}
	if c.Publish.TimeoutSeconds <= 0 {
		c.Publish.TimeoutSeconds = d.Publish.TimeoutSeconds
	}
}

// PublishTimeout returns the bounded site-write timeout.
func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.Publish.TimeoutSeconds) * time.Second
}

// PauseDuration returns the automatic kill-switch pause window.
func (c *Config) PauseDuration() time.Duration {
	return time.Duration(c.Limits.PauseDurationHours) * time.Hour
}

// MinPublishDelay returns the mandatory approval-to-publication delay.
func (c *Config) MinPublishDelay() time.Duration {
	return time.Duration(c.Limits.MinPublishDelayHours) * time.Hour
}

// Loader re-reads configuration on demand so a running process can pick up
// file changes without a restart.
type Loader struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewLoader loads the initial configuration from path.
func NewLoader(path string) (*Loader, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Loader{path: path, cfg: cfg}, nil
}

// Current returns the last loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Reload re-reads the file and swaps the configuration atomically.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return cfg, nil
}
