// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/hauslink/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	ServerURL  string
	DBPath     string
	ListenAddr string // Local control surface; empty disables it
	SeedToken  string // Credential stored on startup when the store is empty
	LogLevel   slog.Level
	Retry      RetryConfig
	Notify     NotifyConfig
	EventTopic domain.Topic
}

// RetryConfig controls stream reconnect backoff.
type RetryConfig struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// NotifyConfig controls notification lifetime.
type NotifyConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	topic, err := domain.ParseTopic(getEnv("HAUSLINK_EVENT_TOPIC", string(domain.TopicSessionDetail)))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: HAUSLINK_EVENT_TOPIC: %w", err)
	}

	cfg := &Config{
		ServerURL:  strings.TrimRight(getEnv("HAUSLINK_URL", getEnv("CLAUDEHAUS_URL", "http://127.0.0.1:8420")), "/"),
		DBPath:     getEnv("HAUSLINK_DB_PATH", "./data/hauslink.db"),
		ListenAddr: getEnv("HAUSLINK_LISTEN", "127.0.0.1:8421"),
		SeedToken:  strings.TrimSpace(getEnv("CLAUDEHAUS_TOKEN", "")),
		LogLevel:   getEnvLevel("HAUSLINK_LOG_LEVEL", slog.LevelInfo),
		Retry: RetryConfig{
			Base:        getEnvDuration("HAUSLINK_RETRY_BASE", time.Second),
			Cap:         getEnvDuration("HAUSLINK_RETRY_CAP", 30*time.Second),
			MaxAttempts: getEnvInt("HAUSLINK_MAX_RETRIES", 10),
		},
		Notify: NotifyConfig{
			TTL: getEnvDuration("HAUSLINK_NOTIFY_TTL", 5*time.Second),
		},
		EventTopic: topic,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("HAUSLINK_URL cannot be empty")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("HAUSLINK_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("HAUSLINK_URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("HAUSLINK_URL missing host")
	}
	if c.DBPath == "" {
		return fmt.Errorf("HAUSLINK_DB_PATH cannot be empty")
	}
	if c.Retry.Base <= 0 {
		return fmt.Errorf("HAUSLINK_RETRY_BASE must be > 0")
	}
	if c.Retry.Cap < c.Retry.Base {
		return fmt.Errorf("HAUSLINK_RETRY_CAP must be >= HAUSLINK_RETRY_BASE")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("HAUSLINK_MAX_RETRIES must be >= 0")
	}
	if c.Notify.TTL <= 0 {
		return fmt.Errorf("HAUSLINK_NOTIFY_TTL must be > 0")
	}
	return nil
}

// IsLocal returns true if the dashboard server runs on this machine.
func (c *Config) IsLocal() bool {
	return strings.Contains(c.ServerURL, "localhost") ||
		strings.Contains(c.ServerURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
