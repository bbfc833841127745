// Package config loads environment backed configuration for the client core.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the FoodBridge client core.
type Config struct {
	// Backend API
	APIBaseURL  string        `env:"API_BASE_URL,notEmpty"`
	AuthToken   string        `env:"AUTH_TOKEN"`
	UserID      string        `env:"USER_ID,notEmpty"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// Realtime capability. Push is attempted only when both values are set;
	// otherwise conversation sync goes straight to polling.
	RealtimeURL string `env:"REALTIME_URL"`
	RealtimeKey string `env:"REALTIME_KEY"`

	// Refresh cadences
	FeedRefreshInterval  time.Duration `env:"FEED_REFRESH_INTERVAL" envDefault:"90s"`
	MessagePollInterval  time.Duration `env:"MESSAGE_POLL_INTERVAL" envDefault:"3s"`
	BadgeRefreshInterval time.Duration `env:"BADGE_REFRESH_INTERVAL" envDefault:"30s"`
	SubscribeTimeout     time.Duration `env:"SUBSCRIBE_TIMEOUT" envDefault:"5s"`

	// Observability / lifecycle
	MetricsPort     int           `env:"METRICS_PORT" envDefault:"9091"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, fmt.Errorf("API_BASE_URL must be an http(s) URL, got %q", cfg.APIBaseURL)
	}
	for name, d := range map[string]time.Duration{
		"FEED_REFRESH_INTERVAL":  cfg.FeedRefreshInterval,
		"MESSAGE_POLL_INTERVAL":  cfg.MessagePollInterval,
		"BADGE_REFRESH_INTERVAL": cfg.BadgeRefreshInterval,
		"SUBSCRIBE_TIMEOUT":      cfg.SubscribeTimeout,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive", name)
		}
	}

	return cfg, nil
}

// RealtimeEnabled reports whether the push capability is configured.
// Both the endpoint and the access key must be present.
func (c *Config) RealtimeEnabled() bool {
	return strings.TrimSpace(c.RealtimeURL) != "" && strings.TrimSpace(c.RealtimeKey) != ""
}

// MetricsAddr returns the metrics listen address.
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}
