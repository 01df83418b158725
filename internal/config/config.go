// Package config loads process configuration from the environment, with
// a .env file as an optional local override source. Every tunable has a
// default; validation runs once at startup and bad values are fatal.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/RJDCTM/autotrader/internal/monitor"
	"github.com/RJDCTM/autotrader/internal/risk"
	"github.com/RJDCTM/autotrader/internal/scoring"
)

type Config struct {
	PollIntervalSec int    `envconfig:"POLL_INTERVAL_SEC" default:"60"`
	StatePath       string `envconfig:"STATE_PATH" default:"portfolio_state.json"`
	MetricsAddr     string `envconfig:"METRICS_ADDR" default:""`
	Timezone        string `envconfig:"TIMEZONE" default:"America/New_York"`

	LogFile       string `envconfig:"LOG_FILE" default:"autotrader.log"`
	MaxLogSizeMB  int64  `envconfig:"MAX_LOG_SIZE_MB" default:"10"`
	MaxLogBackups int    `envconfig:"MAX_LOG_BACKUPS" default:"5"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"INFO"`

	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID" default:""`

	// Universe is the comma-separated candidate ticker list; FlowPath is
	// the JSON file the upstream flow collector refreshes.
	Universe []string `envconfig:"UNIVERSE" default:""`
	FlowPath string   `envconfig:"FLOW_PATH" default:"flow_metrics.json"`

	Weights    scoring.Weights
	Gate       scoring.GateConfig
	Conviction scoring.ConvictionConfig
	Actions    scoring.ActionThresholds
	Sizer      risk.SizerConfig
	Breaker    risk.BreakerConfig
	Exits      monitor.ExitConfig
}

// Load reads .env if present, fills the config from the environment and
// validates every section.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.PollIntervalSec <= 0 {
		return fmt.Errorf("poll interval must be > 0 seconds")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Actions.Validate(); err != nil {
		return err
	}
	if err := c.Sizer.Validate(); err != nil {
		return err
	}
	if err := c.Breaker.Validate(); err != nil {
		return err
	}
	return c.Exits.Validate()
}

// Location resolves the configured timezone. Call after Validate.
func (c Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}
