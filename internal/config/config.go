// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Court    CourtConfig    `mapstructure:"court"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Provider ProviderConfig `mapstructure:"provider"`
	DB       DBConfig       `mapstructure:"db"`
	Pacing   PacingConfig   `mapstructure:"pacing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CourtConfig points at the target court site.
type CourtConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	SearchURL string `mapstructure:"search_url"`
}

// HeadlessConfig configures the browser automation sessions.
type HeadlessConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	NavTimeoutSec    int      `mapstructure:"nav_timeout_seconds"`
	Proxy            string   `mapstructure:"proxy"`
	UserAgents       []string `mapstructure:"user_agents"`
	MinThinkTimeMs   int      `mapstructure:"min_think_time_ms"`
	MaxThinkTimeMs   int      `mapstructure:"max_think_time_ms"`
	ProbeEnabled     bool     `mapstructure:"probe_enabled"`
	ProbeTimeoutSec  int      `mapstructure:"probe_timeout_seconds"`
	ProbeUserAgent   string   `mapstructure:"probe_user_agent"`
}

// RetryConfig governs the retry coordinator.
type RetryConfig struct {
	MaxAttempts    int     `mapstructure:"max_attempts"`
	BaseDelayMs    int     `mapstructure:"base_delay_ms"`
	MaxDelayMs     int     `mapstructure:"max_delay_ms"`
	JitterFraction float64 `mapstructure:"jitter_fraction"`
}

// ProviderConfig selects how case results are produced.
type ProviderConfig struct {
	// Mode is "real" (parse the live site) or "mock" (deterministic
	// synthetic results, no browser).
	Mode string `mapstructure:"mode"`
}

// DBConfig controls access to the ledger database.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int32  `mapstructure:"max_open_conns"`
	MinOpenConns int32  `mapstructure:"min_open_conns"`
}

// PacingConfig throttles navigations against the court host.
type PacingConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COURTFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("court.base_url", "https://delhihighcourt.nic.in")
	v.SetDefault("court.search_url", "https://delhihighcourt.nic.in/case-status")
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.min_think_time_ms", 2000)
	v.SetDefault("headless.max_think_time_ms", 5000)
	v.SetDefault("headless.probe_enabled", true)
	v.SetDefault("headless.probe_timeout_seconds", 15)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("retry.max_delay_ms", 10000)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("provider.mode", "mock")
	v.SetDefault("pacing.rps", 0.5)
	v.SetDefault("pacing.burst", 1)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Provider.Mode != "real" && c.Provider.Mode != "mock" {
		return fmt.Errorf("provider.mode must be real or mock")
	}
	if c.Provider.Mode == "real" && c.Court.SearchURL == "" {
		return fmt.Errorf("court.search_url must be set when provider.mode is real")
	}
	if c.Provider.Mode == "real" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when provider.mode is real")
	}
	if c.Retry.MaxAttempts <= 0 || c.Retry.MaxAttempts > 10 {
		return fmt.Errorf("retry.max_attempts must be in 1..10")
	}
	if c.Retry.MaxDelayMs < c.Retry.BaseDelayMs {
		return fmt.Errorf("retry.max_delay_ms must be >= retry.base_delay_ms")
	}
	if c.Retry.JitterFraction < 0 || c.Retry.JitterFraction > 1 {
		return fmt.Errorf("retry.jitter_fraction must be in 0..1")
	}
	return nil
}

// NavTimeout converts the headless timeout to a duration.
func (c HeadlessConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}

// ProbeTimeout converts the probe timeout to a duration.
func (c HeadlessConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec) * time.Second
}

// MinThinkTime converts the minimum think time to a duration.
func (c HeadlessConfig) MinThinkTime() time.Duration {
	return time.Duration(c.MinThinkTimeMs) * time.Millisecond
}

// MaxThinkTime converts the maximum think time to a duration.
func (c HeadlessConfig) MaxThinkTime() time.Duration {
	return time.Duration(c.MaxThinkTimeMs) * time.Millisecond
}

// BaseDelay converts the retry base delay to a duration.
func (c RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// MaxDelay converts the retry delay ceiling to a duration.
func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}
