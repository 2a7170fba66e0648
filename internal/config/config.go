// Package config loads the award notifier settings from a YAML file with
// AWARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"procurement-award-notifier/internal/notify"
)

// Config holds every setting of the CLI and the HTTP API.
type Config struct {
	Buyer          notify.BuyerIdentity `yaml:"buyer"`
	DatabaseURL    string               `yaml:"database_url"`
	HTTPAddr       string               `yaml:"http_addr"`
	Export         ExportLimit          `yaml:"export"`
	StandstillDays int                  `yaml:"standstill_days"`
	LogLevel       string               `yaml:"log_level"`
}

// ExportLimit is the token bucket guarding ZIP exports.
type ExportLimit struct {
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Burst         int     `yaml:"burst"`
}

// Default returns a configuration that works without a file.
func Default() *Config {
	return &Config{
		HTTPAddr: ":8080",
		Export: ExportLimit{
			RatePerMinute: 6,
			Burst:         2,
		},
		StandstillDays: notify.StandstillDays,
		LogLevel:       "info",
	}
}

// Load reads path (optional), applies environment overrides and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DatabaseURL = getEnvOrDefault("AWARD_DATABASE_URL", c.DatabaseURL)
	c.HTTPAddr = getEnvOrDefault("AWARD_HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = getEnvOrDefault("AWARD_LOG_LEVEL", c.LogLevel)
	c.Buyer.Name = getEnvOrDefault("AWARD_BUYER_NAME", c.Buyer.Name)
	c.Buyer.Representative = getEnvOrDefault("AWARD_BUYER_REPRESENTATIVE", c.Buyer.Representative)

	if value := os.Getenv("AWARD_STANDSTILL_DAYS"); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid AWARD_STANDSTILL_DAYS %q: %w", value, err)
		}
		c.StandstillDays = days
	}
	if value := os.Getenv("AWARD_EXPORT_RATE"); value != "" {
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid AWARD_EXPORT_RATE %q: %w", value, err)
		}
		c.Export.RatePerMinute = rate
	}
	if value := os.Getenv("AWARD_EXPORT_BURST"); value != "" {
		burst, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid AWARD_EXPORT_BURST %q: %w", value, err)
		}
		c.Export.Burst = burst
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.StandstillDays <= 0 {
		errs = append(errs, fmt.Errorf("standstill_days must be positive, got %d", c.StandstillDays))
	}
	if c.Export.RatePerMinute <= 0 {
		errs = append(errs, fmt.Errorf("export.rate_per_minute must be positive, got %g", c.Export.RatePerMinute))
	}
	if c.Export.Burst < 1 {
		errs = append(errs, fmt.Errorf("export.burst must be at least 1, got %d", c.Export.Burst))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level, info when unset.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
