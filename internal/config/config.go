// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jpcarver/versecache/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port         string        `env:"PORT"`
	DBPath       string        `env:"DB_PATH"`
	BackendURL   string        `env:"BACKEND_URL"`
	BackendToken string        `env:"BACKEND_TOKEN"`
	Locales      []string      `env:"LOCALES" envSeparator:","`
	LogLevel     string        `env:"LOG_LEVEL"`
	LogFormat    string        `env:"LOG_FORMAT"`
	SweepEvery   time.Duration `env:"SWEEP_INTERVAL"`

	// AnnotateDisabled is the global opt-out sentinel for the annotator.
	AnnotateDisabled bool `env:"ANNOTATE_DISABLED"`
	// AnnotateSkipPages lists page identifiers the annotator must not touch.
	AnnotateSkipPages []string `env:"ANNOTATE_SKIP_PAGES" envSeparator:","`
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:       constants.DefaultPort,
		DBPath:     constants.DefaultDBPath,
		BackendURL: constants.DefaultBackendURL,
		Locales:    []string{constants.DefaultLanguage},
		LogLevel:   "info",
		LogFormat:  "text",
		SweepEvery: constants.DefaultSweepInterval,
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.BackendURL == "" {
		errors = append(errors, "BACKEND_URL cannot be empty")
	} else if _, err := url.Parse(c.BackendURL); err != nil {
		errors = append(errors, fmt.Sprintf("BACKEND_URL is not a valid URL: %s", c.BackendURL))
	}

	if c.BackendToken == "" {
		errors = append(errors, "BACKEND_TOKEN cannot be empty")
	}

	if len(c.Locales) == 0 {
		errors = append(errors, "LOCALES cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if c.SweepEvery <= 0 {
		errors = append(errors, "SWEEP_INTERVAL must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
