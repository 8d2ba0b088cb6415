// Package config loads the server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the teamshop server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string `yaml:"addr"`

	// DatabaseURL selects the PostgreSQL store when set; empty means the
	// in-memory store.
	DatabaseURL string `yaml:"database_url"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// MutationRateLimit caps mutation requests per second per client
	// address; zero disables limiting.
	MutationRateLimit int `yaml:"mutation_rate_limit"`
	MutationBurst     int `yaml:"mutation_burst"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:              ":8000",
		MutationRateLimit: 20,
		MutationBurst:     40,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadOrDefault loads config.yaml when present and otherwise falls back to
// defaults plus environment overrides.
func LoadOrDefault(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = Default()
		cfg.applyEnv()
	}
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TEAMSHOP_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("TEAMSHOP_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MutationRateLimit = n
		}
	}
	if v := os.Getenv("TEAMSHOP_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MutationBurst = n
		}
	}
}
