package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     int
	DBPath   string
	APIKey   string
	LogLevel string
	// AI assistance
	AnthropicAPIKey  string
	AnthropicModel   string
	AITimeoutSeconds int
	// Demo fixtures
	SeedFile string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:             envInt("PORT", 8840),
		DBPath:           envStr("PLANNER_DB_PATH", "/data/planner.db"),
		APIKey:           envStr("PLANNER_API_KEY", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey:  envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   envStr("ANTHROPIC_MODEL", ""),
		AITimeoutSeconds: envInt("AI_TIMEOUT_SECONDS", 30),
		SeedFile:         envStr("PLANNER_SEED_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("PLANNER_DB_PATH must not be empty")
	}
	if c.AITimeoutSeconds < 1 {
		return fmt.Errorf("AI_TIMEOUT_SECONDS must be positive, got %d", c.AITimeoutSeconds)
	}
	return nil
}

// AITimeout returns the configured AI call timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
