// Package config loads taerae settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `validate:"required,oneof=development production test"`
	LogLevel  string `validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat string `validate:"omitempty,oneof=text json"`

	// Channels
	Channel           string `validate:"required"`
	PluginSearchPaths []string

	// Runtime
	CallTimeout      time.Duration `validate:"gt=0"`
	BreakerEnabled   bool
	BreakerThreshold int           `validate:"gte=1,lte=1000"`
	BreakerTimeout   time.Duration `validate:"gt=0"`

	// MCP
	MCPAddr      string `validate:"required,hostname_port"`
	MCPAuthToken string

	// PluginConfig is JSON passed to every plugin process.
	PluginConfig string `validate:"omitempty,json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("TAERAE_ENV", "development"),
		LogLevel:  getEnv("TAERAE_LOG_LEVEL", "info"),
		LogFormat: getEnv("TAERAE_LOG_FORMAT", ""),

		Channel:           getEnv("TAERAE_CHANNEL", "flutter_taerae"),
		PluginSearchPaths: getPathListEnv("TAERAE_PLUGIN_PATH"),

		CallTimeout:      getDurationEnv("TAERAE_CALL_TIMEOUT", 5*time.Second),
		BreakerEnabled:   getBoolEnv("TAERAE_BREAKER_ENABLED", true),
		BreakerThreshold: getIntEnv("TAERAE_BREAKER_THRESHOLD", 5),
		BreakerTimeout:   getDurationEnv("TAERAE_BREAKER_TIMEOUT", 30*time.Second),

		MCPAddr:      getEnv("TAERAE_MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("TAERAE_MCP_AUTH_TOKEN", ""),

		PluginConfig: getEnv("TAERAE_PLUGIN_CONFIG", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getPathListEnv splits a PATH-style list using the OS list separator.
func getPathListEnv(key string) []string {
	var paths []string
	for _, p := range filepath.SplitList(os.Getenv(key)) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
