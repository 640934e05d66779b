// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the extractor configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Remote service
	APIKey   string `json:"api_key,omitempty"`  // Completion-service API key
	BaseURL  string `json:"base_url,omitempty" validate:"omitempty,url"` // Chat-completions endpoint
	Model    string `json:"model,omitempty"`    // Model identifier
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=openrouter gemini"`

	// Pipeline limits
	MaxAttempts    int     `json:"max_attempts,omitempty" validate:"gte=0,lte=10"` // Retries per chunk
	BatchSize      int     `json:"batch_size,omitempty" validate:"gte=0,lte=50"`   // Resumes per remote call
	MaxWorkers     int     `json:"max_workers,omitempty" validate:"gte=0,lte=64"`  // Concurrent chunks
	ChunkTimeout   int     `json:"chunk_timeout_seconds,omitempty" validate:"gte=0"`
	RequestTimeout int     `json:"request_timeout_seconds,omitempty" validate:"gte=0"` // Single round trip
	RateLimitRPS   float64 `json:"rate_limit_rps,omitempty" validate:"gte=0"`

	// Heuristics
	MinPhoneDigits int `json:"min_phone_digits,omitempty" validate:"gte=0,lte=15"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// validate is the shared validator instance; struct tags carry the rules.
var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are not checked here; CLI flag validation handles those
// after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: field %q fails %q constraint", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}

	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.MaxWorkers == 0 {
		result.MaxWorkers = defaults.MaxWorkers
	}
	if result.ChunkTimeout == 0 {
		result.ChunkTimeout = defaults.ChunkTimeout
	}
	if result.RequestTimeout == 0 {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.RateLimitRPS == 0 {
		result.RateLimitRPS = defaults.RateLimitRPS
	}
	if result.MinPhoneDigits == 0 {
		result.MinPhoneDigits = defaults.MinPhoneDigits
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ChunkTimeoutDuration converts the JSON-friendly seconds field.
func (c *Config) ChunkTimeoutDuration() time.Duration {
	return time.Duration(c.ChunkTimeout) * time.Second
}

// RequestTimeoutDuration converts the JSON-friendly seconds field.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
