// Package config provides configuration loading and validation for the
// console.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults for fields that are optional everywhere.
const (
	DefaultPort         = 8080
	DefaultPollInterval = 10
)

// Config represents the console configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or
// environment fallbacks.
type Config struct {
	BackendURL   string `json:"backend_url,omitempty"`   // Remote job backend base URL
	APIKey       string `json:"api_key,omitempty"`       // Gemini API key for simulations
	Model        string `json:"model,omitempty"`         // Generative model name
	Port         int    `json:"port,omitempty"`          // HTTP listen port
	PollInterval int    `json:"poll_interval,omitempty"` // Reconciliation period, seconds
	Verbose      bool   `json:"verbose,omitempty"`       // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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

// FromEnv fills unset fields from environment variables.
func (c *Config) FromEnv() {
	if c.BackendURL == "" {
		c.BackendURL = os.Getenv("CELIA_BACKEND_URL")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Model == "" {
		c.Model = os.Getenv("CELIA_MODEL")
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("config error: 'backend_url' is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be in [0, 65535]")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("config error: 'poll_interval' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. Used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.BackendURL == "" {
		result.BackendURL = defaults.BackendURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.PollInterval == 0 {
		result.PollInterval = defaults.PollInterval
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}
