// Package config loads studentlens settings from a YAML file with
// environment-variable overrides. Precedence, lowest to highest:
// built-in defaults, config file, STUDENTLENS_* environment variables,
// command-line flags (applied by the caller).
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
}

// APIConfig describes how to reach the prediction service.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

// UIConfig holds dashboard appearance settings.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			TimeoutMS: 30000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// DefaultPath returns the per-user config file location,
// e.g. ~/.config/studentlens/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "studentlens", "config.yaml"), nil
}

// Load builds a Config from defaults, the YAML file at path, and
// environment overrides, then validates the result. A missing file is
// not an error; defaults plus environment apply. Callers that pass an
// explicitly requested path should check it exists first.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv layers STUDENTLENS_* variables over cfg.
func applyEnv(cfg *Config) error {
	envOverride(&cfg.API.BaseURL, "STUDENTLENS_API_URL")
	if err := envOverrideInt(&cfg.API.TimeoutMS, "STUDENTLENS_TIMEOUT_MS"); err != nil {
		return err
	}
	envOverride(&cfg.Logging.Level, "STUDENTLENS_LOG_LEVEL")
	if err := envOverrideBool(&cfg.Logging.Dev, "STUDENTLENS_DEV_LOG"); err != nil {
		return err
	}
	envOverride(&cfg.UI.Theme, "STUDENTLENS_THEME")
	return nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

// Validate checks the assembled configuration. Errors here abort startup
// so a bad base URL fails fast instead of surfacing as a confusing
// network error later.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url %q: %w", c.API.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api.base_url %q: scheme must be http or https", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: missing host", c.API.BaseURL)
	}
	if c.API.TimeoutMS <= 0 {
		return fmt.Errorf("invalid api.timeout_ms %d: must be > 0", c.API.TimeoutMS)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q: must be debug, info, warn, or error", c.Logging.Level)
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("invalid ui.theme %q: must be dark, light, or auto", c.UI.Theme)
	}
	return nil
}

// configHeader documents the override order inside generated files.
const configHeader = `# studentlens configuration.
# Command-line flags and STUDENTLENS_API_URL, STUDENTLENS_TIMEOUT_MS,
# STUDENTLENS_LOG_LEVEL, STUDENTLENS_DEV_LOG and STUDENTLENS_THEME
# override the values below.
`

// Write saves c as commented YAML at path, creating parent directories
// as needed. Used by `studentlens config init`.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append([]byte(configHeader), data...)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// YAML renders the effective configuration, used by `studentlens config show`.
func (c Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}
