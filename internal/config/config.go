package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"personachat/internal/completion"
)

// Config holds all personachat settings.
type Config struct {
	APIURL         string  `yaml:"api_url"`
	APIKey         string  `yaml:"api_key,omitempty"`
	FallbackModel  string  `yaml:"fallback_model"`
	RequestTimeout string  `yaml:"request_timeout"`
	TopP           float64 `yaml:"top_p"`

	ModerationEnabled bool `yaml:"moderation_enabled"`

	MockDelayMin string `yaml:"mock_delay_min"`
	MockDelayMax string `yaml:"mock_delay_max"`

	DatabasePath string `yaml:"db_path"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"` // debug, info, warn, error

	DefaultAgent string `yaml:"default_agent"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIURL:            completion.DefaultBaseURL,
		FallbackModel:     completion.DefaultFallbackModel,
		RequestTimeout:    "60s",
		TopP:              completion.DefaultTopP,
		ModerationEnabled: true,
		MockDelayMin:      "1s",
		MockDelayMax:      "2s",
		LogLevel:          "info",
		DefaultAgent:      "jarvis",
	}
}

// Dir is the personachat directory under the user config directory.
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "."
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "personachat")
}

func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path. The API key is never written; it
// lives in the settings database.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides:
//   - SAMBANOVA_API_KEY: api_key
//   - SAMBANOVA_API_URL: api_url
//   - PERSONACHAT_DB: db_path
//   - PERSONACHAT_MODERATION: moderation_enabled
//   - PERSONACHAT_LOG_LEVEL: log_level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("SAMBANOVA_API_KEY"); key != "" {
		c.APIKey = key
	}
	if url := os.Getenv("SAMBANOVA_API_URL"); url != "" {
		c.APIURL = url
	}
	if path := os.Getenv("PERSONACHAT_DB"); path != "" {
		c.DatabasePath = path
	}
	if v := os.Getenv("PERSONACHAT_MODERATION"); v != "" {
		if on, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			c.ModerationEnabled = on
		}
	}
	if level := os.Getenv("PERSONACHAT_LOG_LEVEL"); level != "" {
		c.LogLevel = strings.ToLower(level)
	}
}

func (c *Config) GetRequestTimeout() time.Duration {
	return parseDuration(c.RequestTimeout, completion.DefaultRequestTimeout)
}

func (c *Config) GetMockDelays() (time.Duration, time.Duration) {
	return parseDuration(c.MockDelayMin, completion.DefaultMockMinDelay),
		parseDuration(c.MockDelayMax, completion.DefaultMockMaxDelay)
}

func (c *Config) GetLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(Dir(), "personachat.log")
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

var ValidLogLevels = []string{"debug", "info", "warn", "error"}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("invalid api_url: %s", c.APIURL)
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be in (0,1], got %v", c.TopP)
	}
	for _, field := range []struct{ name, value string }{
		{"request_timeout", c.RequestTimeout},
		{"mock_delay_min", c.MockDelayMin},
		{"mock_delay_max", c.MockDelayMax},
	} {
		if field.value == "" {
			continue
		}
		if d, err := time.ParseDuration(field.value); err != nil || d < 0 {
			return fmt.Errorf("invalid %s: %q", field.name, field.value)
		}
	}
	lo, hi := c.GetMockDelays()
	if hi < lo {
		return fmt.Errorf("mock_delay_max (%s) is below mock_delay_min (%s)", hi, lo)
	}

	valid := false
	for _, l := range ValidLogLevels {
		if c.LogLevel == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log_level: %s (valid: %v)", c.LogLevel, ValidLogLevels)
	}
	return nil
}
