package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Data   DataConfig   `yaml:"data"`
	Safety SafetyConfig `yaml:"safety"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ModelConfig LLM model configuration. Sampling temperature is always zero.
type ModelConfig struct {
	APIKey         string `yaml:"api_key,omitempty" env:"OPENAI_API_KEY"`
	BaseURL        string `yaml:"base_url" env:"DATAMATE_MODEL_BASE_URL"`
	Model          string `yaml:"model" env:"DATAMATE_MODEL"`
	MaxTokens      int    `yaml:"max_tokens" env:"DATAMATE_MODEL_MAX_TOKENS"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"DATAMATE_MODEL_TIMEOUT_SECONDS"`
}

// DataConfig dataset store configuration
type DataConfig struct {
	DBPath                 string `yaml:"db_path" env:"DATAMATE_DB_PATH"`
	MaxOpenConns           int    `yaml:"max_open_conns" env:"DATAMATE_DB_MAX_OPEN_CONNS"`
	ConnMaxLifetimeSeconds int    `yaml:"conn_max_lifetime_seconds" env:"DATAMATE_DB_CONN_MAX_LIFETIME_SECONDS"`
}

// SafetyConfig safety configuration
type SafetyConfig struct {
	ExtraDenylist []string `yaml:"extra_denylist" env:"DATAMATE_SAFETY_EXTRA_DENYLIST" envSeparator:","`
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Addr string `yaml:"addr" env:"DATAMATE_SERVER_ADDR"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level   string `yaml:"level" env:"DATAMATE_LOG_LEVEL"`
	Dir     string `yaml:"dir" env:"DATAMATE_LOG_DIR"`
	MaxDays int    `yaml:"max_days" env:"DATAMATE_LOG_MAX_DAYS"`
	Console bool   `yaml:"console" env:"DATAMATE_LOG_CONSOLE"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			APIKey:         "",
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			MaxTokens:      128,
			TimeoutSeconds: 30,
		},
		Data: DataConfig{
			DBPath:                 filepath.Join("data", "sales_data.db"),
			MaxOpenConns:           4,
			ConnMaxLifetimeSeconds: 300,
		},
		Safety: SafetyConfig{
			ExtraDenylist: []string{},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:   "info",
			MaxDays: 7,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds the configuration from defaults, config.yaml, .secrets and
// the process environment, in that order of precedence (lowest first).
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// first run writes the defaults so users have something to edit
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, err
	}
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = secrets.GetOpenAIAPIKey()
	}

	if err := applyEnv(cfg, nil); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. A nil environ reads the
// process environment. Unset variables leave the current value alone.
func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// Save saves configuration to file. The API key is never written.
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	stripped := *cfg
	stripped.Model.APIKey = ""

	data, err := yaml.Marshal(&stripped)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# DataMate Configuration File\n# Put OPENAI_API_KEY in .secrets next to this file, or export it.\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.BaseURL) == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config error: model.max_tokens must be greater than 0")
	}
	if c.Model.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: model.timeout_seconds must be greater than 0")
	}

	if strings.TrimSpace(c.Data.DBPath) == "" {
		return fmt.Errorf("config error: data.db_path cannot be empty")
	}
	if c.Data.MaxOpenConns < 0 {
		return fmt.Errorf("config error: data.max_open_conns cannot be negative")
	}
	if c.Data.ConnMaxLifetimeSeconds < 0 {
		return fmt.Errorf("config error: data.conn_max_lifetime_seconds cannot be negative")
	}

	for _, term := range c.Safety.ExtraDenylist {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("config error: safety.extra_denylist cannot contain empty terms")
		}
	}

	if c.Log.MaxDays < 0 {
		return fmt.Errorf("config error: log.max_days cannot be negative")
	}

	return nil
}

// IsAPIKeyConfigured checks if API key is configured
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// Timeout returns the per-call model deadline
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Model.TimeoutSeconds) * time.Second
}

// ConnMaxLifetime returns the pooled connection lifetime, zero meaning unlimited
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.Data.ConnMaxLifetimeSeconds) * time.Second
}

// LogDirectory returns log.dir, or the logs folder under the config directory
func (c *Config) LogDirectory() string {
	if c.Log.Dir != "" {
		return c.Log.Dir
	}
	return LogDir()
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	extra := "(none)"
	if len(c.Safety.ExtraDenylist) > 0 {
		extra = strings.Join(c.Safety.ExtraDenylist, ", ")
	}

	return fmt.Sprintf(`DataMate Configuration:
  Model:
    API Key: %s
    Base URL: %s
    Model: %s
    Max Tokens: %d
    Timeout Seconds: %d
  Data:
    DB Path: %s
    Max Open Conns: %d
    Conn Max Lifetime Seconds: %d
  Safety:
    Extra Denylist: %s
  Server:
    Addr: %s
  Log:
    Level: %s
    Dir: %s
    Max Days: %d
    Console: %v`,
		redactAPIKey(c.Model.APIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.MaxTokens,
		c.Model.TimeoutSeconds,
		c.Data.DBPath,
		c.Data.MaxOpenConns,
		c.Data.ConnMaxLifetimeSeconds,
		extra,
		c.Server.Addr,
		c.Log.Level,
		c.LogDirectory(),
		c.Log.MaxDays,
		c.Log.Console,
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	return "***"
}
