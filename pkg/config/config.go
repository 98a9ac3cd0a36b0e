package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

type Config struct {
	API     APIConfig     `toml:"api"`
	Search  SearchConfig  `toml:"search"`
	Console ConsoleConfig `toml:"console"`
}

// APIConfig describes how to reach the registry REST API.
type APIConfig struct {
	BaseURL           string   `toml:"base_url"`
	Token             string   `toml:"token"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	Limit            int      `toml:"limit"`
	PageSize         int      `toml:"page_size"`
	Locale           string   `toml:"locale"`
	ProgressStep     int      `toml:"progress_step"`
	ProgressInterval Duration `toml:"progress_interval"`
	ProgressCap      int      `toml:"progress_cap"`
}

// ConsoleConfig configures the web console.
type ConsoleConfig struct {
	Host       string   `toml:"host"`
	Port       string   `toml:"port"`
	SessionTTL Duration `toml:"session_ttl"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

const (
	DefaultBaseURL           = "http://localhost:8000/api/v1"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultLimit             = 1000
	DefaultPageSize          = 20
	DefaultLocale            = "en"
	DefaultProgressStep      = 10
	DefaultProgressInterval  = 100 * time.Millisecond
	DefaultProgressCap       = 90
	DefaultHost              = "localhost"
	DefaultPort              = "8080"
	DefaultSessionTTL        = 30 * time.Minute
)

func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the configuration at configPath. A missing file yields
// the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout = Duration{DefaultTimeout}
	}
	if c.API.RequestsPerSecond == 0 {
		c.API.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = DefaultLimit
	}
	if c.Search.PageSize == 0 {
		c.Search.PageSize = DefaultPageSize
	}
	if c.Search.Locale == "" {
		c.Search.Locale = DefaultLocale
	}
	if c.Search.ProgressStep == 0 {
		c.Search.ProgressStep = DefaultProgressStep
	}
	if c.Search.ProgressInterval.Duration == 0 {
		c.Search.ProgressInterval = Duration{DefaultProgressInterval}
	}
	if c.Search.ProgressCap == 0 {
		c.Search.ProgressCap = DefaultProgressCap
	}
	if c.Console.Host == "" {
		c.Console.Host = DefaultHost
	}
	if c.Console.Port == "" {
		c.Console.Port = DefaultPort
	}
	if c.Console.SessionTTL.Duration == 0 {
		c.Console.SessionTTL = Duration{DefaultSessionTTL}
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}
	if c.Search.Limit < 0 {
		return fmt.Errorf("search.limit must be positive")
	}
	if c.Search.PageSize < 0 {
		return fmt.Errorf("search.page_size must be positive")
	}
	if c.Search.ProgressCap < 0 || c.Search.ProgressCap > 100 {
		return fmt.Errorf("search.progress_cap must be between 0 and 100")
	}
	return nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample configuration.
func SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// GetConfigDir returns the configuration directory for regsearch
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "regsearch"), nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
