package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SearchFiles is the lookup order for a config file when none is given.
var SearchFiles = []string{"contract-metadata.toml", "contract-metadata.yaml", "contract-metadata.yml"}

// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Config holds all configuration for the registry tooling
type Config struct {
	Registry RegistryConfig `toml:"registry" yaml:"registry"`
	Fetch    FetchConfig    `toml:"fetch" yaml:"fetch"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	Export   ExportConfig   `toml:"export" yaml:"export"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`

	// Source is the file the configuration was read from, if any.
	Source string `toml:"-" yaml:"-"`
}

// RegistryConfig locates the registry checkout
type RegistryConfig struct {
	Root string `toml:"root" yaml:"root"`
}

// FetchConfig holds remote image download settings
type FetchConfig struct {
	TimeoutSeconds int     `toml:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRedirects   int     `toml:"max_redirects" yaml:"max_redirects"`
	MaxSizeMB      int     `toml:"max_size_mb" yaml:"max_size_mb"`
	RatePerSecond  float64 `toml:"rate_per_second" yaml:"rate_per_second"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "console" or "json"
}

// ExportConfig holds token list export settings
type ExportConfig struct {
	TokenListName string   `toml:"token_list_name" yaml:"token_list_name"`
	TokenListLogo string   `toml:"logo_uri" yaml:"logo_uri"`
	LogoBaseURL   string   `toml:"logo_base_url" yaml:"logo_base_url"`
	Keywords      []string `toml:"keywords" yaml:"keywords"`
	Version       string   `toml:"version" yaml:"version"`
}

// MetricsConfig holds metrics output settings
type MetricsConfig struct {
	// Textfile is a node_exporter textfile collector path. Empty disables metrics output.
	Textfile string `toml:"textfile" yaml:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{Root: "."},
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
			MaxRedirects:   5,
			MaxSizeMB:      10,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Export: ExportConfig{
			TokenListName: "Contract Metadata",
			LogoBaseURL:   "https://raw.githubusercontent.com/MetaMask/contract-metadata/master/",
			Keywords:      []string{"metamask", "default"},
			Version:       "1.0.0",
		},
	}
}

// Load builds the configuration from defaults, then the config file at path
// (or the first of SearchFiles found in the working directory when path is
// empty), then CM_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range SearchFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	c.Source = path
	return nil
}

func (c *Config) applyEnv() {
	c.Registry.Root = getEnv("CM_ROOT", c.Registry.Root)
	c.Fetch.TimeoutSeconds = getEnvInt("CM_FETCH_TIMEOUT_SECONDS", c.Fetch.TimeoutSeconds)
	c.Fetch.MaxRedirects = getEnvInt("CM_FETCH_MAX_REDIRECTS", c.Fetch.MaxRedirects)
	c.Fetch.MaxSizeMB = getEnvInt("CM_FETCH_MAX_SIZE_MB", c.Fetch.MaxSizeMB)
	c.Fetch.RatePerSecond = getEnvFloat("CM_FETCH_RATE_PER_SECOND", c.Fetch.RatePerSecond)
	c.Logging.Level = getEnv("CM_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("CM_LOG_FORMAT", c.Logging.Format)
	c.Export.TokenListName = getEnv("CM_TOKEN_LIST_NAME", c.Export.TokenListName)
	c.Export.LogoBaseURL = getEnv("CM_LOGO_BASE_URL", c.Export.LogoBaseURL)
	c.Export.Keywords = getEnvStringSlice("CM_TOKEN_LIST_KEYWORDS", c.Export.Keywords)
	c.Export.Version = getEnv("CM_TOKEN_LIST_VERSION", c.Export.Version)
	c.Metrics.Textfile = getEnv("CM_METRICS_TEXTFILE", c.Metrics.Textfile)
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// WriteTOML encodes the effective configuration as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
