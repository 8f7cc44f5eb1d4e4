package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the deepsearch API configuration.
type Config struct {
	HTTP     HTTPConfig              `yaml:"http"`
	Database DatabaseConfig          `yaml:"database"`
	Cache    CacheConfig             `yaml:"cache"`
	Search   SearchConfig            `yaml:"search"`
	History  HistoryConfig           `yaml:"history"`
	Sources  map[string]SourceConfig `yaml:"sources"`
	Logging  LoggingConfig           `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds history store connection settings. Empty addrs means
// the service runs without persistence: history endpoints return empty data
// and events are dropped.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the merged-result cache settings.
type CacheConfig struct {
	Enabled    *bool `yaml:"enabled"` // default: true
	TTLSec     int   `yaml:"ttl_sec"`
	MaxEntries int   `yaml:"max_entries"`
}

// CacheEnabled reports whether the result cache should be wired.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// SearchConfig holds fan-out and merge settings.
type SearchConfig struct {
	Workers          int      `yaml:"workers"`
	GlobalTimeoutSec int      `yaml:"global_timeout_sec"`
	ThrottleWaitMs   int      `yaml:"throttle_wait_ms"`
	TrackingParams   []string `yaml:"tracking_params"` // extends the built-in denylist
}

// HistoryConfig holds search history settings.
type HistoryConfig struct {
	MaxEvents int `yaml:"max_events"`
}

// SourceConfig holds per-source adapter settings, keyed by source id.
type SourceConfig struct {
	Enabled           *bool   `yaml:"enabled"` // default: true
	BaseURL           string  `yaml:"base_url"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	MaxConcurrent     int     `yaml:"max_concurrent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// IsEnabled reports whether the source should accept traffic.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 1024
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = 16
	}
	if c.Search.GlobalTimeoutSec <= 0 {
		c.Search.GlobalTimeoutSec = 15
	}
	if c.History.MaxEvents <= 0 {
		c.History.MaxEvents = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	for id, src := range c.Sources {
		if id == "" {
			return fmt.Errorf("sources must be keyed by a non-empty source id")
		}
		if src.TimeoutSec < 0 {
			return fmt.Errorf("sources.%s.timeout_sec must not be negative", id)
		}
		if src.RequestsPerSecond < 0 {
			return fmt.Errorf("sources.%s.requests_per_second must not be negative", id)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
