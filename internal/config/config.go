package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/supabase-preflight/internal/preflight"
)

const (
	defaultPort           = "8080"
	defaultReadTimeout    = 10 * time.Second
	defaultCacheTTL       = 30 * time.Second
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
//
// Supabase credentials are not part of Config; they are read from the settings
// file and the process environment by the settings package.
type Config struct {
	EnvFile     string
	Table       string
	ReadTimeout time.Duration
	StrictExit  bool
	NextSteps   []string
	Sentinel    preflight.Record
	LogLevel    string

	Port                 string
	CacheTTL             time.Duration
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	EnvFile              string            `yaml:"env_file"`
	Table                string            `yaml:"table"`
	ReadTimeout          string            `yaml:"read_timeout"`
	StrictExit           *bool             `yaml:"strict_exit"`
	NextSteps            []string          `yaml:"next_steps"`
	Sentinel             *preflight.Record `yaml:"sentinel"`
	LogLevel             string            `yaml:"log_level"`
	Port                 string            `yaml:"port"`
	CacheTTL             string            `yaml:"cache_ttl"`
	ShutdownGracePeriod  string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string            `yaml:"read_header_timeout"`
	WriteTimeout         string            `yaml:"write_timeout"`
	IdleTimeout          string            `yaml:"idle_timeout"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit     `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvFile        *string
	Strict         *bool
	ReadTimeout    *time.Duration
	LogLevel       *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	applyEnvConfig(&cfg)

	// YAML overrides the environment
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Table:                preflight.DefaultTable,
		ReadTimeout:          defaultReadTimeout,
		NextSteps:            preflight.DefaultNextSteps(),
		Sentinel:             preflight.DefaultSentinel(),
		Port:                 defaultPort,
		CacheTTL:             defaultCacheTTL,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         30 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.EnvFile != "" {
		cfg.EnvFile = yamlCfg.EnvFile
	}
	if yamlCfg.Table != "" {
		cfg.Table = yamlCfg.Table
	}
	if yamlCfg.StrictExit != nil {
		cfg.StrictExit = *yamlCfg.StrictExit
	}
	if len(yamlCfg.NextSteps) > 0 {
		cfg.NextSteps = yamlCfg.NextSteps
	}
	if yamlCfg.Sentinel != nil {
		cfg.Sentinel = *yamlCfg.Sentinel
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	durations := []struct {
		key   string
		raw   string
		field *time.Duration
	}{
		{"read_timeout", yamlCfg.ReadTimeout, &cfg.ReadTimeout},
		{"cache_ttl", yamlCfg.CacheTTL, &cfg.CacheTTL},
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.field = parsed
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if path := strings.TrimSpace(os.Getenv("PREFLIGHT_ENV_FILE")); path != "" {
		cfg.EnvFile = path
	}

	if table := strings.TrimSpace(os.Getenv("PREFLIGHT_TABLE")); table != "" {
		cfg.Table = table
	}

	if raw := strings.TrimSpace(os.Getenv("PREFLIGHT_READ_TIMEOUT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.ReadTimeout = d
		}
	}

	if raw := strings.TrimSpace(os.Getenv("PREFLIGHT_STRICT")); raw != "" {
		if strict, err := strconv.ParseBool(raw); err == nil {
			cfg.StrictExit = strict
		}
	}

	if level := strings.TrimSpace(os.Getenv("PREFLIGHT_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if raw := strings.TrimSpace(os.Getenv("PREFLIGHT_CACHE_TTL")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			cfg.CacheTTL = d
		}
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.EnvFile != nil && *overrides.EnvFile != "" {
		cfg.EnvFile = *overrides.EnvFile
	}

	if overrides.Strict != nil {
		cfg.StrictExit = *overrides.Strict
	}

	if overrides.ReadTimeout != nil && *overrides.ReadTimeout > 0 {
		cfg.ReadTimeout = *overrides.ReadTimeout
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Table) == "" {
		return fmt.Errorf("table must not be empty")
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be > 0")
	}
	if cfg.Sentinel.ID == "" {
		return fmt.Errorf("sentinel record requires an id")
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must be >= 0")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.LogLevel != "" {
		if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
	}
	return nil
}
