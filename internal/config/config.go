// Package config loads the blockloom configuration file.
//
// Values come from defaults, then the YAML file, then the environment
// (BLOCKLOOM_TOKEN, BLOCKLOOM_ENDPOINT, BLOCKLOOM_LOG_LEVEL). Command-line
// flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/retry"
	"gopkg.in/yaml.v3"
)

const (
	EnvToken    = "BLOCKLOOM_TOKEN"
	EnvEndpoint = "BLOCKLOOM_ENDPOINT"
	EnvLogLevel = "BLOCKLOOM_LOG_LEVEL"
)

// Duration is a time.Duration written as a string ("250ms", "30s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Retry configures the exponential backoff policy.
type Retry struct {
	Attempts  int      `yaml:"attempts"`
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
	Jitter    float64  `yaml:"jitter"`
}

// Sandbox configures the local sandbox server.
type Sandbox struct {
	Addr      string `yaml:"addr"`
	Backend   string `yaml:"backend"` // "memory" or "redis"
	RedisAddr string `yaml:"redis_addr"`
	Token     string `yaml:"token"`
}

// Config is the full configuration.
type Config struct {
	Endpoint    string   `yaml:"endpoint"`
	Token       string   `yaml:"token"`
	APIVersion  string   `yaml:"api_version"`
	Timeout     Duration `yaml:"timeout"`
	PageSize    int      `yaml:"page_size"`
	Concurrency int      `yaml:"concurrency"`
	LogLevel    string   `yaml:"log_level"`
	Retry       Retry    `yaml:"retry"`
	Sandbox     Sandbox  `yaml:"sandbox"`
}

// Default returns the built-in configuration.
func Default() Config {
	def := retry.Default()
	return Config{
		Endpoint:    "http://localhost:8080",
		APIVersion:  "2022-06-28",
		Timeout:     Duration(30 * time.Second),
		PageSize:    domain.MaxSiblings,
		Concurrency: 4,
		LogLevel:    "info",
		Retry: Retry{
			Attempts:  def.Attempts,
			BaseDelay: Duration(def.BaseDelay),
			MaxDelay:  Duration(def.MaxDelay),
		},
		Sandbox: Sandbox{
			Addr:      ":8080",
			Backend:   "memory",
			RedisAddr: "localhost:6379",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.PageSize < 1 || c.PageSize > domain.MaxSiblings {
		errs = append(errs, fmt.Errorf("page_size must be between 1 and %d, got %d", domain.MaxSiblings, c.PageSize))
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts))
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		errs = append(errs, fmt.Errorf("retry.jitter must be within [0, 1], got %v", c.Retry.Jitter))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.Sandbox.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("sandbox.backend must be memory or redis, got %q", c.Sandbox.Backend))
	}
	return errors.Join(errs...)
}

// RetryPolicy builds the backoff policy.
func (c Config) RetryPolicy() *retry.Exponential {
	return &retry.Exponential{
		Attempts:  c.Retry.Attempts,
		BaseDelay: time.Duration(c.Retry.BaseDelay),
		MaxDelay:  time.Duration(c.Retry.MaxDelay),
		Jitter:    c.Retry.Jitter,
	}
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
