package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/contexa/channel"
	redisstore "github.com/hupe1980/contexa/channel/redis"
	"github.com/hupe1980/contexa/logging"
)

// Config is the complete contexa configuration.
type Config struct {
	Log     LogConfig         `yaml:"log" env:"LOG"`
	Channel ChannelConfig     `yaml:"channel" env:"CHANNEL"`
	Redis   redisstore.Config `yaml:"redis" env:"REDIS"`
	Vendors VendorsConfig     `yaml:"vendors" env:"VENDORS"`
	Metrics MetricsConfig     `yaml:"metrics" env:"METRICS"`
}

// LogConfig selects the logging backend.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, text
	Format string `yaml:"format" env:"FORMAT"`
	// Backend: slog or zap
	Backend string `yaml:"backend" env:"BACKEND"`
}

// Channel store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// ChannelConfig configures the message channel.
type ChannelConfig struct {
	Name string `yaml:"name" env:"NAME"`
	// Store: memory or redis
	Store     string `yaml:"store" env:"STORE"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// VendorConfig holds credentials and defaults for one vendor SDK.
type VendorConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	Model   string `yaml:"model" env:"MODEL"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

// VendorsConfig groups vendor settings.
type VendorsConfig struct {
	OpenAI        VendorConfig `yaml:"openai" env:"OPENAI"`
	Anthropic     VendorConfig `yaml:"anthropic" env:"ANTHROPIC"`
	Google        VendorConfig `yaml:"google" env:"GOOGLE"`
	MaxToolRounds int          `yaml:"max_tool_rounds" env:"MAX_TOOL_ROUNDS"`
}

// MetricsConfig enables prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Addr, when set, serves /metrics while a command runs.
	Addr string `yaml:"addr" env:"ADDR"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "text",
			Backend: "slog",
		},
		Channel: ChannelConfig{
			Name:      channel.DefaultName,
			Store:     StoreMemory,
			KeyPrefix: "contexa:",
		},
		Redis: redisstore.Config{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Vendors: VendorsConfig{
			MaxToolRounds: 5,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	switch c.Log.Backend {
	case "slog", "zap":
	default:
		errs = append(errs, fmt.Errorf("log.backend: unknown backend %q", c.Log.Backend))
	}

	switch c.Channel.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr: required when channel.store is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("channel.store: unknown store %q", c.Channel.Store))
	}

	if c.Vendors.MaxToolRounds <= 0 {
		errs = append(errs, errors.New("vendors.max_tool_rounds: must be positive"))
	}

	return errors.Join(errs...)
}

// NewLogger builds the logger described by c.
func (c LogConfig) NewLogger() (logging.Logger, error) {
	level := logging.ParseLevel(c.Level)
	if c.Backend == "zap" {
		z, err := logging.NewZapLogger(level, c.Format)
		if err != nil {
			return nil, err
		}
		return z, nil
	}

	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = c.Format
	return logging.NewLogger(cfg), nil
}
