package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. BRISK_PORT.
const EnvPrefix = "BRISK_"

type Config struct {
	Port            int           `koanf:"port"`
	LogLevel        string        `koanf:"log_level"`
	DatabaseURL     string        `koanf:"database_url"`
	NatsURL         string        `koanf:"nats_url"`
	NatsToken       string        `koanf:"nats_token"`
	JWTSecret       string        `koanf:"jwt_secret"`
	WebhookURL      string        `koanf:"webhook_url"`
	AgentTimeout    time.Duration `koanf:"agent_timeout"`
	RateLimit       float64       `koanf:"rate_limit"`
	RateBurst       int           `koanf:"rate_burst"`
	Timezone        string        `koanf:"timezone"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"port":             8780,
		"log_level":        "info",
		"database_url":     os.Getenv("DATABASE_URL"),
		"nats_url":         os.Getenv("NATS_URL"),
		"nats_token":       os.Getenv("NATS_TOKEN"),
		"jwt_secret":       "",
		"webhook_url":      "",
		"agent_timeout":    "120s",
		"rate_limit":       0.5,
		"rate_burst":       5,
		"timezone":         "America/Montevideo",
		"shutdown_timeout": "10s",
	}
}

// Load layers defaults, an optional TOML file and BRISK_ environment
// variables, in that order. An empty path falls back to $BRISK_CONFIG.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values koanf cannot check by type alone.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate limit and burst must not be negative")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Location returns the timezone months are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
