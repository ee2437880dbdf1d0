package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// RegistryRedis stores model references in a Redis hash.
	RegistryRedis = "redis"
	// RegistryMemory keeps model references in process memory.
	RegistryMemory = "memory"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"user:password@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=True&loc=UTC"`
	ResetDB     bool   `env:"RESET_DB" envDefault:"false"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASSWORD"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me"`

	RegistryBackend    string   `env:"REGISTRY_BACKEND" envDefault:"redis"`
	RegistrySeedModels []string `env:"REGISTRY_SEED_MODELS" envSeparator:","`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	SwaggerHost string `env:"SWAGGER_HOST"`
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.RegistryBackend = strings.ToLower(strings.TrimSpace(cfg.RegistryBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET must not be empty")
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return errors.New("config: DATABASE_DSN must not be empty")
	}
	switch c.RegistryBackend {
	case RegistryRedis, RegistryMemory:
	default:
		return fmt.Errorf("config: unknown REGISTRY_BACKEND %q", c.RegistryBackend)
	}
	return nil
}

// SwaggerURL returns the externally reachable address of the API docs.
func (c *Config) SwaggerURL() string {
	host := strings.TrimRight(c.SwaggerHost, "/")
	switch {
	case host == "":
		return "http://localhost:" + c.ServerPort + "/swagger/index.html"
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return host + "/swagger/index.html"
	default:
		return "http://" + host + "/swagger/index.html"
	}
}
