package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// KV backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`

	// Seed documents come from DataBaseURL when set, DataDir otherwise.
	DataDir     string `envconfig:"DATA_DIR" default:"./data"`
	DataBaseURL string `envconfig:"DATA_BASE_URL"`

	KVBackend     string `envconfig:"KV_BACKEND" default:"memory"`
	KVDir         string `envconfig:"KV_DIR" default:"./var/kv"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	DelayThreshold time.Duration `envconfig:"DELAY_THRESHOLD" default:"24h"`
	LoadTimeout    time.Duration `envconfig:"LOAD_TIMEOUT" default:"15s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	cfg.KVBackend = strings.ToLower(strings.TrimSpace(cfg.KVBackend))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.KVBackend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be set for the redis backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown KV_BACKEND %q", c.KVBackend)
	}
	if c.DelayThreshold <= 0 {
		return errors.New("DELAY_THRESHOLD must be positive")
	}
	if c.LoadTimeout <= 0 {
		return errors.New("LOAD_TIMEOUT must be positive")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
