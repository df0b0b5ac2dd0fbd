// Package config loads settings from an optional YAML file with environment
// variables taking precedence. DATABASE_URL and JWT_SECRET are required.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"environment"` // development | production
	DatabaseURL  string `yaml:"database_url"`
	RedisAddr    string `yaml:"redis_addr"`
	KafkaBrokers string `yaml:"kafka_brokers"`
	KafkaTopic   string `yaml:"kafka_topic"`
	JWTSecret    string `yaml:"jwt_secret"`

	RequestTimeoutMS int `yaml:"request_timeout_ms"`
	CacheTTLSeconds  int `yaml:"cache_ttl_seconds"`
	TokenTTLHours    int `yaml:"token_ttl_hours"`
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// Load reads path when it exists (missing files are fine), then applies env
// overrides and defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		Port:             "8080",
		Environment:      "development",
		KafkaTopic:       "storefront.orders.events",
		RequestTimeoutMS: 2500,
		CacheTTLSeconds:  60,
		TokenTTLHours:    72,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		case !os.IsNotExist(err):
			return Config{}, err
		}
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.Environment, "ENVIRONMENT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	overrideString(&cfg.KafkaTopic, "KAFKA_TOPIC")
	overrideString(&cfg.JWTSecret, "JWT_SECRET")
	overrideInt(&cfg.RequestTimeoutMS, "REQUEST_TIMEOUT_MS")
	overrideInt(&cfg.CacheTTLSeconds, "CACHE_TTL_SECONDS")
	overrideInt(&cfg.TokenTTLHours, "TOKEN_TTL_HOURS")

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
