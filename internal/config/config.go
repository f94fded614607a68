// Package config читает настройки процесса из окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	TokenTTL    time.Duration

	HandshakeTimeout     time.Duration
	MembershipRetries    uint64
	MembershipRetryDelay time.Duration

	Env            string
	AllowedOrigins []string
}

// IsDevelopment включает человекочитаемые логи и debug режим gin.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadEnvFiles подгружает .env.local или .env, если они есть.
// Уже заданные переменные окружения не перезаписываются.
func LoadEnvFiles() bool {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			return false
		}
	}
	return true
}

// Load собирает Config из окружения. Обязательные ключи: DATABASE_URL, REDIS_URL, JWT_SECRET.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Env:         getenv("APP_ENV", "production"),
	}

	var missing []string
	for key, val := range map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
		"JWT_SECRET":   cfg.JWTSecret,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}

	var errs []error
	cfg.TokenTTL = duration("TOKEN_TTL", 24*time.Hour, &errs)
	cfg.HandshakeTimeout = duration("WS_HANDSHAKE_TIMEOUT", 10*time.Second, &errs)
	cfg.MembershipRetryDelay = duration("MEMBERSHIP_RETRY_DELAY", 500*time.Millisecond, &errs)

	cfg.MembershipRetries = 3
	if raw := os.Getenv("MEMBERSHIP_RETRIES"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MEMBERSHIP_RETRIES: %w", err))
		}
		cfg.MembershipRetries = n
	}

	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
