// Package config собирает настройки сервера из .env, переменных окружения и флагов.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingSecret JWT_SECRET_KEY не задан: сервер без него не стартует
var ErrMissingSecret = errors.New("JWT_SECRET_KEY is required")

// Config настройки сервера
type Config struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	JWTSecret     string `env:"JWT_SECRET_KEY"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	Port              int `env:"PORT" envDefault:"3000"`
	RedisDB           int `env:"REDIS_DB" envDefault:"0"`
	RateLimitRequests int `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`

	ShowVersion bool `env:"-"`
}

// Load читает .env (если есть), окружение и флаги командной строки.
// Флаги имеют приоритет над окружением.
func Load(args []string) (*Config, error) {
	// .env нужен только для локальной разработки
	_ = godotenv.Load()
	return parse(args, nil)
}

// parse environ == nil означает окружение процесса
func parse(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}

	var err error
	if environ == nil {
		err = env.Parse(cfg)
	} else {
		err = env.ParseWithOptions(cfg, env.Options{Environment: environ})
	}
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("authapi-server", flag.ContinueOnError)
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "database URL: postgres://... or SQLite file path")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "JWT signing secret")
	fs.IntVar(&cfg.Port, "p", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Для -version остальные настройки не нужны
	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные и числовые параметры
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Addr адрес для http.Server: все интерфейсы, порт из конфига
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// SlogLevel уровень логирования для slog
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
