package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(nil, map[string]string{"JWT_SECRET_KEY": "secret"})
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
}

func TestParse_Environment(t *testing.T) {
	cfg, err := parse(nil, map[string]string{
		"DATABASE_URL":        "postgres://user:pw@db:5432/auth",
		"JWT_SECRET_KEY":      "secret",
		"PORT":                "8080",
		"LOG_LEVEL":           "debug",
		"REDIS_ADDR":          "redis:6379",
		"REDIS_PASSWORD":      "redispw",
		"REDIS_DB":            "2",
		"RATE_LIMIT_REQUESTS": "5",
		"RATE_LIMIT_WINDOW":   "30s",
	})
	require.NoError(t, err)

	assert.Equal(t, "postgres://user:pw@db:5432/auth", cfg.DatabaseURL)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "redispw", cfg.RedisPassword)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

// Срок жизни токена фиксирован, TOKEN_TTL из окружения не читается
func TestParse_IgnoresTokenTTL(t *testing.T) {
	cfg, err := parse(nil, map[string]string{"JWT_SECRET_KEY": "secret", "TOKEN_TTL": "forever"})
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.JWTSecret)
}

func TestParse_FlagsOverrideEnvironment(t *testing.T) {
	cfg, err := parse(
		[]string{"-d", "/var/lib/authapi.db", "-s", "flag-secret", "-p", "9000", "-l", "warn"},
		map[string]string{"JWT_SECRET_KEY": "env-secret", "PORT": "8080"},
	)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/authapi.db", cfg.DatabaseURL)
	assert.Equal(t, "flag-secret", cfg.JWTSecret)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestParse_MissingSecret(t *testing.T) {
	_, err := parse(nil, map[string]string{})
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = parse(nil, map[string]string{"JWT_SECRET_KEY": "   "})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestParse_VersionSkipsValidation(t *testing.T) {
	cfg, err := parse([]string{"-version"}, map[string]string{})
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		environ map[string]string
		name    string
		args    []string
	}{
		{name: "port not a number", environ: map[string]string{"JWT_SECRET_KEY": "s", "PORT": "abc"}},
		{name: "port out of range", environ: map[string]string{"JWT_SECRET_KEY": "s"}, args: []string{"-p", "70000"}},
		{name: "zero rate", environ: map[string]string{"JWT_SECRET_KEY": "s", "RATE_LIMIT_REQUESTS": "0"}},
		{name: "zero window", environ: map[string]string{"JWT_SECRET_KEY": "s", "RATE_LIMIT_WINDOW": "0s"}},
		{name: "unknown log level", environ: map[string]string{"JWT_SECRET_KEY": "s", "LOG_LEVEL": "loud"}},
		{name: "unknown flag", environ: map[string]string{"JWT_SECRET_KEY": "s"}, args: []string{"-x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.args, tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.input}
			level, err := cfg.SlogLevel()
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}
