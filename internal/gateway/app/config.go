package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingSecrets reports absent signing configuration. This is fatal at
// startup; the gateway must never serve traffic with empty secrets.
var ErrMissingSecrets = errors.New("app: ACCESS_TOKEN_SECRET, REFRESH_TOKEN_SECRET and CSRF_SECRET are required")

type Config struct {
	AccessSecret  string // Required: HMAC secret for access tokens
	RefreshSecret string // Required: distinct HMAC secret for refresh tokens
	CsrfSecret    string // Required: HMAC key for the CSRF generation check

	AccessTTL  time.Duration // Optional: access token lifetime (default: 8h)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 720h)
	CsrfTTL    time.Duration // Optional: CSRF cookie lifetime (default: 24h)

	ReplayWindow       time.Duration // Optional: default replay window (default: 5m)
	ReplayUploadWindow time.Duration // Optional: window for upload routes (default: 10m)
	FutureSkew         time.Duration // Optional: tolerated future clock skew (default: 60s)
	NonceRetention     time.Duration // Optional: nonce retention (default: 10m)
	SweepInterval      time.Duration // Optional: ledger sweep interval (default: 10m)

	RedisAddr string // Optional: when set, nonces are tracked in Redis

	Issuer              string        // Token issuer claim (default: pressgate)
	DatabaseFile        string        // Path to SQLite database file (default: ./pressgate.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		AccessSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		CsrfSecret:    os.Getenv("CSRF_SECRET"),

		AccessTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 8*time.Hour),
		RefreshTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		CsrfTTL:    getEnvDurationOrDefault("CSRF_TTL", 24*time.Hour),

		ReplayWindow:       getEnvDurationOrDefault("REPLAY_WINDOW", 5*time.Minute),
		ReplayUploadWindow: getEnvDurationOrDefault("REPLAY_UPLOAD_WINDOW", 10*time.Minute),
		FutureSkew:         getEnvDurationOrDefault("REPLAY_FUTURE_SKEW", time.Minute),
		NonceRetention:     getEnvDurationOrDefault("NONCE_RETENTION", 10*time.Minute),
		SweepInterval:      getEnvDurationOrDefault("NONCE_SWEEP_INTERVAL", 10*time.Minute),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		Issuer:              getEnvOrDefault("TOKEN_ISSUER", "pressgate"),
		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "pressgate.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" || cfg.CsrfSecret == "" {
		return Config{}, ErrMissingSecrets
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
