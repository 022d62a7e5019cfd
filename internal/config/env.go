package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func applyEnv(cfg *Config) error {
	cfg.Backend = strings.ToLower(envOrDefault("MKBOARD_BACKEND", cfg.Backend))
	cfg.SQLitePath = envOrDefault("MKBOARD_SQLITE_PATH", cfg.SQLitePath)
	cfg.MySQLDSN = envOrDefault("MKBOARD_MYSQL_DSN", cfg.MySQLDSN)
	cfg.DatabaseURL = envOrDefault("MKBOARD_DATABASE_URL", cfg.DatabaseURL)
	cfg.BindAddr = envOrDefault("MKBOARD_BIND_ADDR", cfg.BindAddr)
	cfg.MetricsNamespace = envOrDefault("MKBOARD_METRICS_NAMESPACE", cfg.MetricsNamespace)
	cfg.LogLevel = strings.ToLower(envOrDefault("MKBOARD_LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(envOrDefault("MKBOARD_LOG_FORMAT", cfg.LogFormat))

	var err error
	cfg.ShutdownTimeout.Duration, err = durationFromEnv("MKBOARD_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout.Duration)
	if err != nil {
		return err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("MKBOARD_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return err
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: invalid boolean %q", key, v)
	}
}
