// Package config loads board settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the configuration and data directory name.
	AppName = "mkboard"

	// ConfigFile is the TOML file looked up inside the config directory.
	ConfigFile = "config.toml"
)

// Config contains all runtime settings.
type Config struct {
	// Dir is the configuration directory the file was looked up in.
	Dir string `toml:"-"`

	Backend     string `toml:"backend"`
	SQLitePath  string `toml:"sqlite_path"`
	MySQLDSN    string `toml:"mysql_dsn"`
	DatabaseURL string `toml:"database_url"`

	BindAddr         string   `toml:"bind_addr"`
	ShutdownTimeout  Duration `toml:"shutdown_timeout"`
	MetricsNamespace string   `toml:"metrics_namespace"`
	AllowAnyOrigin   bool     `toml:"allow_any_origin"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Quiet and Debug are set from command line flags only.
	Quiet bool `toml:"-"`
	Debug bool `toml:"-"`
}

// Duration lets TOML carry "15s" style durations.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used when neither file nor environment say otherwise.
func Default() Config {
	return Config{
		Dir:              DefaultConfigDir(),
		Backend:          "sqlite",
		SQLitePath:       filepath.Join(DefaultDataDir(), "board.db"),
		BindAddr:         ":8080",
		ShutdownTimeout:  Duration{15 * time.Second},
		MetricsNamespace: "mkboard",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load builds a Config from defaults, then <dir>/config.toml if present, then
// MKBOARD_* environment variables. An empty dir means DefaultConfigDir.
func Load(dir string) (Config, error) {
	cfg := Default()
	if dir != "" {
		cfg.Dir = dir
	}

	path := cfg.Path()
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Path returns the config file path.
func (c Config) Path() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory", "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("backend must be one of memory|sqlite|mysql|postgres, got %q", c.Backend)
	}
	if c.Backend == "sqlite" && strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("sqlite_path is required for the sqlite backend")
	}
	if c.Backend == "mysql" && strings.TrimSpace(c.MySQLDSN) == "" {
		return fmt.Errorf("mysql_dsn is required for the mysql backend")
	}
	if c.Backend == "postgres" && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database_url is required for the postgres backend")
	}
	if c.ShutdownTimeout.Duration <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log_format must be one of text|json|logfmt, got %q", c.LogFormat)
	}
	return nil
}

// DefaultConfigDir uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultDataDir is where the SQLite database lives unless configured.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, "."+AppName)
}
