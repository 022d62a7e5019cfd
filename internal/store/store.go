// Package store provides the key-value backends the board persists into.
// Every backend keeps string values under string keys; the board writes the
// two keys "tasks" and "nextId".
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KV is a string-keyed, string-valued storage. Get reports ok=false for a key
// that was never written.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Options selects and configures a backend.
type Options struct {
	Backend     string
	SQLitePath  string
	MySQLDSN    string
	PostgresURL string
}

// Open connects to the configured backend and makes sure its table exists.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite, "":
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite backend: empty database path")
		}
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return NewSQLite(ctx, opts.SQLitePath)
	case BackendMySQL:
		if opts.MySQLDSN == "" {
			return nil, fmt.Errorf("mysql backend: empty DSN")
		}
		return NewMySQL(ctx, opts.MySQLDSN)
	case BackendPostgres:
		if opts.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend: empty database URL")
		}
		return NewPostgres(ctx, opts.PostgresURL)
	default:
		return nil, fmt.Errorf("%w: %q (expected memory|sqlite|mysql|postgres)", ErrUnknownBackend, opts.Backend)
	}
}
