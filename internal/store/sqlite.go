package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO required
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_items (
	item_key   TEXT PRIMARY KEY,
	item_value TEXT NOT NULL
);`

const sqliteUpsert = `INSERT INTO kv_items (item_key, item_value) VALUES (?, ?)
	ON CONFLICT(item_key) DO UPDATE SET item_value = excluded.item_value`

// sqliteParams make every transaction take the write lock up front, so two
// processes updating the same file queue behind each other instead of one
// failing on lock upgrade.
const sqliteParams = "?_pragma=busy_timeout(5000)&_txlock=immediate"

// SQLite is the default backend: a single local database file.
type SQLite struct {
	*sqlKV
}

// NewSQLite opens (or creates) a SQLite database at the given path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; the board serializes writes anyway.
	db.SetMaxOpenConns(1)
	kv, err := newSQLKV(ctx, db, sqliteSchema, sqliteUpsert, selectValue)
	if err != nil {
		return nil, err
	}
	return &SQLite{kv}, nil
}
