package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

// sqlKV implements KV on database/sql. The dialects differ only in schema,
// upsert syntax and how a transaction locks the rows it reads.
type sqlKV struct {
	db       *sql.DB
	upsert   string
	selectTx string
}

const selectValue = `SELECT item_value FROM kv_items WHERE item_key = ?`

func newSQLKV(ctx context.Context, db *sql.DB, schema, upsert, selectTx string) (*sqlKV, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &sqlKV{db: db, upsert: upsert, selectTx: selectTx}, nil
}

// queryer is the part of *sql.DB and *sql.Tx the KV needs.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getValue(ctx context.Context, q queryer, query, key string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, query, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *sqlKV) Get(ctx context.Context, key string) (string, bool, error) {
	return getValue(ctx, s.db, selectValue, key)
}

func (s *sqlKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.upsert, key, value)
	return err
}

// Update runs fn inside one database transaction. It commits when fn
// returns nil and rolls back otherwise.
func (s *sqlKV) Update(ctx context.Context, fn func(board.Storage) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqlTx{tx: tx, kv: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *sqlKV) Close() error {
	return s.db.Close()
}

type sqlTx struct {
	tx *sql.Tx
	kv *sqlKV
}

func (t *sqlTx) Get(ctx context.Context, key string) (string, bool, error) {
	return getValue(ctx, t.tx, t.kv.selectTx, key)
}

func (t *sqlTx) Set(ctx context.Context, key, value string) error {
	_, err := t.tx.ExecContext(ctx, t.kv.upsert, key, value)
	return err
}
