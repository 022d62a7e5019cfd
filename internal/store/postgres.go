package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

// boardLockKey is the advisory lock that serializes board updates across
// every process sharing the database.
const boardLockKey = 0x6d6b626f617264 // "mkboard"

// Postgres keeps the board in PostgreSQL through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv_items (
		item_key TEXT PRIMARY KEY,
		item_value TEXT NOT NULL
	);`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init kv schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// pgQuerier is satisfied by both the pool and a transaction.
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgGet(ctx context.Context, q pgQuerier, key string) (string, bool, error) {
	var v string
	err := q.QueryRow(ctx, `SELECT item_value FROM kv_items WHERE item_key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func pgSet(ctx context.Context, q pgQuerier, key, value string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO kv_items (item_key, item_value) VALUES ($1, $2)
		 ON CONFLICT (item_key) DO UPDATE SET item_value = EXCLUDED.item_value`,
		key, value,
	)
	return err
}

func (s *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	return pgGet(ctx, s.pool, key)
}

func (s *Postgres) Set(ctx context.Context, key, value string) error {
	return pgSet(ctx, s.pool, key, value)
}

// Update runs fn in a transaction holding the board advisory lock.
func (s *Postgres) Update(ctx context.Context, fn func(board.Storage) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(boardLockKey)); err != nil {
		return fmt.Errorf("lock board: %w", err)
	}
	if err := fn(pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Get(ctx context.Context, key string) (string, bool, error) {
	return pgGet(ctx, t.tx, key)
}

func (t pgTx) Set(ctx context.Context, key, value string) error {
	return pgSet(ctx, t.tx, key, value)
}
