package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

const mysqlSchema = `CREATE TABLE IF NOT EXISTS kv_items (
    item_key VARCHAR(191) PRIMARY KEY,
    item_value LONGTEXT NOT NULL
)`

const mysqlUpsert = `INSERT INTO kv_items (item_key, item_value) VALUES (?, ?)
	ON DUPLICATE KEY UPDATE item_value = VALUES(item_value)`

// MySQL keeps the board in a shared MySQL database.
type MySQL struct {
	*sqlKV
}

// NewMySQL connects with a go-sql-driver DSN such as
// "user:pass@tcp(127.0.0.1:3306)/mkboard".
func NewMySQL(ctx context.Context, dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	kv, err := newSQLKV(ctx, db, mysqlSchema, mysqlUpsert, selectValue+" FOR UPDATE")
	if err != nil {
		return nil, err
	}
	return &MySQL{kv}, nil
}
