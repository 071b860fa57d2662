// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver.
//
// The pool is limited to a single connection: SQLite allows one writer, and a
// ":memory:" database only exists on the connection that created it. InTx
// opens the transaction with BEGIN IMMEDIATE, which takes the database write
// lock up front and serializes dataset mutations across processes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"csvdataset/internal/ddl"
	"csvdataset/internal/storage"
	sqliteddl "csvdataset/internal/storage/sqlite/ddl"
	"csvdataset/internal/storage/sqldb"

	_ "modernc.org/sqlite"
)

var catalog = sqldb.Catalog{
	TableExists: `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`,
	Columns:     `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`,
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Querier
	db *sql.DB
}

// NewRepository opens a SQLite database and returns a Repository plus a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds())); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: busy_timeout: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{Querier: sqldb.New(db, catalog, "sqlite"), db: db}, closeFn, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return sqliteddl.Dialect{} }

// InTx implements storage.Repository. The transaction is driven with raw
// BEGIN IMMEDIATE/COMMIT/ROLLBACK on a dedicated connection because
// database/sql always issues a deferred BEGIN.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, q storage.Querier) error) (err error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
			panic(p)
		}
		if err != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		}
	}()

	if err = fn(ctx, sqldb.New(conn, catalog, "sqlite")); err != nil {
		return err
	}
	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
