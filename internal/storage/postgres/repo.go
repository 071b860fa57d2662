// Package postgres implements a Postgres-backed storage.Repository using
// pgx v5. Mutations are serialized with a transaction-scoped advisory lock
// whose key is derived from the configured lock name.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeebo/xxh3"

	"csvdataset/internal/ddl"
	"csvdataset/internal/storage"
	pgddl "csvdataset/internal/storage/postgres/ddl"
)

const (
	tableExistsSQL = `SELECT 1 FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name = $1`
	columnsSQL = `SELECT column_name::text, data_type::text FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN      string // connection string for pgxpool
	LockName string // advisory lock name; hashed to a bigint key
}

// conn is satisfied by *pgxpool.Pool and pgx.Tx.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// querier implements storage.Querier over a pool or a transaction.
type querier struct {
	c conn
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	querier
	pool    *pgxpool.Pool
	lockKey int64
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	lock := cfg.LockName
	if lock == "" {
		lock = storage.DefaultLockName
	}
	close := func() { pool.Close() }
	return &Repository{querier: querier{c: pool}, pool: pool, lockKey: LockKey(lock)}, close, nil
}

// LockKey hashes a lock name into the bigint key space used by
// pg_advisory_xact_lock.
func LockKey(name string) int64 {
	return int64(xxh3.HashString(name))
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return pgddl.Dialect{} }

// InTx implements storage.Repository.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, q storage.Querier) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", r.lockKey); err != nil {
		return fmt.Errorf("postgres: advisory lock: %w", err)
	}
	if err = fn(ctx, querier{c: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Exec implements storage.Querier.
func (q querier) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := q.c.Exec(ctx, sql, args...)
	if err != nil {
		return 0, wrapErr("exec", err)
	}
	return tag.RowsAffected(), nil
}

// Query implements storage.Querier.
func (q querier) Query(ctx context.Context, sql string, args ...any) ([][]any, error) {
	rows, err := q.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr("query", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, wrapErr("scan", err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("query", err)
	}
	return out, nil
}

// TableExists implements storage.Querier.
func (q querier) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := q.Query(ctx, tableExistsSQL, table)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Columns implements storage.Querier.
func (q querier) Columns(ctx context.Context, table string) ([]storage.Column, error) {
	rows, err := q.Query(ctx, columnsSQL, table)
	if err != nil {
		return nil, err
	}
	out := make([]storage.Column, 0, len(rows))
	for _, r := range rows {
		name, _ := r[0].(string)
		typ, _ := r[1].(string)
		out = append(out, storage.Column{Name: name, DBType: typ})
	}
	return out, nil
}

// wrapErr surfaces the server's detail and SQLSTATE when available.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Detail != "" {
			return fmt.Errorf("postgres: %s: %s: %s (%s): %w", op, pgErr.Message, pgErr.Detail, pgErr.SQLState(), err)
		}
		return fmt.Errorf("postgres: %s: %s (%s): %w", op, pgErr.Message, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
