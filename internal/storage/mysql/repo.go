// Package mysql implements a MySQL-backed storage.Repository using
// database/sql and go-sql-driver/mysql.
//
// Mutations run on a dedicated connection that first takes a named
// GET_LOCK; the lock is released on the same connection once the
// transaction ends.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"csvdataset/internal/ddl"
	"csvdataset/internal/storage"
	myddl "csvdataset/internal/storage/mysql/ddl"
	"csvdataset/internal/storage/sqldb"
)

var catalog = sqldb.Catalog{
	TableExists: `SELECT 1 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
	Columns: `SELECT column_name, data_type FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`,
}

// Config holds MySQL repository configuration.
type Config struct {
	DSN         string // go-sql-driver DSN, e.g. user:pass@tcp(host:3306)/db
	LockName    string
	LockTimeout time.Duration // zero waits 30s
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Querier
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup. The DSN is forced to parse DATETIME columns into time.Time in UTC.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}
	if cfg.LockName == "" {
		cfg.LockName = storage.DefaultLockName
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 30 * time.Second
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{Querier: sqldb.New(db, catalog, "mysql"), db: db, cfg: cfg}, closeFn, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return myddl.Dialect{} }

// InTx implements storage.Repository.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, q storage.Querier) error) (err error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("mysql: conn: %w", err)
	}
	defer conn.Close()

	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", r.cfg.LockName, int(r.cfg.LockTimeout.Seconds())).Scan(&got); err != nil {
		return fmt.Errorf("mysql: get_lock: %w", err)
	}
	if !got.Valid || got.Int64 != 1 {
		return fmt.Errorf("mysql: lock %q not granted", r.cfg.LockName)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "DO RELEASE_LOCK(?)", r.cfg.LockName)
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysql: begin tx: %w", err)
	}
	if err = fn(ctx, sqldb.New(tx, catalog, "mysql")); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("mysql: commit: %w", err)
	}
	return nil
}
