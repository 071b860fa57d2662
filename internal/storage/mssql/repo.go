// Package mssql implements a Microsoft SQL Server storage.Repository using
// database/sql and go-mssqldb. Mutations hold a transaction-owned
// application lock (sp_getapplock).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"csvdataset/internal/ddl"
	"csvdataset/internal/storage"
	msddl "csvdataset/internal/storage/mssql/ddl"
	"csvdataset/internal/storage/sqldb"
)

var catalog = sqldb.Catalog{
	TableExists: `SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1`,
	Columns: `SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1 ORDER BY ORDINAL_POSITION`,
}

const getAppLockSQL = `DECLARE @rc int;
EXEC @rc = sp_getapplock @Resource = @p1, @LockMode = 'Exclusive', @LockOwner = 'Transaction', @LockTimeout = @p2;
SELECT @rc;`

// Config holds MSSQL repository configuration.
type Config struct {
	DSN         string
	LockName    string
	LockTimeout time.Duration // zero waits 30s
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	*sqldb.Querier
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	if cfg.LockName == "" {
		cfg.LockName = storage.DefaultLockName
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 30 * time.Second
	}
	close := func() { _ = db.Close() }
	return &Repository{Querier: sqldb.New(db, catalog, "mssql"), db: db, cfg: cfg}, close, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return msddl.Dialect{} }

// InTx implements storage.Repository.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, q storage.Querier) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mssql: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := sqldb.New(tx, catalog, "mssql")
	rows, err := q.Query(ctx, getAppLockSQL, r.cfg.LockName, r.cfg.LockTimeout.Milliseconds())
	if err != nil {
		return fmt.Errorf("mssql: applock: %w", err)
	}
	if rc := lockResult(rows); rc < 0 {
		return fmt.Errorf("mssql: applock %q not granted (code %d)", r.cfg.LockName, rc)
	}

	if err = fn(ctx, q); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("mssql: commit: %w", err)
	}
	return nil
}

// lockResult extracts sp_getapplock's return code; 0 and 1 mean granted.
func lockResult(rows [][]any) int64 {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return -999
	}
	switch v := rows[0][0].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	}
	return -999
}
