// Package storage contains the storage-agnostic contract for the SQL engine
// that holds dataset tables, plus a small factory registry. Concrete backends
// (postgres, sqlite, mssql, mysql) register themselves at init time; import
// internal/storage/all to enable every built-in backend.
package storage

import (
	"context"

	"csvdataset/internal/ddl"
)

// Column is a catalog entry for a table column.
type Column struct {
	Name   string
	DBType string
}

// Querier runs statements and catalog lookups, either directly on the
// connection pool or inside a transaction.
type Querier interface {
	// Exec runs a statement and returns the affected row count.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a statement and returns every row as positional values.
	Query(ctx context.Context, query string, args ...any) ([][]any, error)
	// TableExists consults the catalog for table.
	TableExists(ctx context.Context, table string) (bool, error)
	// Columns lists the columns of table in ordinal order.
	Columns(ctx context.Context, table string) ([]Column, error)
}

// Repository is a connection to one SQL engine.
type Repository interface {
	Querier
	// Dialect describes the engine's SQL flavour.
	Dialect() ddl.Dialect
	// InTx runs fn in a transaction that holds the backend's dataset lock,
	// so concurrent mutations are serialized. fn's error rolls back.
	InTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
	Close()
}
