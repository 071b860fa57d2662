// Package sqldb implements storage.Querier on top of database/sql. The
// SQLite, SQL Server and MySQL backends share it and only supply their
// catalog statements.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"csvdataset/internal/storage"
)

// Conn is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Catalog holds the engine-specific catalog statements. Both take the table
// name as their only argument.
type Catalog struct {
	// TableExists returns at least one row when the table exists.
	TableExists string
	// Columns returns (name, type) pairs in ordinal order.
	Columns string
}

// Querier adapts a Conn to storage.Querier. Errors are prefixed with the
// backend name, e.g. "sqlite: exec: ...".
type Querier struct {
	conn    Conn
	catalog Catalog
	prefix  string
}

var _ storage.Querier = (*Querier)(nil)

// New wraps conn.
func New(conn Conn, catalog Catalog, prefix string) *Querier {
	return &Querier{conn: conn, catalog: catalog, prefix: prefix}
}

// Exec implements storage.Querier.
func (q *Querier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: exec: %w", q.prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers do not report counts for DDL.
		return 0, nil
	}
	return n, nil
}

// Query implements storage.Querier.
func (q *Querier) Query(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := q.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", q.prefix, err)
	}
	out, err := ScanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", q.prefix, err)
	}
	return out, nil
}

// TableExists implements storage.Querier.
func (q *Querier) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := q.Query(ctx, q.catalog.TableExists, table)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Columns implements storage.Querier.
func (q *Querier) Columns(ctx context.Context, table string) ([]storage.Column, error) {
	rows, err := q.Query(ctx, q.catalog.Columns, table)
	if err != nil {
		return nil, err
	}
	out := make([]storage.Column, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			return nil, fmt.Errorf("%s: columns: want 2 values per row, got %d", q.prefix, len(r))
		}
		out = append(out, storage.Column{Name: asString(r[0]), DBType: asString(r[1])})
	}
	return out, nil
}

// ScanAll reads every row into positional values and closes rows.
func ScanAll(rows *sql.Rows) ([][]any, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
