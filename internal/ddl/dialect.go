package ddl

import "csvdataset/internal/schema"

// Dialect is the set of SQL differences the dataset pipeline cares about.
type Dialect interface {
	// Name is the storage kind, e.g. "postgres".
	Name() string
	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	// MaxParams is the largest number of bound arguments per statement.
	MaxParams() int
	// MapType returns the column type used for t.
	MapType(t schema.Type) string
	// LogicalType maps a catalog type name back to the dataset type.
	LogicalType(dbType string) (schema.Type, bool)
	// NowExpr is the server-side current timestamp expression.
	NowExpr() string
	// CreateTableSQL renders a create-if-absent statement.
	CreateTableSQL(t TableDef) (string, error)
	// DropTableSQL renders a drop-if-exists statement.
	DropTableSQL(table string) string
	// LimitOffset renders a paging clause that follows ORDER BY, binding the
	// limit and offset to the given argument positions.
	LimitOffset(limitArg, offsetArg int) string
	// Literal renders v as an inline SQL literal.
	Literal(v any) string
	// BindValue converts a coerced value into what the driver should bind.
	BindValue(v any) any
	// TransactionalDDL reports whether CREATE/DROP TABLE roll back with the
	// surrounding transaction.
	TransactionalDDL() bool
}
