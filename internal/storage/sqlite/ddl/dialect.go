// Package ddl is the SQLite dialect for dataset tables.
//
// SQLite has no boolean or timestamp storage class, so Boolean columns are
// declared BOOLEAN (numeric affinity, 0/1) and Timestamp columns TIMESTAMP
// holding ISO-8601 text. The declared names survive in the catalog, which is
// how LogicalType recovers the dataset type when reading pages back.
package ddl

import (
	"strings"
	"time"

	gddl "csvdataset/internal/ddl"
	"csvdataset/internal/schema"
)

// Dialect implements ddl.Dialect for SQLite.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

var literalStyle = gddl.LiteralStyle{True: "1", False: "0", TimeLayout: time.RFC3339Nano}

func (Dialect) Name() string                   { return "sqlite" }
func (Dialect) QuoteIdent(id string) string    { return quoteIdent(id) }
func (Dialect) Placeholder(int) string         { return "?" }
func (Dialect) MaxParams() int                 { return 32766 }
func (Dialect) NowExpr() string                { return "CURRENT_TIMESTAMP" }
func (Dialect) TransactionalDDL() bool         { return true }
func (Dialect) Literal(v any) string           { return gddl.FormatLiteral(v, literalStyle) }
func (Dialect) LimitOffset(_, _ int) string    { return "LIMIT ? OFFSET ?" }
func (Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + gddl.QuoteFQN(table, quoteIdent)
}

// MapType maps a dataset type to a declared SQLite column type.
func (Dialect) MapType(t schema.Type) string {
	switch t {
	case schema.Numeric:
		return "REAL"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Timestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// LogicalType maps a declared type from pragma_table_info back to a dataset
// type. INTEGER is deliberately unmapped; only the id column uses it.
func (Dialect) LogicalType(dbType string) (schema.Type, bool) {
	switch strings.ToUpper(strings.TrimSpace(dbType)) {
	case "REAL", "DOUBLE", "FLOAT", "NUMERIC":
		return schema.Numeric, true
	case "BOOLEAN", "BOOL":
		return schema.Boolean, true
	case "TIMESTAMP", "DATETIME", "DATE":
		return schema.Timestamp, true
	case "TEXT":
		return schema.Text, true
	}
	return schema.Text, false
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with an AUTOINCREMENT
// rowid alias for the identity column.
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, gddl.Style{
		Quote:    quoteIdent,
		Identity: "INTEGER PRIMARY KEY AUTOINCREMENT",
	})
}

// BindValue stores timestamps as UTC RFC 3339 text.
func (Dialect) BindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
