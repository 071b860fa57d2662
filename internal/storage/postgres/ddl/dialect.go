// Package ddl is the Postgres dialect for dataset tables.
package ddl

import (
	"fmt"
	"strings"
	"time"

	gddl "csvdataset/internal/ddl"
	"csvdataset/internal/schema"
)

// Dialect implements ddl.Dialect for Postgres.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

var literalStyle = gddl.LiteralStyle{True: "TRUE", False: "FALSE", TimeLayout: time.RFC3339Nano}

func (Dialect) Name() string                   { return "postgres" }
func (Dialect) QuoteIdent(id string) string    { return QuoteIdent(id) }
func (Dialect) Placeholder(n int) string       { return fmt.Sprintf("$%d", n) }
func (Dialect) MaxParams() int                 { return 65535 }
func (Dialect) NowExpr() string                { return "NOW()" }
func (Dialect) TransactionalDDL() bool         { return true }
func (Dialect) BindValue(v any) any            { return v }
func (Dialect) Literal(v any) string           { return gddl.FormatLiteral(v, literalStyle) }
func (Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + gddl.QuoteFQN(table, QuoteIdent)
}

func (Dialect) LimitOffset(limitArg, offsetArg int) string {
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", limitArg, offsetArg)
}

// MapType maps a dataset type to a Postgres column type.
func (Dialect) MapType(t schema.Type) string {
	switch t {
	case schema.Numeric:
		return "DOUBLE PRECISION"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Timestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// LogicalType maps an information_schema data_type back to a dataset type.
func (Dialect) LogicalType(dbType string) (schema.Type, bool) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "double precision", "real", "numeric":
		return schema.Numeric, true
	case "boolean":
		return schema.Boolean, true
	case "timestamp with time zone", "timestamp without time zone", "date":
		return schema.Timestamp, true
	case "text", "character varying":
		return schema.Text, true
	}
	return schema.Text, false
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with an identity column.
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, gddl.Style{
		Quote:    QuoteIdent,
		Identity: "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
	})
}

// QuoteIdent safely quotes a single identifier segment for Postgres.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
