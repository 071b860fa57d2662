// Package ddl is the MySQL dialect for dataset tables.
//
// MySQL commits implicitly around DDL, so TransactionalDDL is false and the
// dataset manager compensates by dropping a half-built table itself.
package ddl

import (
	"strings"

	gddl "csvdataset/internal/ddl"
	"csvdataset/internal/schema"
)

// Dialect implements ddl.Dialect for MySQL 8.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

var literalStyle = gddl.LiteralStyle{True: "TRUE", False: "FALSE", TimeLayout: "2006-01-02 15:04:05.999999"}

func (Dialect) Name() string                { return "mysql" }
func (Dialect) QuoteIdent(id string) string { return QuoteIdent(id) }
func (Dialect) Placeholder(int) string      { return "?" }
func (Dialect) MaxParams() int              { return 65535 }
func (Dialect) NowExpr() string             { return "CURRENT_TIMESTAMP(6)" }
func (Dialect) TransactionalDDL() bool      { return false }
func (Dialect) BindValue(v any) any         { return v }
func (Dialect) Literal(v any) string        { return gddl.FormatLiteral(v, literalStyle) }
func (Dialect) LimitOffset(_, _ int) string { return "LIMIT ? OFFSET ?" }

func (Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + gddl.QuoteFQN(table, QuoteIdent)
}

// MapType maps a dataset type to a MySQL column type.
func (Dialect) MapType(t schema.Type) string {
	switch t {
	case schema.Numeric:
		return "DOUBLE"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Timestamp:
		return "DATETIME(6)"
	default:
		return "LONGTEXT"
	}
}

// LogicalType maps an information_schema DATA_TYPE back to a dataset type.
// BOOLEAN is stored as tinyint.
func (Dialect) LogicalType(dbType string) (schema.Type, bool) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "double", "float", "decimal":
		return schema.Numeric, true
	case "tinyint":
		return schema.Boolean, true
	case "datetime", "timestamp", "date":
		return schema.Timestamp, true
	case "longtext", "mediumtext", "text", "varchar":
		return schema.Text, true
	}
	return schema.Text, false
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS with AUTO_INCREMENT.
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, gddl.Style{
		Quote:    QuoteIdent,
		Identity: "BIGINT AUTO_INCREMENT PRIMARY KEY",
	})
}

// QuoteIdent wraps id in backticks, doubling embedded ones.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
