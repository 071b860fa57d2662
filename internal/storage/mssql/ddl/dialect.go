// Package ddl is the SQL Server dialect for dataset tables.
//
// SQL Server has no CREATE TABLE IF NOT EXISTS; the create statement is
// guarded with OBJECT_ID instead.
package ddl

import (
	"fmt"
	"strings"

	gddl "csvdataset/internal/ddl"
	"csvdataset/internal/schema"
)

// Dialect implements ddl.Dialect for SQL Server.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

// DATETIMEOFFSET keeps at most 7 fractional digits.
var literalStyle = gddl.LiteralStyle{
	True:       "1",
	False:      "0",
	TextPrefix: "N",
	TimeLayout: "2006-01-02T15:04:05.9999999Z07:00",
}

func (Dialect) Name() string                { return "mssql" }
func (Dialect) QuoteIdent(id string) string { return QuoteIdent(id) }
func (Dialect) Placeholder(n int) string    { return fmt.Sprintf("@p%d", n) }
func (Dialect) NowExpr() string             { return "SYSDATETIMEOFFSET()" }
func (Dialect) TransactionalDDL() bool      { return true }
func (Dialect) BindValue(v any) any         { return v }
func (Dialect) Literal(v any) string        { return gddl.FormatLiteral(v, literalStyle) }

// MaxParams stays under the 2100 parameter ceiling of sp_executesql.
func (Dialect) MaxParams() int { return 2000 }

func (Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + gddl.QuoteFQN(table, QuoteIdent)
}

// LimitOffset renders OFFSET/FETCH, which must follow ORDER BY.
func (Dialect) LimitOffset(limitArg, offsetArg int) string {
	return fmt.Sprintf("OFFSET @p%d ROWS FETCH NEXT @p%d ROWS ONLY", offsetArg, limitArg)
}

// MapType maps a dataset type to a SQL Server column type.
func (Dialect) MapType(t schema.Type) string {
	switch t {
	case schema.Numeric:
		return "FLOAT"
	case schema.Boolean:
		return "BIT"
	case schema.Timestamp:
		return "DATETIMEOFFSET"
	default:
		return "NVARCHAR(MAX)"
	}
}

// LogicalType maps an INFORMATION_SCHEMA DATA_TYPE back to a dataset type.
func (Dialect) LogicalType(dbType string) (schema.Type, bool) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "float", "real", "decimal", "numeric":
		return schema.Numeric, true
	case "bit":
		return schema.Boolean, true
	case "datetimeoffset", "datetime2", "datetime", "date":
		return schema.Timestamp, true
	case "nvarchar", "varchar", "ntext", "text":
		return schema.Text, true
	}
	return schema.Text, false
}

// CreateTableSQL renders a CREATE TABLE guarded by OBJECT_ID.
func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, gddl.Style{
		Quote:    QuoteIdent,
		Identity: "BIGINT IDENTITY(1,1) PRIMARY KEY",
		Wrap: func(table, body string) string {
			return fmt.Sprintf("IF OBJECT_ID(N%s, N'U') IS NULL\nCREATE TABLE %s (\n  %s\n);",
				gddl.QuoteString(table), table, body)
		},
	})
}

// QuoteIdent brackets an identifier, doubling any closing bracket.
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
