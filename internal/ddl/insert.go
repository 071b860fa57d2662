package ddl

import (
	"fmt"
	"strings"

	"csvdataset/pkg/records"
)

// MaxRowsPerInsert caps the VALUES list of a single statement. SQL Server
// rejects more than 1000 row constructors.
const MaxRowsPerInsert = 1000

// BuildInsert renders parameterized INSERT statements for rows. The column
// list is columns (the first row's keys in order, sanitized) followed by the
// two audit columns, which take the dialect's now-expression. Rows are split
// so no statement exceeds the dialect's parameter limit. Keys missing from a
// row bind NULL; keys not in columns are ignored. Zero rows yield no
// statements.
func BuildInsert(d Dialect, table string, columns []string, rows []records.Record) ([]Statement, error) {
	var out []Statement
	err := buildInsert(d, table, columns, rows, func(sql string, args []any) {
		out = append(out, Statement{SQL: sql, Args: args})
	}, true)
	return out, err
}

// RenderInsertScript renders the same statements as BuildInsert with every
// value inlined as a literal, one statement per line. It is used for dry
// runs; the loader always binds parameters.
func RenderInsertScript(d Dialect, table string, columns []string, rows []records.Record) (string, error) {
	var sb strings.Builder
	err := buildInsert(d, table, columns, rows, func(sql string, _ []any) {
		sb.WriteString(sql)
		sb.WriteString(";\n")
	}, false)
	return sb.String(), err
}

func buildInsert(d Dialect, table string, columns []string, rows []records.Record, emit func(string, []any), bind bool) error {
	if strings.TrimSpace(table) == "" {
		return fmt.Errorf("ddl: insert: table must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}
	names, err := SanitizeColumns(columns)
	if err != nil {
		return err
	}

	perStmt := MaxRowsPerInsert
	if bind {
		if len(columns) > d.MaxParams() {
			return fmt.Errorf("ddl: insert: %d columns exceed the %s parameter limit of %d", len(columns), d.Name(), d.MaxParams())
		}
		if n := d.MaxParams() / len(columns); n < perStmt {
			perStmt = n
		}
	}

	quoted := make([]string, 0, len(names)+2)
	for _, n := range names {
		quoted = append(quoted, d.QuoteIdent(n))
	}
	quoted = append(quoted, d.QuoteIdent(CreatedAtColumn), d.QuoteIdent(UpdatedAtColumn))
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", QuoteFQN(table, d.QuoteIdent), strings.Join(quoted, ", "))
	now := d.NowExpr()

	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))

		var sb strings.Builder
		sb.WriteString(head)
		var args []any
		if bind {
			args = make([]any, 0, (end-start)*len(columns))
		}
		for i, r := range rows[start:end] {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for j, c := range columns {
				if j > 0 {
					sb.WriteString(", ")
				}
				if bind {
					args = append(args, d.BindValue(r[c]))
					sb.WriteString(d.Placeholder(len(args)))
				} else {
					sb.WriteString(d.Literal(r[c]))
				}
			}
			sb.WriteString(", ")
			sb.WriteString(now)
			sb.WriteString(", ")
			sb.WriteString(now)
			sb.WriteByte(')')
		}
		emit(sb.String(), args)
	}
	return nil
}
