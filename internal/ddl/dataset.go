package ddl

import (
	"strings"

	"csvdataset/internal/domain"
	"csvdataset/internal/schema"
)

// Names of the generated columns every dataset table carries.
const (
	IDColumn        = "id"
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// IsAuditColumn reports whether name is one of the audit timestamp columns.
func IsAuditColumn(name string) bool {
	return strings.EqualFold(name, CreatedAtColumn) || strings.EqualFold(name, UpdatedAtColumn)
}

// SanitizeIdent replaces every rune outside [A-Za-z0-9_] with '_'.
func SanitizeIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SanitizeColumns sanitizes every column name and rejects empty results,
// names that collide after sanitization and names that shadow a generated
// column. Comparison is case-insensitive since several engines fold column
// names.
func SanitizeColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return nil, domain.ErrValidation("dataset has no columns")
	}
	seen := map[string]string{
		IDColumn:        IDColumn,
		CreatedAtColumn: CreatedAtColumn,
		UpdatedAtColumn: UpdatedAtColumn,
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		s := SanitizeIdent(c)
		if s == "" {
			return nil, domain.ErrValidation("column %d has an empty name", i+1)
		}
		key := strings.ToLower(s)
		if prev, ok := seen[key]; ok {
			if prev == IDColumn || prev == CreatedAtColumn || prev == UpdatedAtColumn {
				return nil, domain.ErrValidation("column %q is reserved", c)
			}
			return nil, domain.ErrValidation("columns %q and %q both become %q", prev, c, s)
		}
		seen[key] = c
		out[i] = s
	}
	return out, nil
}

// DatasetTable builds the table definition for a dataset: the generated id
// first, one nullable column per dataset column typed from types, and the two
// audit columns defaulting to the server clock.
func DatasetTable(table string, columns []string, types schema.Types, d Dialect) (TableDef, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return TableDef{}, domain.ErrValidation("missing table name")
	}
	names, err := SanitizeColumns(columns)
	if err != nil {
		return TableDef{}, err
	}

	cols := make([]ColumnDef, 0, len(names)+3)
	cols = append(cols, ColumnDef{Name: IDColumn, Identity: true, PrimaryKey: true})
	for i, n := range names {
		cols = append(cols, ColumnDef{
			Name:     n,
			Source:   columns[i],
			SQLType:  d.MapType(types[columns[i]]),
			Nullable: true,
		})
	}
	ts := d.MapType(schema.Timestamp)
	cols = append(cols,
		ColumnDef{Name: CreatedAtColumn, SQLType: ts, Default: d.NowExpr()},
		ColumnDef{Name: UpdatedAtColumn, SQLType: ts, Default: d.NowExpr()},
	)
	return TableDef{FQN: table, Columns: cols}, nil
}
