// Package ddl defines the backend-agnostic model for dataset tables and the
// helpers that render CREATE TABLE and batched INSERT statements from it.
//
// Dialect-specific details (quoting, placeholders, type names, the identity
// clause) come from a Dialect; the implementations live next to each storage
// backend in internal/storage/<backend>/ddl.
package ddl

import (
	"fmt"
	"strings"
)

// Style carries the per-dialect pieces of a CREATE TABLE statement.
type Style struct {
	// Quote quotes a single identifier.
	Quote func(string) string
	// Identity is the full column clause used for ColumnDef.Identity,
	// e.g. "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY".
	Identity string
	// Wrap turns the quoted table name and the rendered column body into the
	// final statement. Nil renders CREATE TABLE IF NOT EXISTS.
	Wrap func(table, body string) string
}

// BuildCreateTableSQL renders a CREATE TABLE statement for t.
//
// Each column is rendered as
//
//	<quoted name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// except identity columns, which use Style.Identity verbatim. Non-identity
// primary key columns are collected into a trailing PRIMARY KEY clause.
func BuildCreateTableSQL(t TableDef, s Style) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	if s.Quote == nil {
		return "", fmt.Errorf("ddl: style has no quote function")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		if c.Identity {
			if s.Identity == "" {
				return "", fmt.Errorf("ddl: dialect has no identity clause for column %s", name)
			}
			cols = append(cols, s.Quote(name)+" "+s.Identity)
			continue
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(s.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, s.Quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	table := QuoteFQN(fqn, s.Quote)
	body := strings.Join(cols, ",\n  ")
	if s.Wrap != nil {
		return s.Wrap(table, body), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", table, body), nil
}

// QuoteFQN quotes every dot-separated segment of fqn.
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}
