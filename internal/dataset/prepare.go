package dataset

import (
	"bytes"

	"csvdataset/internal/ddl"
	"csvdataset/internal/domain"
	"csvdataset/internal/parser"
	"csvdataset/internal/probe"
	"csvdataset/internal/schema"
	"csvdataset/internal/transformer/builtin"
	"csvdataset/pkg/records"
)

// Prepared is an upload turned into SQL for one dialect, before anything
// touches the database.
type Prepared struct {
	Columns []string // source column names in header order
	Types   schema.Types
	Rows    []records.Record // coerced
	Skipped int

	Table     ddl.TableDef
	CreateSQL string
	Inserts   []ddl.Statement
}

// Prepare parses data, infers one type per column, coerces every row and
// renders the CREATE TABLE and batched INSERT statements for table.
func Prepare(p parser.Parser, d ddl.Dialect, table string, data []byte) (*Prepared, error) {
	ds, skipped, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return nil, domain.ErrValidation("empty dataset")
	}

	types := probe.InferTypes(ds)
	rows := builtin.Coerce{Types: types}.Apply(ds.Rows)

	def, err := ddl.DatasetTable(table, ds.Columns, types, d)
	if err != nil {
		return nil, err
	}
	create, err := d.CreateTableSQL(def)
	if err != nil {
		return nil, err
	}
	inserts, err := ddl.BuildInsert(d, table, ds.Columns, rows)
	if err != nil {
		return nil, err
	}
	return &Prepared{
		Columns:   ds.Columns,
		Types:     types,
		Rows:      rows,
		Skipped:   skipped,
		Table:     def,
		CreateSQL: create,
		Inserts:   inserts,
	}, nil
}

// ColumnInfo lists the materialized dataset columns, excluding the generated
// ones.
func (p *Prepared) ColumnInfo() []ColumnInfo {
	var out []ColumnInfo
	for _, c := range p.Table.Columns {
		if c.Source == "" {
			continue
		}
		out = append(out, ColumnInfo{Name: c.Name, Source: c.Source, Type: p.Types[c.Source]})
	}
	return out
}

// Script renders the statements with inlined literals for review.
func (p *Prepared) Script(d ddl.Dialect) (string, error) {
	body, err := ddl.RenderInsertScript(d, p.Table.FQN, p.Columns, p.Rows)
	if err != nil {
		return "", err
	}
	return p.CreateSQL + "\n" + body, nil
}
