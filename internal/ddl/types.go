package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Source: dataset key the column was derived from, empty for the
//     generated id and audit columns
//   - SQLType: target SQL type (e.g., TEXT, DOUBLE PRECISION)
//   - Nullable: whether NULL is allowed
//   - Identity: generated auto-increment primary key; SQLType and
//     PrimaryKey are ignored because the dialect supplies the full clause
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	Source     string
	SQLType    string
	Nullable   bool
	Identity   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (dotted "schema.table" allowed) and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Statement is a SQL text with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}
