package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"csvdataset/internal/ddl"
	"csvdataset/internal/domain"
	"csvdataset/internal/schema"
	"csvdataset/internal/storage"
)

// BlobRecord is the metadata row describing the stored copy of the current
// upload.
type BlobRecord struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"created_at"`
}

// metaColumns are the metadata columns in select/insert order.
var metaColumns = []struct {
	name string
	typ  schema.Type
}{
	{"blob_id", schema.Text},
	{"url", schema.Text},
	{"filename", schema.Text},
	{"content_type", schema.Text},
	{"size_bytes", schema.Numeric},
	{"checksum", schema.Text},
	{"created_at", schema.Timestamp},
}

func metadataTable(name string, d ddl.Dialect) ddl.TableDef {
	cols := []ddl.ColumnDef{{Name: ddl.IDColumn, Identity: true, PrimaryKey: true}}
	for _, c := range metaColumns {
		def := ddl.ColumnDef{Name: c.name, SQLType: d.MapType(c.typ)}
		if c.name == "created_at" {
			def.Default = d.NowExpr()
		}
		cols = append(cols, def)
	}
	return ddl.TableDef{FQN: name, Columns: cols}
}

func (m *Manager) ensureMetadata(ctx context.Context) error {
	stmt, err := m.dialect.CreateTableSQL(metadataTable(m.opt.MetadataTable, m.dialect))
	if err != nil {
		return err
	}
	return m.repo.InTx(ctx, func(ctx context.Context, q storage.Querier) error {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return domain.ErrSQL("create metadata", err)
		}
		return nil
	})
}

func (m *Manager) selectMetadataSQL() string {
	d := m.dialect
	names := make([]string, len(metaColumns))
	for i, c := range metaColumns {
		names[i] = d.QuoteIdent(c.name)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC",
		strings.Join(names, ", "), ddl.QuoteFQN(m.opt.MetadataTable, d.QuoteIdent), d.QuoteIdent(ddl.IDColumn))
}

// current reads the metadata row; nil when none exists.
func (m *Manager) current(ctx context.Context, q storage.Querier) (*BlobRecord, error) {
	rows, err := q.Query(ctx, m.selectMetadataSQL())
	if err != nil {
		return nil, domain.ErrSQL("read metadata", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	if len(r) != len(metaColumns) {
		return nil, domain.ErrSQL("read metadata", fmt.Errorf("want %d values, got %d", len(metaColumns), len(r)))
	}
	v := make([]any, len(r))
	for i, c := range metaColumns {
		v[i] = ddl.DecodeValue(c.typ, r[i])
	}
	rec := &BlobRecord{
		ID:          asString(v[0]),
		URL:         asString(v[1]),
		Filename:    asString(v[2]),
		ContentType: asString(v[3]),
		Checksum:    asString(v[5]),
	}
	if f, ok := v[4].(float64); ok {
		rec.SizeBytes = int64(f)
	}
	if ts, ok := v[6].(time.Time); ok {
		rec.CreatedAt = ts
	}
	return rec, nil
}

func (m *Manager) insertMetadata(ctx context.Context, q storage.Querier, rec BlobRecord) error {
	d := m.dialect
	names := make([]string, len(metaColumns))
	marks := make([]string, len(metaColumns))
	for i, c := range metaColumns {
		names[i] = d.QuoteIdent(c.name)
		marks[i] = d.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(m.opt.MetadataTable, d.QuoteIdent), strings.Join(names, ", "), strings.Join(marks, ", "))
	args := []any{rec.ID, rec.URL, rec.Filename, rec.ContentType, float64(rec.SizeBytes), rec.Checksum, rec.CreatedAt}
	for i := range args {
		args[i] = d.BindValue(args[i])
	}
	if _, err := q.Exec(ctx, stmt, args...); err != nil {
		return domain.ErrSQL("insert metadata", err)
	}
	return nil
}

func (m *Manager) deleteMetadata(ctx context.Context, q storage.Querier) error {
	stmt := "DELETE FROM " + ddl.QuoteFQN(m.opt.MetadataTable, m.dialect.QuoteIdent)
	if _, err := q.Exec(ctx, stmt); err != nil {
		return domain.ErrSQL("delete metadata", err)
	}
	return nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
