package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"csvdataset/internal/ddl"
	"csvdataset/internal/domain"
	"csvdataset/internal/metrics"
	"csvdataset/internal/schema"
)

// Default paging parameters.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
)

// PageColumn is a column of the dataset table as listed by the catalog.
type PageColumn struct {
	Name string      `json:"name"`
	Type schema.Type `json:"type"`
	// Known is false when the catalog type has no dataset type, e.g. id.
	Known bool `json:"-"`
}

// Page is one window of dataset rows ordered by id.
type Page struct {
	Columns    []PageColumn     `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	TotalCount int64            `json:"totalCount"`
	LastPage   int64            `json:"lastPage"`
	PageNumber int              `json:"pageNumber"`
	PageSize   int              `json:"pageSize"`
}

// Page returns rows [(pageNumber-1)*pageSize, pageNumber*pageSize) of the
// dataset. Values below 1 fall back to the defaults; pageSize is clamped to
// MaxPageSize when one is configured. The column list is read from the
// catalog on every call and excludes the audit columns.
func (m *Manager) Page(ctx context.Context, pageNumber, pageSize int) (p *Page, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(m.opt.Job, metrics.StepPage, err, time.Since(start)) }()

	if pageNumber < 1 {
		pageNumber = DefaultPageNumber
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if m.opt.MaxPageSize > 0 && pageSize > m.opt.MaxPageSize {
		pageSize = m.opt.MaxPageSize
	}

	exists, err := m.repo.TableExists(ctx, m.opt.Table)
	if err != nil {
		return nil, domain.ErrSQL("table exists", err)
	}
	if !exists {
		return nil, domain.ErrNotFound("no dataset uploaded")
	}

	catalog, err := m.repo.Columns(ctx, m.opt.Table)
	if err != nil {
		return nil, domain.ErrSQL("columns", err)
	}
	d := m.dialect
	cols := make([]PageColumn, 0, len(catalog))
	quoted := make([]string, 0, len(catalog))
	for _, c := range catalog {
		if ddl.IsAuditColumn(c.Name) {
			continue
		}
		t, ok := d.LogicalType(c.DBType)
		cols = append(cols, PageColumn{Name: c.Name, Type: t, Known: ok})
		quoted = append(quoted, d.QuoteIdent(c.Name))
	}
	if len(cols) == 0 {
		return nil, domain.ErrSQL("columns", fmt.Errorf("table %s has no columns", m.opt.Table))
	}
	table := ddl.QuoteFQN(m.opt.Table, d.QuoteIdent)

	countRows, err := m.repo.Query(ctx, "SELECT COUNT(*) FROM "+table)
	if err != nil {
		return nil, domain.ErrSQL("count", err)
	}
	var total int64
	if len(countRows) == 1 && len(countRows[0]) == 1 {
		if total, err = toInt64(countRows[0][0]); err != nil {
			return nil, domain.ErrSQL("count", err)
		}
	}

	// Windows starting past MaxInt64 are empty.
	var raw [][]any
	if skip, size := int64(pageNumber-1), int64(pageSize); skip <= math.MaxInt64/size {
		stmt := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s %s",
			strings.Join(quoted, ", "), table, d.QuoteIdent(ddl.IDColumn), d.LimitOffset(1, 2))
		raw, err = m.repo.Query(ctx, stmt, d.BindValue(size), d.BindValue(skip*size))
		if err != nil {
			return nil, domain.ErrSQL("page", err)
		}
	}

	rows := make([]map[string]any, len(raw))
	for i, r := range raw {
		row := make(map[string]any, len(cols))
		for j, c := range cols {
			if j >= len(r) {
				break
			}
			row[c.Name] = decode(c, r[j])
		}
		rows[i] = row
	}

	return &Page{
		Columns:    cols,
		Rows:       rows,
		TotalCount: total,
		LastPage:   int64(math.Ceil(float64(total) / float64(pageSize))),
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}, nil
}

func decode(c PageColumn, v any) any {
	if c.Known {
		return ddl.DecodeValue(c.Type, v)
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}
