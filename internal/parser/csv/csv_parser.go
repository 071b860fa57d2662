// Package csv parses uploaded CSV files into a schema.Dataset.
//
// Input may be UTF-8 (with or without BOM) or BOM-marked UTF-16. The first
// row is the header; rows whose width differs from the header are skipped
// and counted rather than failing the whole file.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"csvdataset/internal/config"
	"csvdataset/internal/domain"
	"csvdataset/internal/probe"
	"csvdataset/internal/schema"
	"csvdataset/pkg/records"
)

// Options configures the CSV parser. The zero value parses comma-separated
// text and keeps every cell as a string.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from each field value.
	TrimSpace bool

	// DynamicTyping converts numeric cells to float64 and true/false cells
	// to bool while parsing.
	DynamicTyping bool

	// HeaderMap renames source headers before they become column names.
	HeaderMap map[string]string

	// Logger receives skipped-row messages; nil uses log.Default().
	Logger *log.Logger
}

// OptionsFrom reads parser options from a config options bag:
// comma (string), trim_space (bool), dynamic_typing (bool) and
// header_map (object).
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:         o.Rune("comma", ','),
		TrimSpace:     o.Bool("trim_space", false),
		DynamicTyping: o.Bool("dynamic_typing", false),
		HeaderMap:     o.StringMap("header_map"),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs and for concurrent use.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// maxLoggedSkips bounds the number of skipped-row log lines per file.
const maxLoggedSkips = 100

// Parse reads the whole input and returns the dataset and the number of
// skipped rows. An input without a header row is a ValidationError.
func (p *Parser) Parse(r io.Reader) (schema.Dataset, int, error) {
	logger := p.opt.Logger
	if logger == nil {
		logger = log.Default()
	}

	// BOMOverride strips a UTF-8 BOM and decodes BOM-marked UTF-16.
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	h, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return schema.Dataset{}, 0, domain.ErrValidation("empty file: no header row")
	}
	if err != nil {
		return schema.Dataset{}, 0, domain.ErrValidation("read csv header: %v", err)
	}
	headers, err := normalizeHeaders(h, p.opt)
	if err != nil {
		return schema.Dataset{}, 0, err
	}

	ds := schema.Dataset{Columns: headers}
	var skipped int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return schema.Dataset{}, skipped, fmt.Errorf("read csv: %w", err)
			}
			if skipped < maxLoggedSkips {
				logger.Printf("csv: skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}
		if len(headers) > 1 && isBlank(row) {
			continue
		}
		if len(row) != len(headers) {
			if skipped < maxLoggedSkips {
				logger.Printf("csv: skipping row %d: expected %d fields, got %d", line, len(headers), len(row))
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = p.value(val)
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds, skipped, nil
}

// value converts one cell. Empty cells become nil.
func (p *Parser) value(s string) any {
	if s == "" {
		return nil
	}
	if !p.opt.DynamicTyping {
		return s
	}
	if f, ok := probe.ParseNumber(s); ok {
		return f
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// isBlank reports whether row is a single empty field, which encoding/csv
// produces for whitespace-only lines. In a single-column file such a row is
// a record with a missing value, so callers only skip it for wider headers.
func isBlank(row []string) bool {
	return len(row) == 1 && strings.TrimSpace(row[0]) == ""
}

// normalizeHeaders trims header cells, applies HeaderMap and names blank
// cells column_<n> (1-based). Duplicate names are a ValidationError since
// each row is keyed by header.
func normalizeHeaders(h []string, opt Options) ([]string, error) {
	res := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if m, ok := opt.HeaderMap[c]; ok {
			c = m
		}
		if c == "" {
			c = fmt.Sprintf("column_%d", i+1)
		}
		if j, dup := seen[c]; dup {
			return nil, domain.ErrValidation("duplicate header %q in columns %d and %d", c, j+1, i+1)
		}
		seen[c] = i
		res[i] = c
	}
	return res, nil
}
