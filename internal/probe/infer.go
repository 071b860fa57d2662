// Package probe infers a semantic column type from the values of an uploaded
// dataset.
//
// Every row is scanned (no sampling). Empty values carry no signal. Each
// non-empty value raises one of four flags and the flags are resolved by a
// fixed priority table, so inference never fails: anything ambiguous
// degrades to schema.Text.
package probe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"csvdataset/internal/schema"
	"csvdataset/pkg/records"
)

// flags records which kinds of values a column has shown so far.
type flags struct {
	sawString  bool
	sawNumber  bool
	sawBoolean bool
	sawDate    bool
}

// InferColumn decides the type of column name across all rows.
func InferColumn(name string, rows []records.Record) schema.Type {
	var f flags
	for _, r := range rows {
		f.observe(r[name])
	}
	return f.resolve()
}

// InferTypes runs InferColumn once per column and returns the column→type
// map that the coercion and DDL steps consume.
func InferTypes(ds schema.Dataset) schema.Types {
	out := make(schema.Types, len(ds.Columns))
	for _, c := range ds.Columns {
		out[c] = InferColumn(c, ds.Rows)
	}
	return out
}

func (f *flags) observe(v any) {
	switch x := v.(type) {
	case nil:
	case string:
		f.observeString(x)
	case bool:
		f.sawBoolean = true
	case time.Time:
		f.sawDate = true
	case *time.Time:
		if x != nil {
			f.sawDate = true
		}
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f.sawNumber = true
	case []byte:
		f.observeString(string(x))
	case fmt.Stringer:
		f.observeString(x.String())
	default:
		f.observeString(fmt.Sprint(x))
	}
}

func (f *flags) observeString(s string) {
	if s == "" {
		return
	}
	switch {
	case IsNumeric(s):
		f.sawNumber = true
	case IsBoolLiteral(s):
		f.sawBoolean = true
	case IsDate(s):
		f.sawDate = true
	default:
		f.sawString = true
	}
}

// resolve applies the priority table. Order matters.
func (f flags) resolve() schema.Type {
	switch {
	case f.sawNumber && !f.sawString:
		return schema.Numeric
	case f.sawDate && !f.sawString && !f.sawNumber && !f.sawBoolean:
		return schema.Timestamp
	case f.sawBoolean && !f.sawString && !f.sawNumber && !f.sawDate:
		return schema.Boolean
	case f.sawString && f.sawNumber:
		return schema.Text
	case f.sawString:
		return schema.Text
	case f.sawNumber:
		return schema.Numeric
	case f.sawBoolean:
		return schema.Boolean
	case f.sawDate:
		return schema.Timestamp
	default:
		return schema.Text
	}
}

// IsNumeric reports whether s is a finite decimal or scientific number.
// Hex, binary and underscore-separated forms accepted by strconv are
// rejected since CSV producers never emit them.
func IsNumeric(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// ParseNumber parses s with locale-agnostic rules.
func ParseNumber(s string) (float64, bool) {
	st := strings.TrimSpace(s)
	if st == "" || strings.ContainsAny(st, "_xXpPoObB") {
		return 0, false
	}
	f, err := strconv.ParseFloat(st, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsBoolLiteral accepts "true" and "false" in any case.
func IsBoolLiteral(s string) bool {
	st := strings.TrimSpace(s)
	return strings.EqualFold(st, "true") || strings.EqualFold(st, "false")
}

// IsDate reports whether s matches one of the accepted date or timestamp
// layouts.
func IsDate(s string) bool {
	_, ok := ParseTime(s)
	return ok
}

// ParseTime tries timestamp layouts first, then date-only layouts. Values
// without a zone are read as UTC. The result is always in UTC.
func ParseTime(s string) (time.Time, bool) {
	st := strings.TrimSpace(s)
	if st == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, st); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, st); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// timestampLayouts carry a time component.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// dateLayouts are date-only. MDY wins over DMY for slashed dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}
