package probe

import (
	"testing"
	"time"

	"csvdataset/internal/schema"
	"csvdataset/pkg/records"
)

func rowsOf(col string, vals ...any) []records.Record {
	out := make([]records.Record, len(vals))
	for i, v := range vals {
		out[i] = records.Record{col: v}
	}
	return out
}

// TestInferColumn walks the priority table with raw CSV strings and with
// values that arrive already typed from the parser.
func TestInferColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vals []any
		want schema.Type
	}{
		{"all empty", []any{"", nil, ""}, schema.Text},
		{"no rows", nil, schema.Text},
		{"numeric strings", []any{"10", "", "3.5", "-1e3"}, schema.Numeric},
		{"native numbers", []any{1.5, 2, int64(3)}, schema.Numeric},
		{"boolean strings", []any{"true", "FALSE", ""}, schema.Boolean},
		{"native booleans", []any{true, false}, schema.Boolean},
		{"date strings", []any{"2023-01-01", "", "2023-02-03T04:05:06Z"}, schema.Timestamp},
		{"native time", []any{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}, schema.Timestamp},
		{"mixed number and text", []any{"5", "abc"}, schema.Text},
		{"plain text", []any{"alpha", "beta"}, schema.Text},
		{"number and boolean", []any{"1.5", "true"}, schema.Numeric},
		{"boolean and date", []any{"true", "2023-01-01"}, schema.Boolean},
		{"date and text", []any{"2023-01-01", "soon"}, schema.Text},
		{"nan is text", []any{"NaN"}, schema.Text},
		{"infinity is text", []any{"Inf", "1"}, schema.Text},
		{"hex is text", []any{"0x1F"}, schema.Text},
		{"yes is text", []any{"yes", "no"}, schema.Text},
		{"number then native bool", []any{2.0, true}, schema.Numeric},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := InferColumn("c", rowsOf("c", tc.vals...))
			if got != tc.want {
				t.Fatalf("InferColumn(%v) = %v, want %v", tc.vals, got, tc.want)
			}
		})
	}
}

// TestInferTypes_UploadScenario covers the partially populated timestamp and
// boolean columns from a two-row upload.
func TestInferTypes_UploadScenario(t *testing.T) {
	t.Parallel()

	ds := schema.Dataset{
		Columns: []string{"amt", "flag", "ts"},
		Rows: []records.Record{
			{"amt": "10", "flag": "true", "ts": "2023-01-01"},
			{"amt": "", "flag": "false", "ts": ""},
		},
	}
	got := InferTypes(ds)
	want := schema.Types{"amt": schema.Numeric, "flag": schema.Boolean, "ts": schema.Timestamp}
	if len(got) != len(want) {
		t.Fatalf("InferTypes len = %d, want %d", len(got), len(want))
	}
	for k, w := range want {
		if got[k] != w {
			t.Fatalf("InferTypes[%q] = %v, want %v", k, got[k], w)
		}
	}
}

// TestInferTypes_IgnoresStrayKeys ensures keys that only appear in later rows
// are not part of the type map.
func TestInferTypes_IgnoresStrayKeys(t *testing.T) {
	t.Parallel()

	ds := schema.Dataset{
		Columns: []string{"a"},
		Rows: []records.Record{
			{"a": "1"},
			{"a": "2", "extra": "x"},
		},
	}
	got := InferTypes(ds)
	if _, ok := got["extra"]; ok {
		t.Fatalf("InferTypes included stray key: %v", got)
	}
	if got["a"] != schema.Numeric {
		t.Fatalf("InferTypes[a] = %v, want numeric", got["a"])
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2023-01-01", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2023-01-01 12:30:00", time.Date(2023, 1, 1, 12, 30, 0, 0, time.UTC), true},
		{"2023-01-01T12:30:00+02:00", time.Date(2023, 1, 1, 10, 30, 0, 0, time.UTC), true},
		{"01/02/2023", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"31.12.2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"Jan 2, 2006", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"tomorrow", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tc := range tests {
		got, ok := ParseTime(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseTime(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("ParseTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if ok && got.Location() != time.UTC {
			t.Fatalf("ParseTime(%q) location = %v, want UTC", tc.in, got.Location())
		}
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{" 3.25 ", 3.25, true},
		{"-1e3", -1000, true},
		{"1_000", 0, false},
		{"0b101", 0, false},
		{"nan", 0, false},
		{"1,5", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func BenchmarkInferColumn(b *testing.B) {
	rows := make([]records.Record, 10000)
	for i := range rows {
		rows[i] = records.Record{"v": "12.5"}
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = InferColumn("v", rows)
	}
}
