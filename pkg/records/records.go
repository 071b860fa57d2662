// Package records holds the row representation shared by the parser, the
// inference and coercion steps, and the SQL builders.
package records

// Record is a single row keyed by column name. Values are either raw parser
// output (string, float64, bool) or coerced values (float64, bool, time.Time,
// string, nil).
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
