// Package schema defines the logical column types assigned to uploaded
// datasets and the in-memory dataset shape that flows from the parser into
// inference, DDL generation and loading.
package schema

import (
	"fmt"
	"strings"

	"csvdataset/pkg/records"
)

// Type is the semantic type inferred for a dataset column.
type Type int

const (
	Text Type = iota
	Numeric
	Boolean
	Timestamp
)

var typeNames = [...]string{
	Text:      "text",
	Numeric:   "numeric",
	Boolean:   "boolean",
	Timestamp: "timestamp",
}

func (t Type) String() string {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// MarshalText renders the type as its lowercase name.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (t *Type) UnmarshalText(b []byte) error {
	p, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = p
	return nil
}

// ParseType maps a lowercase type name back to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return Text, nil
	case "numeric":
		return Numeric, nil
	case "boolean":
		return Boolean, nil
	case "timestamp":
		return Timestamp, nil
	}
	return Text, fmt.Errorf("schema: unknown type %q", s)
}

// Dataset is a parsed upload. Columns carries the first row's keys in
// header order; Go maps do not preserve it.
type Dataset struct {
	Columns []string
	Rows    []records.Record
}

// Types maps a column name to its inferred Type.
type Types map[string]Type
