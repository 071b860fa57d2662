// Package parser defines the contract shared by input parsers.
package parser

import (
	"io"

	"csvdataset/internal/schema"
)

// Parser turns raw bytes into a header-ordered dataset. The int result is the
// number of malformed rows that were skipped.
type Parser interface {
	Parse(r io.Reader) (schema.Dataset, int, error)
}
