package ddl

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LiteralStyle describes how a dialect spells inline literals.
type LiteralStyle struct {
	True, False string
	// TextPrefix is prepended to quoted strings, e.g. "N" for SQL Server.
	TextPrefix string
	// TimeLayout formats timestamps (always rendered in UTC).
	TimeLayout string
}

// FormatLiteral renders v as a type-correct SQL literal: NULL for nil,
// quoted text with single quotes doubled, bare numbers and booleans, and
// quoted timestamps.
func FormatLiteral(v any, s LiteralStyle) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return s.TextPrefix + QuoteString(x)
	case []byte:
		return s.TextPrefix + QuoteString(string(x))
	case bool:
		if x {
			return s.True
		}
		return s.False
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		layout := s.TimeLayout
		if layout == "" {
			layout = time.RFC3339Nano
		}
		return QuoteString(x.UTC().Format(layout))
	default:
		return s.TextPrefix + QuoteString(fmt.Sprint(v))
	}
}

// QuoteString wraps s in single quotes, doubling embedded ones.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
