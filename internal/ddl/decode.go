package ddl

import (
	"strconv"
	"strings"
	"time"

	"csvdataset/internal/schema"
)

// storedTimeLayouts are the text forms timestamps come back as from engines
// without a native timestamp type.
var storedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// DecodeValue normalizes a scanned driver value back into the coerced
// representation for t: float64, bool, time.Time (UTC) or string. Values that
// do not fit are returned with []byte turned into string.
func DecodeValue(t schema.Type, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	switch t {
	case schema.Numeric:
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f
			}
		}
	case schema.Boolean:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		case string:
			switch strings.ToLower(strings.TrimSpace(x)) {
			case "1", "true", "t":
				return true
			case "0", "false", "f":
				return false
			}
		}
	case schema.Timestamp:
		switch x := v.(type) {
		case time.Time:
			return x.UTC()
		case string:
			for _, l := range storedTimeLayouts {
				if ts, err := time.Parse(l, x); err == nil {
					return ts.UTC()
				}
			}
		}
	case schema.Text:
		if s, ok := v.(string); ok {
			return s
		}
	}
	return v
}
