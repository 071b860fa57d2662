// Package builtin holds the value transforms applied to parsed rows before
// they are written to the dataset table.
package builtin

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"csvdataset/internal/probe"
	"csvdataset/internal/schema"
	"csvdataset/pkg/records"
)

// Coerce converts every column listed in Types to its canonical in-type
// value. Columns without an entry are left untouched.
type Coerce struct {
	Types schema.Types
}

// Apply returns coerced copies of in. The input rows are not modified.
func (c Coerce) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		nr := r.Clone()
		for field, typ := range c.Types {
			nr[field] = CoerceValue(r[field], typ)
		}
		out[i] = nr
	}
	return out
}

// CoerceValue converts v to the representation used for typ:
//
//	Numeric   float64
//	Boolean   bool
//	Timestamp time.Time (UTC)
//	Text      string
//
// Nil and the empty string become nil for every type, as does anything that
// fails to parse. CoerceValue never panics.
func CoerceValue(v any, typ schema.Type) any {
	if isEmpty(v) {
		return nil
	}
	switch typ {
	case schema.Numeric:
		return toNumber(v)
	case schema.Boolean:
		return toBool(v)
	case schema.Timestamp:
		return toTime(v)
	default:
		return toText(v)
	}
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func toNumber(v any) any {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		return nil
	case string:
		if f, ok := probe.ParseNumber(x); ok {
			return f
		}
		return nil
	}
	if f, ok := probe.ParseNumber(fmt.Sprint(v)); ok {
		return f
	}
	return nil
}

func toBool(v any) any {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(strings.TrimSpace(x), "true")
	case []byte:
		return strings.EqualFold(strings.TrimSpace(string(x)), "true")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func toTime(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case *time.Time:
		return x.UTC()
	case string:
		if t, ok := probe.ParseTime(x); ok {
			return t
		}
		return nil
	}
	if t, ok := probe.ParseTime(fmt.Sprint(v)); ok {
		return t
	}
	return nil
}

func toText(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
