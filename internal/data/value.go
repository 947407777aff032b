package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Lookup resolves a dotted path such as "price.close" against item.
func Lookup(item Item, path string) (any, bool) {
	if item == nil || path == "" {
		return nil, false
	}
	var cur any = map[string]any(item)
	for _, key := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case Item:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// Float coerces the value at path to a float64. Missing values and values
// that are not finite numbers report false.
func Float(item Item, path string) (float64, bool) {
	v, ok := Lookup(item, path)
	if !ok {
		return math.NaN(), false
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return math.NaN(), false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case time.Time:
		return float64(x.UnixMilli()) / 1000, true
	case fmt.Stringer:
		f, err := strconv.ParseFloat(strings.TrimSpace(x.String()), 64)
		return f, err == nil
	default:
		return math.NaN(), false
	}
}

// String returns the value at path formatted for display, or "" when the
// path is missing.
func String(item Item, path string) string {
	v, ok := Lookup(item, path)
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
