// Package cast converts loosely typed configuration values (decoded from YAML, JSON or
// supplied by callers as map[string]any) into the concrete types provider adapters need.
package cast

import (
	"encoding/json"
	"math"
)

// ToFloat64 converts any Go numeric type or json.Number to float64.
func ToFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	if i, ok := toInt64Exact(v); ok {
		return float64(i), true
	}
	return 0, false
}

// ToInt64 converts an integral value to int64. Floats are accepted only when they hold a
// whole number (YAML and JSON decode 3 as float64 in some paths). Unsigned values above
// math.MaxInt64 are clamped.
func ToInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return wholeFloat(x)
	case float32:
		return wholeFloat(float64(x))
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return wholeFloat(f)
	}
	return toInt64Exact(v)
}

func wholeFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	if f <= math.MinInt64 {
		return math.MinInt64, true
	}
	return int64(f), true
}

func toInt64Exact(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		return clampUint(uint64(x)), true
	case uint64:
		return clampUint(x), true
	default:
		return 0, false
	}
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

// ToStringSlice converts []string, []any of strings, or a single string (wrapped) to []string.
func ToStringSlice(v any) ([]string, bool) {
	switch x := v.(type) {
	case string:
		return []string{x}, true
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
