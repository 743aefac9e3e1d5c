package llmjson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Float converts numbers and numeric strings, including "85%" and "85/100".
func Float(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case float32:
		return Float(float64(val))
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(val)
		trimmed = strings.TrimSuffix(trimmed, "%")
		if idx := strings.Index(trimmed, "/"); idx != -1 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return Float(f)
	default:
		return 0, false
	}
}

// Int converts like Float and rounds to the nearest integer.
func Int(v any) (int, bool) {
	f, ok := Float(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// String returns strings as-is (trimmed) and renders other values as JSON.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// Strings accepts an array of scalars or a single newline/semicolon separated string.
func Strings(v any) ([]string, bool) {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := String(item); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case []string:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		parts := strings.FieldsFunc(val, func(r rune) bool { return r == '\n' || r == ';' })
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), "-*•"))
			if part != "" {
				out = append(out, part)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Lookup returns the first present, non-null value among keys.
func Lookup(data map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
