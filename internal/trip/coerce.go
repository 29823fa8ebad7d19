package trip

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SafeNumber coerces an arbitrary decoded JSON value to a finite float64.
// Missing, non-numeric, NaN, and infinite values become 0.
func SafeNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// SafeInt coerces to an int, rounding to nearest. Values outside the int32
// range saturate at its bounds.
func SafeInt(v any) int {
	f := math.Round(SafeNumber(v))
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// IsNumber returns true if v coerces to a finite number on its own merits
// rather than through the zero fallback.
func IsNumber(v any) bool {
	switch n := v.(type) {
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32, int, int64, int32:
		return true
	case json.Number:
		f, err := n.Float64()
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

// Object returns m[key] as a nested object, or nil.
func Object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if o, ok := m[key].(map[string]any); ok {
		return o
	}
	return nil
}

// String returns m[key] as a trimmed string, or "".
func String(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// UniqueIDs extracts identifiers from a list-shaped value, preserving order of
// first appearance. Strings are taken as-is; objects contribute their "id"
// (or "title" when no id). Anything that is not a list yields an empty slice.
func UniqueIDs(v any) []string {
	out := []string{}
	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []string:
		for _, s := range l {
			items = append(items, s)
		}
	default:
		return out
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		var id string
		switch e := item.(type) {
		case string:
			id = strings.TrimSpace(e)
		case map[string]any:
			id = String(e, "id")
			if id == "" {
				id = String(e, "title")
			}
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
