// Package nullness is the single place where "no data" is decided.
//
// Source exports mix several incompatible empty representations: absent keys,
// native nulls, IEEE NaN from numeric columns, zero timestamps, and sentinel
// strings such as "NaN" or "NaT" left behind by earlier tooling. Every other
// stage calls into this package instead of re-deriving its own emptiness
// check, so the definition cannot drift between the transformer, the
// deduplicator, and the loader.
package nullness

import (
	"math"
	"strings"
	"time"

	"usermigrate/pkg/records"
)

// sentinels are the case-insensitive string forms that mean "no data".
var sentinels = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
	"nat":  {},
}

// IsEmpty reports whether v represents "no data" in any of the source
// representations. It never panics; a value it cannot classify is reported
// as not empty.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		_, ok := sentinels[strings.ToLower(strings.TrimSpace(t))]
		return ok
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	case time.Time:
		return t.IsZero()
	case *time.Time:
		return t == nil || t.IsZero()
	case records.Timestamp:
		return t.Seconds == 0 && t.Nanoseconds == 0
	case []any:
		for _, item := range t {
			if !IsEmpty(item) {
				return false
			}
		}
		return true
	case []string:
		for _, item := range t {
			if !IsEmpty(item) {
				return false
			}
		}
		return true
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// NormalizeEmpty collapses every empty representation to nil. Lists keep
// their non-empty elements; a list whose elements are all empty becomes nil.
func NormalizeEmpty(v any) any {
	if IsEmpty(v) {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if !IsEmpty(item) {
				out = append(out, NormalizeEmpty(item))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []string:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if !IsEmpty(item) {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}
