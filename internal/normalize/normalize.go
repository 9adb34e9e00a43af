// Package normalize converts one raw field value into one strictly-typed
// target value. All functions are pure, tolerate any input type, and degrade
// to the zero/nil result instead of returning errors: a value that cannot be
// parsed is simply "no data" as far as the target schema is concerned.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"usermigrate/internal/nullness"
	"usermigrate/internal/schema"
	"usermigrate/pkg/records"
)

// datetimeLayouts is the parse ladder for string timestamps, tried in order.
// Covers ISO-8601 with and without zone suffix and fractional seconds, the
// space-separated export form, and bare dates.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// epochMillisThreshold separates epoch-second from epoch-millisecond inputs.
// No plausible user record predates 1970 or postdates year 2286 in seconds.
const epochMillisThreshold = 1e10

// Datetime parses v into a time, or returns nil when v is empty or
// unparseable. Accepted shapes: native times, the source store's
// {seconds,...} timestamp wrapper, the string layouts above, and positive
// epoch numbers (milliseconds above epochMillisThreshold, seconds below).
func Datetime(v any) *time.Time {
	v = nullness.NormalizeEmpty(v)
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case records.Timestamp:
		ts := t.Time()
		return &ts
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range datetimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		return nil
	case int:
		return epochTime(float64(t))
	case int64:
		return epochTime(float64(t))
	case float64:
		return epochTime(t)
	default:
		return nil
	}
}

func epochTime(v float64) *time.Time {
	if v <= 0 {
		return nil
	}
	var ts time.Time
	if v > epochMillisThreshold {
		ts = time.UnixMilli(int64(v))
	} else {
		ts = time.Unix(int64(v), 0)
	}
	return &ts
}

// Interests parses the interests field into an ordered list of strings.
// Lists are stringified per element with empties dropped; strings are split
// on commas into trimmed tokens, a single bare token becoming a one-element
// list. Anything else yields nil.
func Interests(v any) []string {
	v = nullness.NormalizeEmpty(v)
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case []string:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if !nullness.IsEmpty(item) {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if !nullness.IsEmpty(item) {
				out = append(out, stringify(item))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		var out []string
		for _, tok := range strings.Split(t, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
		return out
	default:
		return nil
	}
}

// statusSynonyms maps uppercase source spellings onto the target enum. The
// lookup is an exact match after trimming and uppercasing; accented variants
// are listed explicitly rather than folded.
var statusSynonyms = map[string]schema.Status{
	"ACTIVE":   schema.StatusActive,
	"ACTIF":    schema.StatusActive,
	"ENABLED":  schema.StatusActive,
	"INACTIVE": schema.StatusInactive,
	"INACTIF":  schema.StatusInactive,
	"DISABLED": schema.StatusInactive,
	"BANNED":   schema.StatusBanned,
	"BANNI":    schema.StatusBanned,
	"BLOCKED":  schema.StatusBanned,
}

// Status coerces v onto the status enum. Unmapped or empty input defaults to
// ACTIVE.
func Status(v any) schema.Status {
	v = nullness.NormalizeEmpty(v)
	if v == nil {
		return schema.StatusActive
	}
	key := strings.ToUpper(strings.TrimSpace(stringify(v)))
	if st, ok := statusSynonyms[key]; ok {
		return st
	}
	return schema.StatusActive
}

// CleanString reduces v to a trimmed scalar string, or "" when v is empty.
// For list input the first non-empty element wins.
func CleanString(v any) string {
	v = nullness.NormalizeEmpty(v)
	if v == nil {
		return ""
	}

	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if !nullness.IsEmpty(item) {
				v = item
				break
			}
		}
	case []string:
		for _, item := range t {
			if !nullness.IsEmpty(item) {
				v = item
				break
			}
		}
	}

	s := strings.TrimSpace(stringify(v))
	if nullness.IsEmpty(s) {
		return ""
	}
	return s
}

// stringify renders common scalar types without fmt overhead surprises;
// uncommon types fall back to fmt.Sprint.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
