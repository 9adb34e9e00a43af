// Package records defines the loosely-typed record shape shared by the
// extraction, transformation, and loading stages.
//
// A Record is a plain map from field name to an arbitrary value. Source
// payloads are document-store exports, so any field may be a string, a
// number, a bool, a list, a nested map, a timestamp wrapper, or absent
// entirely. Accessors perform minimal coercion and return the zero value
// (plus ok=false where applicable) rather than panicking.
package records

import "time"

// Record is one raw source record.
type Record map[string]any

// Timestamp mirrors the source store's timestamp wrapper, which exposes the
// instant as epoch seconds (plus sub-second nanos). JSON exports of such
// values decode into {"seconds": ..., "nanoseconds": ...}.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// Time converts the wrapper to a time.Time in the local zone.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, ts.Nanoseconds)
}

// Get returns the value for key and whether the key is present.
func (r Record) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// First returns the value of the first present key among the given aliases.
// Present-but-nil counts as found; callers that want "first non-empty" should
// run the result through their own emptiness check.
func (r Record) First(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// String returns the string value for key, or "" when the key is missing or
// holds a non-string.
func (r Record) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Bool returns the bool value for key, or false when missing or non-bool.
func (r Record) Bool(key string) bool {
	if b, ok := r[key].(bool); ok {
		return b
	}
	return false
}

// Keys returns the record's field names in unspecified order.
func (r Record) Keys() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}

// Clone returns a shallow copy. Nested values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
