// Package probe inspects a raw batch before transformation and reports what
// is actually in it: which fields occur, what shapes they carry, and how many
// records are missing the required fields. The report is diagnostic only; the
// transformer makes its own decisions record by record.
package probe

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"usermigrate/internal/nullness"
	"usermigrate/pkg/records"
)

// FieldInfo summarizes one field across the batch.
type FieldInfo struct {
	Name      string   `json:"name"`       // name as it appears in the source
	Canonical string   `json:"canonical"`  // folded snake_case form
	Present   int      `json:"present"`    // records carrying the field
	Empty     int      `json:"empty"`      // of those, how many are empty
	Kinds     []string `json:"kinds"`      // observed value kinds, sorted
}

// Report is the outcome of probing one batch.
type Report struct {
	TotalRecords  int            `json:"total_records"`
	Fields        []FieldInfo    `json:"fields"`
	RequiredNulls map[string]int `json:"required_nulls"` // required field -> empty count
	Valid         bool           `json:"is_valid"`
}

// requiredFields must be present and non-empty for a batch to be considered
// loadable without synthesis.
var requiredFields = []string{"id", "email"}

// Inspect probes the batch. Records are maps, so "columns" are the union of
// keys seen anywhere in the batch.
func Inspect(batch []records.Record) *Report {
	type acc struct {
		present int
		empty   int
		kinds   map[string]struct{}
	}
	fields := map[string]*acc{}

	for _, r := range batch {
		for k, v := range r {
			a := fields[k]
			if a == nil {
				a = &acc{kinds: map[string]struct{}{}}
				fields[k] = a
			}
			a.present++
			if nullness.IsEmpty(v) {
				a.empty++
			}
			a.kinds[kindOf(v)] = struct{}{}
		}
	}

	rep := &Report{
		TotalRecords:  len(batch),
		RequiredNulls: map[string]int{},
		Valid:         true,
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := fields[name]
		kinds := make([]string, 0, len(a.kinds))
		for k := range a.kinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		rep.Fields = append(rep.Fields, FieldInfo{
			Name:      name,
			Canonical: FoldFieldName(name),
			Present:   a.present,
			Empty:     a.empty,
			Kinds:     kinds,
		})
	}

	for _, req := range requiredFields {
		a := fields[req]
		if a == nil {
			rep.RequiredNulls[req] = len(batch)
			rep.Valid = false
			continue
		}
		missing := len(batch) - a.present + a.empty
		rep.RequiredNulls[req] = missing
		if missing > 0 {
			rep.Valid = false
		}
	}

	return rep
}

// FoldFieldName lowers a field name to folded snake_case ASCII: accents are
// stripped, camelCase humps and separators become underscores.
func FoldFieldName(s string) string {
	s = strings.TrimSpace(s)

	// Break camelCase humps before lowercasing.
	var withBreaks strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			withBreaks.WriteRune('_')
		}
		withBreaks.WriteRune(r)
	}
	s = strings.ToLower(withBreaks.String())

	// Decompose, remove nonspacing marks (accents), recompose.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		default:
			// drop anything else
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "field"
	}
	return name
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, float32, int, int64:
		return "number"
	case []any, []string:
		return "list"
	case map[string]any:
		return "map"
	case records.Timestamp:
		return "timestamp"
	default:
		return "other"
	}
}
