package nullness

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"usermigrate/pkg/records"
)

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"whitespace string", "   ", true},
		{"nan sentinel", "NaN", true},
		{"none sentinel", "None", true},
		{"null sentinel", "null", true},
		{"nat sentinel", "NaT", true},
		{"mixed case sentinel", "nOnE", true},
		{"regular string", "hello", false},
		{"zero-ish string", "0", false},
		{"false string", "false", false},
		{"nan float", math.NaN(), true},
		{"nan float32", float32(math.NaN()), true},
		{"zero float", 0.0, false},
		{"regular float", 3.14, false},
		{"zero time", time.Time{}, true},
		{"nonzero time", now, false},
		{"nil time pointer", (*time.Time)(nil), true},
		{"nonzero time pointer", &now, false},
		{"zero timestamp", records.Timestamp{}, true},
		{"nonzero timestamp", records.Timestamp{Seconds: 1700000000}, false},
		{"empty list", []any{}, true},
		{"all-empty list", []any{nil, "", "NaN"}, true},
		{"mixed list", []any{"", "a"}, false},
		{"empty string list", []string{"", "none"}, true},
		{"nonempty string list", []string{"reading"}, false},
		{"empty map", map[string]any{}, true},
		{"nonempty map", map[string]any{"a": 1}, false},
		{"bool false", false, false},
		{"int zero", 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsEmpty(tt.in))
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil stays nil", nil, nil},
		{"sentinel collapses", "NaN", nil},
		{"empty list collapses", []any{}, nil},
		{"all-empty list collapses", []any{"", nil, "none"}, nil},
		{"mixed list keeps non-empties", []any{"", "a", nil, "b"}, []any{"a", "b"}},
		{"string list keeps non-empties", []string{"nan", "x"}, []string{"x"}},
		{"value passes through", "hello", "hello"},
		{"number passes through", 42.0, 42.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeEmpty(tt.in))
		})
	}
}

// Normalization is idempotent: applying it twice yields the first result.
func TestNormalizeEmptyIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []any{
		nil, "NaN", "hello", []any{"", "a"}, []string{"x", "none"},
		math.NaN(), 3.14, time.Time{}, records.Timestamp{Seconds: 5},
	}
	for _, in := range inputs {
		once := NormalizeEmpty(in)
		twice := NormalizeEmpty(once)
		assert.Equal(t, once, twice, "input %#v", in)
	}
}
