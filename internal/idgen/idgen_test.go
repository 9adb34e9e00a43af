package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLengthAndUniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := New()
		assert.Len(t, id, Length)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}

func TestNewUniqueAvoidsTaken(t *testing.T) {
	t.Parallel()

	taken := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewUnique(taken)
		_, dup := taken[id]
		assert.False(t, dup)
		assert.Len(t, id, Length)
		taken[id] = struct{}{}
	}
}
