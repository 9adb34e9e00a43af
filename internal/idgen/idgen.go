// Package idgen produces surrogate identifiers for the target table.
package idgen

import "github.com/google/uuid"

// Length of generated identifiers. The target's id column holds short opaque
// strings; a truncated UUID keeps the format of identifiers already present.
const Length = 20

// New returns a random identifier of Length characters.
func New() string {
	return uuid.NewString()[:Length]
}

// NewUnique returns an identifier absent from taken. It retries until the
// candidate is fresh, which terminates quickly given the keyspace.
func NewUnique(taken map[string]struct{}) string {
	for {
		id := New()
		if _, exists := taken[id]; !exists {
			return id
		}
	}
}
