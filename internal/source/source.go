// Package source defines the contract for the document store the migration
// extracts from. Implementations return raw, arbitrarily shaped records;
// nothing at this boundary is validated.
package source

import (
	"context"

	"usermigrate/pkg/records"
)

// Source fetches raw user records by path.
type Source interface {
	// FetchAll returns every record under path, keyed by source identifier.
	FetchAll(ctx context.Context, path string) (map[string]records.Record, error)

	// FetchOne returns a single record, or nil when absent.
	FetchOne(ctx context.Context, path, id string) (records.Record, error)
}

// EmailLookup is an optional extension for sources that can resolve an
// account email from the identity provider when the record itself carries
// none. A lookup miss is ("", nil), not an error.
type EmailLookup interface {
	LookupAuthEmail(ctx context.Context, id string) (string, error)
}
