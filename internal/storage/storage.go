// Package storage contains the target-store contract and the batch loader.
// Backends implement Target with their most efficient primitives (e.g.
// Postgres COPY for bulk appends); the loader stays backend-agnostic.
package storage

import (
	"context"
	"encoding/json"

	"usermigrate/internal/nullness"
	"usermigrate/internal/schema"
)

// Target abstracts the relational store the migration writes into.
type Target interface {
	// TableExists reports whether the named table exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// ExistingKeys returns the values of the given columns for every row
	// already present, one []string per row aligned to columns order.
	ExistingKeys(ctx context.Context, table string, columns ...string) ([][]string, error)

	// BulkInsert appends rows (aligned to columns order) in one call and
	// returns the number of rows reported inserted. Any failure aborts the
	// whole call.
	BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// InsertOne appends a single row inside its own transaction.
	InsertOne(ctx context.Context, table string, columns []string, row []any) error

	// Count returns the table's current row count.
	Count(ctx context.Context, table string) (int64, error)
}

// Column positions of temporal values within schema.Columns, re-verified
// before binding (defense against residual null-like sentinels).
var temporalColumns = map[string]struct{}{
	"birthdate":      {},
	"created_at":     {},
	"updated_at":     {},
	"last_connexion": {},
}

// PrepareRow converts a validated user into driver-bindable values in
// schema.Columns order. Temporal values run through the null unifier once
// more, and the interests list is serialized to JSON text with empty lists
// collapsing to NULL.
func PrepareRow(u *schema.User) ([]any, error) {
	row := u.Row()
	for i, col := range schema.Columns {
		if _, ok := temporalColumns[col]; ok {
			row[i] = nullness.NormalizeEmpty(row[i])
			continue
		}
		if col == "interests" {
			v, err := encodeInterests(u.Interests)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
	}
	return row, nil
}

func encodeInterests(interests []string) (any, error) {
	cleaned, _ := nullness.NormalizeEmpty(interests).([]string)
	if len(cleaned) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
