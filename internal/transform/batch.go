package transform

import (
	"time"

	"usermigrate/internal/nullness"
	"usermigrate/internal/schema"
	"usermigrate/pkg/records"
)

// BatchOptions configures a full-batch transformation run.
type BatchOptions struct {
	RemoveDuplicates bool
	KeyField         string // dedup natural key, default "email"
	OrderField       string // dedup ordering field, default "createdAt"
	Keep             string // KeepFirst, KeepLast, or KeepAll
	Now              NowFunc
}

// Batch runs the full transformation pipeline over raw: unify empty values on
// every field, optionally deduplicate, then transform each surviving record.
// A single record's failure never aborts the batch; every record is
// processed and accounted for in the returned report.
func Batch(raw []records.Record, opts BatchOptions) ([]*schema.User, *Report) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	// Work on cleaned copies; the extraction output stays untouched.
	cleaned := make([]records.Record, 0, len(raw))
	for _, r := range raw {
		c := make(records.Record, len(r))
		for k, v := range r {
			c[k] = nullness.NormalizeEmpty(v)
		}
		cleaned = append(cleaned, c)
	}

	report := &Report{}

	if opts.RemoveDuplicates {
		d := Deduplicator{
			KeyField:   opts.KeyField,
			OrderField: opts.OrderField,
			Keep:       opts.Keep,
		}
		cleaned, report.Dedup = d.Apply(cleaned)
	} else {
		report.Dedup = DedupStats{
			InitialCount: len(cleaned),
			FinalCount:   len(cleaned),
			Method:       "disabled",
		}
	}

	users := make([]*schema.User, 0, len(cleaned))
	for _, r := range cleaned {
		user, recErr := Record(r, now)
		if recErr != nil {
			report.Failed++
			report.Errors = append(report.Errors, *recErr)
			continue
		}
		report.Successful++
		users = append(users, user)
	}

	return users, report
}
