// Package resolve reconciles a candidate batch against identifiers and
// natural keys already present in the target table.
//
// Classification per candidate is total and mutually exclusive:
//
//   - id and email both exist     → skip (exact duplicate)
//   - email exists, id does not   → skip (email is the true uniqueness
//     constraint; inserting would violate it)
//   - id exists, email does not   → rewrite the id and keep the record
//   - neither exists              → insert unchanged
//
// Rewritten identifiers are guaranteed distinct from every pre-existing id
// and from every id generated earlier in the same run.
package resolve

import (
	"usermigrate/internal/idgen"
	"usermigrate/internal/schema"
)

// Action classifies what happened to one candidate.
type Action string

const (
	ActionSkipDuplicate = Action("skip_duplicate")
	ActionSkipEmail     = Action("skip_email_exists")
	ActionRewriteID     = Action("rewrite_id")
	ActionInsert        = Action("insert")
)

// Rewrite is one identifier reassignment audit entry.
type Rewrite struct {
	OldID string `json:"old_id"`
	NewID string `json:"new_id"`
	Email string `json:"email"`
}

// Decision pairs a candidate with its classification, for reporting.
type Decision struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Action Action `json:"action"`
}

// Result is the outcome of resolving one batch.
type Result struct {
	// Accepted holds the adjusted batch: skipped records removed,
	// rewritten records carrying their new identifier.
	Accepted []*schema.User

	SkippedDuplicates int
	SkippedEmails     int
	Rewrites          []Rewrite
	Decisions         []Decision
}

// Resolve classifies every candidate against the target's existing ids and
// emails. The two sets are snapshots taken once per run; ids generated here
// are added to the working set so successive rewrites never collide.
func Resolve(candidates []*schema.User, existingIDs, existingEmails []string) *Result {
	ids := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		ids[id] = struct{}{}
	}
	emails := make(map[string]struct{}, len(existingEmails))
	for _, e := range existingEmails {
		emails[e] = struct{}{}
	}

	res := &Result{Accepted: make([]*schema.User, 0, len(candidates))}

	for _, u := range candidates {
		_, idExists := ids[u.ID]
		_, emailExists := emails[u.Email]

		switch {
		case idExists && emailExists:
			res.SkippedDuplicates++
			res.Decisions = append(res.Decisions, Decision{ID: u.ID, Email: u.Email, Action: ActionSkipDuplicate})

		case emailExists:
			res.SkippedEmails++
			res.Decisions = append(res.Decisions, Decision{ID: u.ID, Email: u.Email, Action: ActionSkipEmail})

		case idExists:
			newID := idgen.NewUnique(ids)
			ids[newID] = struct{}{}
			res.Rewrites = append(res.Rewrites, Rewrite{OldID: u.ID, NewID: newID, Email: u.Email})
			res.Decisions = append(res.Decisions, Decision{ID: u.ID, Email: u.Email, Action: ActionRewriteID})
			u.ID = newID
			res.Accepted = append(res.Accepted, u)

		default:
			res.Decisions = append(res.Decisions, Decision{ID: u.ID, Email: u.Email, Action: ActionInsert})
			res.Accepted = append(res.Accepted, u)
		}
	}

	return res
}
