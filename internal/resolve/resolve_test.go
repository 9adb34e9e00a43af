package resolve

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermigrate/internal/idgen"
	"usermigrate/internal/schema"
)

func user(id, email string) *schema.User {
	return &schema.User{ID: id, Email: email}
}

func TestResolveFourWayClassification(t *testing.T) {
	t.Parallel()

	candidates := []*schema.User{
		user("id-1", "both@example.com"),    // id and email exist: skip
		user("id-x", "taken@example.com"),   // email exists: skip
		user("id-2", "fresh@example.com"),   // id exists: rewrite
		user("id-new", "new@example.com"),   // neither: insert
	}
	existingIDs := []string{"id-1", "id-2"}
	existingEmails := []string{"both@example.com", "taken@example.com"}

	res := Resolve(candidates, existingIDs, existingEmails)

	assert.Equal(t, 1, res.SkippedDuplicates)
	assert.Equal(t, 1, res.SkippedEmails)
	require.Len(t, res.Rewrites, 1)
	require.Len(t, res.Accepted, 2)

	// The rewritten record keeps its email but carries a fresh id.
	rw := res.Rewrites[0]
	assert.Equal(t, "id-2", rw.OldID)
	assert.Equal(t, "fresh@example.com", rw.Email)
	assert.Len(t, rw.NewID, idgen.Length)
	assert.NotEqual(t, "id-2", rw.NewID)
	assert.Equal(t, rw.NewID, res.Accepted[0].ID)

	// The untouched record passes through unchanged.
	assert.Equal(t, "id-new", res.Accepted[1].ID)

	// Every candidate got exactly one decision.
	require.Len(t, res.Decisions, 4)
	assert.Equal(t, ActionSkipDuplicate, res.Decisions[0].Action)
	assert.Equal(t, ActionSkipEmail, res.Decisions[1].Action)
	assert.Equal(t, ActionRewriteID, res.Decisions[2].Action)
	assert.Equal(t, ActionInsert, res.Decisions[3].Action)
}

// Rewritten ids must be pairwise distinct and disjoint from every
// pre-existing id, even across many rewrites in one run.
func TestResolveRewrittenIDsAreUnique(t *testing.T) {
	t.Parallel()

	var candidates []*schema.User
	var existingIDs []string
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("id-%d", i)
		existingIDs = append(existingIDs, id)
		candidates = append(candidates, user(id, fmt.Sprintf("u%d@example.com", i)))
	}

	res := Resolve(candidates, existingIDs, nil)

	require.Len(t, res.Accepted, 100)
	require.Len(t, res.Rewrites, 100)

	seen := make(map[string]struct{}, 200)
	for _, id := range existingIDs {
		seen[id] = struct{}{}
	}
	for _, u := range res.Accepted {
		_, dup := seen[u.ID]
		assert.False(t, dup, "id %q collides", u.ID)
		seen[u.ID] = struct{}{}
	}
}

func TestResolveEmptyTarget(t *testing.T) {
	t.Parallel()

	candidates := []*schema.User{
		user("a", "a@example.com"),
		user("b", "b@example.com"),
	}

	res := Resolve(candidates, nil, nil)

	assert.Len(t, res.Accepted, 2)
	assert.Equal(t, 0, res.SkippedDuplicates)
	assert.Equal(t, 0, res.SkippedEmails)
	assert.Empty(t, res.Rewrites)
}

func TestResolveNoCandidates(t *testing.T) {
	t.Parallel()

	res := Resolve(nil, []string{"x"}, []string{"y"})
	assert.Empty(t, res.Accepted)
	assert.Empty(t, res.Decisions)
}
