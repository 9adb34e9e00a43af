package transform

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermigrate/pkg/records"
)

func rec(id, email, createdAt string) records.Record {
	r := records.Record{"id": id}
	if email != "" {
		r["email"] = email
	}
	if createdAt != "" {
		r["createdAt"] = createdAt
	}
	return r
}

// Three records share an email; keep-last retains the newest and reports the
// other two as removed.
func TestDedupeKeepLast(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		rec("a", "dup@example.com", "2023-01-01T00:00:00Z"),
		rec("b", "unique@example.com", "2023-01-02T00:00:00Z"),
		rec("c", "dup@example.com", "2023-03-01T00:00:00Z"),
		rec("d", "dup@example.com", "2023-02-01T00:00:00Z"),
	}

	out, stats := Deduplicator{}.Apply(in)

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0]["id"])
	assert.Equal(t, "c", out[1]["id"]) // newest of the dup group

	assert.Equal(t, 4, stats.InitialCount)
	assert.Equal(t, 2, stats.FinalCount)
	assert.Equal(t, 2, stats.RemovedCount)
	assert.Equal(t, 3, stats.DuplicatesFound)
	assert.Equal(t, 1, stats.UniqueDuplicateValues)
	assert.Equal(t, "keep_last_by_createdAt", stats.Method)

	grp, ok := stats.Details["dup@example.com"]
	require.True(t, ok)
	assert.Equal(t, 3, grp.Count)
	assert.ElementsMatch(t, []string{"a", "c", "d"}, grp.IDs)
}

func TestDedupeKeepFirst(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		rec("a", "dup@example.com", "2023-03-01T00:00:00Z"),
		rec("b", "dup@example.com", "2023-01-01T00:00:00Z"),
	}

	out, stats := Deduplicator{Keep: KeepFirst}.Apply(in)

	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0]["id"]) // oldest wins
	assert.Equal(t, "keep_first_by_createdAt", stats.Method)
}

func TestDedupeKeepAll(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		rec("a", "dup@example.com", "2023-01-01T00:00:00Z"),
		rec("b", "dup@example.com", "2023-02-01T00:00:00Z"),
	}

	out, stats := Deduplicator{Keep: KeepAll}.Apply(in)

	// Duplicates are reported but nothing is removed.
	require.Len(t, out, 2)
	assert.Equal(t, 2, stats.DuplicatesFound)
	assert.Equal(t, 0, stats.RemovedCount)
}

// Records with an unparseable order value sort as oldest, so keep-last always
// prefers a record with a real timestamp.
func TestDedupeUnparseableDatesSortFirst(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		rec("bad", "dup@example.com", "not-a-date"),
		rec("good", "dup@example.com", "2020-01-01T00:00:00Z"),
	}

	out, _ := Deduplicator{Keep: KeepLast}.Apply(in)
	require.Len(t, out, 1)
	assert.Equal(t, "good", out[0]["id"])

	out, _ = Deduplicator{Keep: KeepFirst}.Apply(in)
	require.Len(t, out, 1)
	assert.Equal(t, "bad", out[0]["id"])
}

// Records whose key is empty cannot be grouped and are dropped outright.
func TestDedupeEmptyKeyDropped(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		rec("a", "", ""),
		rec("b", "ok@example.com", ""),
		{"id": "c", "email": "NaN"},
	}

	out, stats := Deduplicator{}.Apply(in)

	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0]["id"])
	assert.Equal(t, 2, stats.EmptyKeyDropped)
	assert.Equal(t, 2, stats.RemovedCount)
}

// When no record in the batch carries the order field at all, input order
// stands in for the time ordering.
func TestDedupeOrderFieldAbsentFallsBackToInputOrder(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		rec("a", "dup@example.com", ""),
		rec("b", "dup@example.com", ""),
	}

	out, _ := Deduplicator{Keep: KeepLast}.Apply(in)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0]["id"])

	out, _ = Deduplicator{Keep: KeepFirst}.Apply(in)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0]["id"])
}

// The key match is exact on the cleaned value, so a case-variant email forms
// its own group.
func TestDedupeKeyIsExact(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		rec("a", "User@Example.com", ""),
		rec("b", "user@example.com", ""),
	}

	out, stats := Deduplicator{}.Apply(in)
	assert.Len(t, out, 2)
	assert.Equal(t, 0, stats.DuplicatesFound)
}

// Same input, same output: repeated runs over a batch with colliding keys and
// tied timestamps always pick the same survivors.
func TestDedupeDeterministic(t *testing.T) {
	t.Parallel()

	var in []records.Record
	for i := 0; i < 50; i++ {
		in = append(in, rec(
			fmt.Sprintf("id-%d", i),
			fmt.Sprintf("user%d@example.com", i%10),
			"2023-01-01T00:00:00Z", // all tied
		))
	}

	first, firstStats := Deduplicator{}.Apply(in)
	for run := 0; run < 5; run++ {
		out, stats := Deduplicator{}.Apply(in)
		require.Equal(t, first, out)
		require.Equal(t, firstStats, stats)
	}

	// With full ties, keep-last retains the latest input occurrence per key.
	require.Len(t, first, 10)
	for i, r := range first {
		assert.Equal(t, fmt.Sprintf("id-%d", 40+i), r["id"])
	}
}

func TestDedupeCustomKeyField(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"id": "a", "phone": "111", "createdAt": "2023-01-01T00:00:00Z"},
		{"id": "b", "phone": "111", "createdAt": "2023-02-01T00:00:00Z"},
		{"id": "c", "phone": "222", "createdAt": "2023-01-01T00:00:00Z"},
	}

	out, stats := Deduplicator{KeyField: "phone", OrderField: "createdAt"}.Apply(in)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0]["id"])
	assert.Equal(t, "c", out[1]["id"])
	assert.Equal(t, "keep_last_by_createdAt", stats.Method)
}
