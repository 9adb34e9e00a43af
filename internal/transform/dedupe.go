package transform

import (
	"fmt"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"usermigrate/internal/normalize"
	"usermigrate/pkg/records"
)

// Keep policies for the deduplicator.
const (
	KeepFirst = "first"
	KeepLast  = "last"
	KeepAll   = "all"
)

// Deduplicator collapses records sharing a natural key down to one survivor
// per key. Records whose key is empty are invalid for deduplication purposes
// and are dropped before grouping.
//
// Winner selection: members of a duplicate group are ordered by the parsed
// OrderField timestamp ascending, with unparseable dates treated as oldest;
// ties keep the original input order (stable sort). KeepFirst takes the head
// of that ordering, KeepLast the tail. KeepAll reports duplicates without
// removing anything. When no input record carries OrderField at all, the
// original input order stands in for the time ordering.
type Deduplicator struct {
	KeyField   string // natural key, default "email"
	OrderField string // ordering field, default "createdAt"
	Keep       string // KeepFirst, KeepLast, or KeepAll; default KeepLast
}

type dedupMember struct {
	index int // original position in input
	id    string
	ts    *time.Time
	hasTS bool
}

type dedupGroup struct {
	key     string
	members []dedupMember
}

// Apply deduplicates in and reports what happened. The input slice is not
// modified; survivors are returned in their original relative order.
func (d Deduplicator) Apply(in []records.Record) ([]records.Record, DedupStats) {
	keyField := d.KeyField
	if keyField == "" {
		keyField = "email"
	}
	orderField := d.OrderField
	if orderField == "" {
		orderField = "createdAt"
	}
	keep := d.Keep
	if keep == "" {
		keep = KeepLast
	}

	stats := DedupStats{
		InitialCount: len(in),
		Method:       fmt.Sprintf("keep_%s_by_%s", keep, orderField),
	}

	// Does any record carry the order field? Mirrors the original's
	// column-existence check: a field absent from the whole batch falls
	// back to input order.
	orderFieldPresent := false
	for _, r := range in {
		if _, ok := r.Get(orderField); ok {
			orderFieldPresent = true
			break
		}
	}

	// Group by the normalized key. Groups are indexed by a 64-bit hash of
	// the key with a short collision chain per bucket.
	buckets := make(map[uint64][]*dedupGroup, len(in))
	order := make([]*dedupGroup, 0, len(in))
	keyOf := make([]string, len(in))

	for i, r := range in {
		key := normalize.CleanString(valueOf(r, keyField))
		keyOf[i] = key
		if key == "" {
			stats.EmptyKeyDropped++
			continue
		}
		h := xxh3.HashString(key)
		var grp *dedupGroup
		for _, g := range buckets[h] {
			if g.key == key {
				grp = g
				break
			}
		}
		if grp == nil {
			grp = &dedupGroup{key: key}
			buckets[h] = append(buckets[h], grp)
			order = append(order, grp)
		}
		m := dedupMember{index: i, id: normalize.CleanString(valueOf(r, "id"))}
		if orderFieldPresent {
			m.ts = normalize.Datetime(valueOf(r, orderField))
			m.hasTS = m.ts != nil
		}
		grp.members = append(grp.members, m)
	}

	// Report duplicate groups.
	for _, g := range order {
		if len(g.members) < 2 {
			continue
		}
		stats.DuplicatesFound += len(g.members)
		stats.UniqueDuplicateValues++
		if stats.Details == nil {
			stats.Details = make(map[string]DuplicateGroup)
		}
		ids := make([]string, 0, len(g.members))
		for _, m := range g.members {
			ids = append(ids, m.id)
		}
		stats.Details[g.key] = DuplicateGroup{Count: len(g.members), IDs: ids}
	}

	// Select survivors.
	surviving := make(map[int]bool, len(in))
	for _, g := range order {
		if len(g.members) == 1 || keep == KeepAll {
			for _, m := range g.members {
				surviving[m.index] = true
			}
			continue
		}
		members := make([]dedupMember, len(g.members))
		copy(members, g.members)
		if orderFieldPresent {
			sort.SliceStable(members, func(a, b int) bool {
				ma, mb := members[a], members[b]
				switch {
				case !ma.hasTS && !mb.hasTS:
					return false // tie, stable order decides
				case !ma.hasTS:
					return true // unparseable sorts first (oldest)
				case !mb.hasTS:
					return false
				default:
					return ma.ts.Before(*mb.ts)
				}
			})
		}
		switch keep {
		case KeepFirst:
			surviving[members[0].index] = true
		default: // KeepLast
			surviving[members[len(members)-1].index] = true
		}
	}

	out := make([]records.Record, 0, len(in))
	for i, r := range in {
		if keyOf[i] != "" && surviving[i] {
			out = append(out, r)
		}
	}

	stats.FinalCount = len(out)
	stats.RemovedCount = stats.InitialCount - stats.FinalCount
	return out, stats
}
