// Version store: per-variable history of committed versions, with a small
// LRU cache memoizing "latest committed version at or before T" lookups.
//
// Grounded on the teacher's internal/docdb/mvcc.go (snapshot-visibility
// calculation) generalized from a single current-version pointer to a full
// append-only history per variable, since the spec requires "latest version
// at or before an arbitrary T", not just "latest version overall".
package txnmgr

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type snapshotCacheKey struct {
	variable string
	ts       int
}

// VersionStore owns every variable's VariableHistory.
//
// Thread Safety: not safe for concurrent use; the Manager that owns a
// VersionStore is itself single-threaded per spec §5. The batch runner
// achieves concurrency by giving each named block its own Manager, never by
// sharing one across goroutines.
type VersionStore struct {
	histories map[string]*VariableHistory
	cache     *lru.Cache[snapshotCacheKey, *Version]
}

func newVersionStore(variableCount int) *VersionStore {
	// Cache capacity is a light multiple of the variable count: enough to
	// hold a handful of distinct read snapshots per variable without
	// unbounded growth across a long script.
	cache, err := lru.New[snapshotCacheKey, *Version](variableCount * 8)
	if err != nil {
		// Only returns an error for a non-positive size; variableCount is
		// always positive in this program.
		panic(err)
	}
	return &VersionStore{
		histories: make(map[string]*VariableHistory, variableCount),
		cache:     cache,
	}
}

func (vs *VersionStore) initVariable(name string, initial *Version) {
	h := newVariableHistory(name)
	h.append(initial)
	vs.histories[name] = h
}

func (vs *VersionStore) history(name string) *VariableHistory {
	return vs.histories[name]
}

// LatestBefore returns the Version of name with the greatest CommitTime <= ts.
func (vs *VersionStore) LatestBefore(name string, ts int) *Version {
	key := snapshotCacheKey{name, ts}
	if v, ok := vs.cache.Get(key); ok {
		return v
	}
	v := vs.histories[name].LatestBefore(ts)
	if v != nil {
		vs.cache.Add(key, v)
	}
	return v
}

// Append adds a new committed Version to name's history and invalidates the
// cache for that variable, since any cached lookup with ts >= the new
// version's commit time is now stale (P2: commit times are non-decreasing,
// so a coarse per-variable purge is correct and cheap).
func (vs *VersionStore) Append(name string, v *Version) {
	vs.histories[name].append(v)
	vs.purgeVariable(name)
}

func (vs *VersionStore) purgeVariable(name string) {
	for _, key := range vs.cache.Keys() {
		if key.variable == name {
			vs.cache.Remove(key)
		}
	}
}

// Latest returns the most recent Version of name.
func (vs *VersionStore) Latest(name string) *Version {
	return vs.histories[name].Latest()
}

// Writers returns the writer history for name, used by the conflict graph.
func (vs *VersionStore) Writers(name string) []struct {
	TID        string
	CommitTime int
} {
	return vs.histories[name].Writers()
}

// ForEachVariable calls fn for every variable in ascending index order.
func (vs *VersionStore) ForEachVariable(order []string, fn func(name string, h *VariableHistory)) {
	for _, name := range order {
		fn(name, vs.histories[name])
	}
}
