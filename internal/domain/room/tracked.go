package room

import (
	"maps"
	"slices"
)

// TrackedSet holds ids of rooms currently in an open offline episode.
// The zero value is an empty, usable set for reads; use NewTrackedSet before adding.
type TrackedSet map[string]struct{}

// NewTrackedSet builds a set from the given ids.
func NewTrackedSet(ids ...string) TrackedSet {
	set := make(TrackedSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

// Contains reports whether id is tracked.
func (t TrackedSet) Contains(id string) bool {
	_, ok := t[id]

	return ok
}

// Add tracks id.
func (t TrackedSet) Add(id string) {
	t[id] = struct{}{}
}

// Remove stops tracking id.
func (t TrackedSet) Remove(id string) {
	delete(t, id)
}

// Len returns the number of tracked ids.
func (t TrackedSet) Len() int {
	return len(t)
}

// IDs returns the tracked ids in sorted order.
func (t TrackedSet) IDs() []string {
	return slices.Sorted(maps.Keys(t))
}

// Clone returns an independent copy of the set; a nil set clones to an empty one.
func (t TrackedSet) Clone() TrackedSet {
	cloned := make(TrackedSet, len(t))
	maps.Copy(cloned, t)

	return cloned
}
