// Package idset provides the scratch set of person ids used by occupancy
// queries: the sweep's live occupancy tracking and the union/intersection
// accumulation across splits.
//
// Sets are request-scoped throwaways. Nothing here persists or locks; the
// server's single processing loop is the only writer.
package idset

import (
	"iter"
	"slices"

	"github.com/roach88/presenced/internal/store"
)

// Set is a scratch set of person ids.
type Set map[store.PersonID]struct{}

// New creates an empty set.
func New() Set {
	return make(Set)
}

// Insert adds id to the set. Inserting an existing member is a no-op.
func (s Set) Insert(id store.PersonID) {
	s[id] = struct{}{}
}

// Remove deletes id from the set. Removing a non-member is a no-op.
func (s Set) Remove(id store.PersonID) {
	delete(s, id)
}

// Contains reports whether id is a member.
func (s Set) Contains(id store.PersonID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set. Used to snapshot the live
// occupancy set into an emitted split.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// All yields the members in ascending id order. The sequence is finite and
// restartable; re-ranging re-yields the current membership.
//
// Ascending order is what makes query responses deterministic; the original
// store iterated its scratch keyspace in hash order.
func (s Set) All() iter.Seq[store.PersonID] {
	return func(yield func(store.PersonID) bool) {
		ids := make([]store.PersonID, 0, len(s))
		for id := range s {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}
