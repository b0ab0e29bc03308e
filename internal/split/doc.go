// Package split turns the overlapping presence intervals of a time range
// into a disjoint, ordered partition of that range, each part labeled with
// its constant occupant set.
//
// The algorithm is a sweep line: every matched interval contributes a join
// event at its (clamped) start and a leave event at its (clamped) end; the
// events are sorted and walked left to right while a live occupant set is
// maintained, and every non-empty window between consecutive event times is
// emitted as a Split carrying a snapshot of the set.
//
// A gap-filling pass then extends coverage toward the query bounds: head and
// tail gaps, and interior windows with no occupants, are re-swept over their
// own sub-range. A sub-range with no recorded intervals at all yields
// nothing - missing coverage means "no data", never an explicit empty split.
//
// Everything here is request-scoped: matches, events, splits and their
// occupant sets are built for one query and discarded with it.
package split
