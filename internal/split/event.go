package split

import (
	"cmp"
	"slices"

	"github.com/roach88/presenced/internal/store"
)

// eventKind orders join before leave at equal timestamps. The tie-break is
// never externally observable (zero-width windows are elided by the sweep)
// but keeps the event order, and therefore the sweep, deterministic.
type eventKind int

const (
	eventJoin eventKind = iota
	eventLeave
)

// boundary is one end of a matched interval: the person joins the occupant
// set at the interval's start and leaves it at the end.
type boundary struct {
	ts     int64
	kind   eventKind
	person store.PersonID
}

// boundaryEvents derives the sorted event list from the matches: two events
// per match, 2k total, ordered by timestamp with joins first on ties.
func boundaryEvents(matches []Match) []boundary {
	events := make([]boundary, 0, 2*len(matches))
	for _, m := range matches {
		events = append(events,
			boundary{ts: m.Min, kind: eventJoin, person: m.Person},
			boundary{ts: m.Max, kind: eventLeave, person: m.Person},
		)
	}
	slices.SortFunc(events, func(a, b boundary) int {
		if c := cmp.Compare(a.ts, b.ts); c != 0 {
			return c
		}
		return cmp.Compare(a.kind, b.kind)
	})
	return events
}
