package split

import (
	"context"

	"github.com/roach88/presenced/internal/idset"
	"github.com/roach88/presenced/internal/store"
)

// Match is a transient copy of a stored interval returned by the overlap
// query, clamped to the query range.
type Match struct {
	Person store.PersonID
	Min    int64
	Max    int64
}

// Split is one part of the partition: the half-open window [Min, Max) during
// which the occupant set was constant.
type Split struct {
	Min   int64
	Max   int64
	Who   idset.Set
	Count int
}

// Engine answers occupancy queries against one store. It holds no state of
// its own; every query builds and discards its own scratch structures.
type Engine struct {
	store *store.Store
}

// New creates an engine over the given store.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Range partitions [min, max) into splits: sweep the overlapping intervals,
// then fill coverage gaps toward the query bounds.
//
// The returned splits are pairwise disjoint, non-empty, sorted by start
// time. Their union is the query range except for sub-ranges with no
// recorded data at all, which are omitted.
func (e *Engine) Range(ctx context.Context, min, max int64) ([]Split, error) {
	splits, err := e.sweep(ctx, min, max)
	if err != nil {
		return nil, err
	}
	return e.fill(ctx, splits, min, max)
}

// PointMatches returns the raw overlap matches for a single instant, in
// store order (interval end ascending, then insertion order). Point queries
// list one name per match, so no clamping or sweeping is needed.
func (e *Engine) PointMatches(ctx context.Context, ts int64) ([]Match, error) {
	intervals, err := e.store.Overlapping(ctx, ts, ts)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(intervals))
	for _, iv := range intervals {
		matches = append(matches, Match{Person: iv.Person, Min: iv.Min, Max: iv.Max})
	}
	return matches, nil
}

// sweep runs the core algorithm over one range: overlap query, clamp,
// boundary events, sort, sweep. Returns an empty slice when nothing
// overlaps.
func (e *Engine) sweep(ctx context.Context, min, max int64) ([]Split, error) {
	intervals, err := e.store.Overlapping(ctx, min, max)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(intervals))
	for _, iv := range intervals {
		m := Match{Person: iv.Person, Min: iv.Min, Max: iv.Max}
		if m.Min < min {
			m.Min = min
		}
		if m.Max > max {
			m.Max = max
		}
		matches = append(matches, m)
	}

	return sweepEvents(boundaryEvents(matches)), nil
}

// sweepEvents walks the sorted events maintaining the live occupant set.
// Each event is applied first; then, if the next event is at a later
// timestamp, the window up to it is emitted with a snapshot of the set.
// Zero-width windows are skipped. The final event only empties the set and
// never opens a window.
func sweepEvents(events []boundary) []Split {
	splits := []Split{}
	live := idset.New()

	for i := 0; i+1 < len(events); i++ {
		ev := events[i]
		if ev.kind == eventLeave {
			live.Remove(ev.person)
		} else {
			live.Insert(ev.person)
		}

		if next := events[i+1].ts; ev.ts != next {
			splits = append(splits, Split{
				Min:   ev.ts,
				Max:   next,
				Who:   live.Clone(),
				Count: live.Len(),
			})
		}
	}

	return splits
}

// fill extends sweep output to the full query range. A head gap before the
// first split, an interior split with no occupants, and a tail gap after the
// last split are each re-swept over their own sub-range and spliced in. The
// re-sweep hits the same store, so a true gap stays empty.
func (e *Engine) fill(ctx context.Context, splits []Split, min, max int64) ([]Split, error) {
	if len(splits) == 0 {
		return e.sweep(ctx, min, max)
	}

	out := make([]Split, 0, len(splits))

	if first := splits[0]; first.Min > min {
		head, err := e.sweep(ctx, min, first.Min)
		if err != nil {
			return nil, err
		}
		out = append(out, head...)
	}

	lastMax := min
	for _, sp := range splits {
		if sp.Count == 0 {
			sub, err := e.sweep(ctx, sp.Min, sp.Max)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		} else {
			out = append(out, sp)
		}
		lastMax = sp.Max
	}

	if max > lastMax {
		tail, err := e.sweep(ctx, lastMax, max)
		if err != nil {
			return nil, err
		}
		out = append(out, tail...)
	}

	return out, nil
}

// Union accumulates every occupant that appears in any split.
func Union(splits []Split) idset.Set {
	u := idset.New()
	for _, sp := range splits {
		for id := range sp.Who {
			u.Insert(id)
		}
	}
	return u
}

// Intersection narrows the union to the occupants present in every split:
// the "always present" query variant.
func Intersection(splits []Split) idset.Set {
	out := Union(splits)
	for _, sp := range splits {
		for id := range out {
			if !sp.Who.Contains(id) {
				out.Remove(id)
			}
		}
	}
	return out
}
