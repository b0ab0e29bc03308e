package store

import (
	"errors"
	"testing"

	"github.com/roach88/presenced/internal/when"
)

func TestPresentAt_HalfOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	id, err := s.InsertPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("InsertPerson() failed: %v", err)
	}
	if err := s.InsertInterval(ctx, id, 100, 200); err != nil {
		t.Fatalf("InsertInterval() failed: %v", err)
	}

	cases := []struct {
		ts   int64
		want bool
	}{
		{99, false},
		{100, true}, // start inclusive
		{150, true},
		{199, true},
		{200, false}, // end exclusive
	}
	for _, tc := range cases {
		got, err := s.PresentAt(ctx, id, tc.ts)
		if err != nil {
			t.Fatalf("PresentAt(%d) failed: %v", tc.ts, err)
		}
		if got != tc.want {
			t.Errorf("PresentAt(%d) = %v, want %v", tc.ts, got, tc.want)
		}
	}
}

func TestPresentAt_OpenEnded(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	id, err := s.InsertPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("InsertPerson() failed: %v", err)
	}
	if err := s.InsertInterval(ctx, id, 100, when.TimeMax); err != nil {
		t.Fatalf("InsertInterval() failed: %v", err)
	}

	present, err := s.PresentAt(ctx, id, 1<<40)
	if err != nil {
		t.Fatalf("PresentAt() failed: %v", err)
	}
	if !present {
		t.Error("open-ended interval not present far in the future")
	}
}

func TestCloseEarliestOpen_InsertionOrderAmongDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	id, err := s.InsertPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("InsertPerson() failed: %v", err)
	}

	// Two open intervals; the store tolerates this, ordered by insertion.
	if err := s.InsertInterval(ctx, id, 100, when.TimeMax); err != nil {
		t.Fatalf("InsertInterval() failed: %v", err)
	}
	if err := s.InsertInterval(ctx, id, 300, when.TimeMax); err != nil {
		t.Fatalf("InsertInterval() failed: %v", err)
	}

	if err := s.CloseEarliestOpen(ctx, id, 500); err != nil {
		t.Fatalf("CloseEarliestOpen() failed: %v", err)
	}

	// The earliest-inserted interval (start 100) must be the closed one.
	intervals, err := s.Overlapping(ctx, 0, 1<<40)
	if err != nil {
		t.Fatalf("Overlapping() failed: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("Overlapping() returned %d intervals, want 2", len(intervals))
	}
	// end ASC puts the closed interval first.
	if intervals[0].Min != 100 || intervals[0].Max != 500 {
		t.Errorf("closed interval = [%d, %d), want [100, 500)", intervals[0].Min, intervals[0].Max)
	}
	if intervals[1].Min != 300 || intervals[1].Max != when.TimeMax {
		t.Errorf("remaining interval = [%d, %d), want [300, open)", intervals[1].Min, intervals[1].Max)
	}
}

func TestCloseEarliestOpen_NoOpenInterval(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	id, err := s.InsertPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("InsertPerson() failed: %v", err)
	}
	if err := s.InsertInterval(ctx, id, 100, 200); err != nil {
		t.Fatalf("InsertInterval() failed: %v", err)
	}

	err = s.CloseEarliestOpen(ctx, id, 500)
	if !errors.Is(err, ErrNoOpenInterval) {
		t.Errorf("CloseEarliestOpen() error = %v, want ErrNoOpenInterval", err)
	}

	// The failed close must not have touched the store.
	intervals, err := s.Overlapping(ctx, 0, 1<<40)
	if err != nil {
		t.Fatalf("Overlapping() failed: %v", err)
	}
	if len(intervals) != 1 || intervals[0].Max != 200 {
		t.Errorf("store changed by failed close: %+v", intervals)
	}
}

func TestOverlapping_MatchCondition(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	id, err := s.InsertPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("InsertPerson() failed: %v", err)
	}
	if err := s.InsertInterval(ctx, id, 100, 200); err != nil {
		t.Fatalf("InsertInterval() failed: %v", err)
	}

	cases := []struct {
		name     string
		min, max int64
		hit      bool
	}{
		{"fully inside", 120, 180, true},
		{"covering", 0, 1000, true},
		{"ends exactly at query min", 200, 300, false}, // end > min is strict
		{"starts exactly at query max", 0, 100, true},  // start <= max is inclusive
		{"point at start", 100, 100, true},
		{"point just before end", 199, 199, true},
		{"point at end", 200, 200, false},
		{"disjoint before", 0, 50, false},
		{"disjoint after", 300, 400, false},
	}
	for _, tc := range cases {
		intervals, err := s.Overlapping(ctx, tc.min, tc.max)
		if err != nil {
			t.Fatalf("%s: Overlapping() failed: %v", tc.name, err)
		}
		if got := len(intervals) == 1; got != tc.hit {
			t.Errorf("%s: Overlapping(%d, %d) hit = %v, want %v", tc.name, tc.min, tc.max, got, tc.hit)
		}
	}
}

func TestOverlapping_OrderedByEnd(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	id, err := s.InsertPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("InsertPerson() failed: %v", err)
	}
	// Inserted out of end order on purpose.
	for _, iv := range [][2]int64{{0, 500}, {0, 100}, {0, 300}} {
		if err := s.InsertInterval(ctx, id, iv[0], iv[1]); err != nil {
			t.Fatalf("InsertInterval() failed: %v", err)
		}
	}

	intervals, err := s.Overlapping(ctx, 0, 1000)
	if err != nil {
		t.Fatalf("Overlapping() failed: %v", err)
	}
	var ends []int64
	for _, iv := range intervals {
		ends = append(ends, iv.Max)
	}
	want := []int64{100, 300, 500}
	if len(ends) != len(want) {
		t.Fatalf("Overlapping() returned %d intervals, want %d", len(ends), len(want))
	}
	for i := range want {
		if ends[i] != want[i] {
			t.Fatalf("Overlapping() ends = %v, want %v", ends, want)
		}
	}
}

func TestOverlapping_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)

	intervals, err := s.Overlapping(t.Context(), 0, 100)
	if err != nil {
		t.Fatalf("Overlapping() failed: %v", err)
	}
	if intervals == nil {
		t.Error("Overlapping() returned nil, want empty slice")
	}
}
