// Package schedule implements the sweep-line occupancy timeline the
// admission and availability decisions are built on.
package schedule

import (
	"sort"
	"time"
)

// Occupancy is one reserved half-open interval [Start, End) consuming Size
// capacity units.
type Occupancy struct {
	Start time.Time
	End   time.Time
	Size  int
}

// Entry is a net capacity change at a single instant.
type Entry struct {
	At    time.Time
	Delta int
}

// Timeline is the piecewise-constant usage function of a set of occupancies
// over a query window, materialized as sorted net deltas. Summing Delta up to
// any instant t yields the exact concurrent usage at t within the window.
type Timeline struct {
	start   time.Time
	end     time.Time
	entries []Entry
}

// NewTimeline builds the timeline for the window [start, end).
//
// An occupancy overlaps the window under the usual half-open condition
// (o.Start < end && o.End > start); one that merely touches a boundary does
// not. The increment is clipped to the window start; no decrement is
// registered for occupancies running past the window end, so usage consumed
// to the right edge stays counted as ongoing.
func NewTimeline(start, end time.Time, occupancies []Occupancy) Timeline {
	deltas := make(map[time.Time]int)

	for _, o := range occupancies {
		oStart, oEnd := o.Start.UTC(), o.End.UTC()
		if !oStart.Before(end) || !oEnd.After(start) {
			continue
		}
		at := oStart
		if at.Before(start) {
			at = start.UTC()
		}
		deltas[at] += o.Size
		if oEnd.Before(end) {
			deltas[oEnd] -= o.Size
		}
	}

	entries := make([]Entry, 0, len(deltas))
	for at, delta := range deltas {
		entries = append(entries, Entry{At: at, Delta: delta})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].At.Before(entries[j].At) })

	return Timeline{start: start.UTC(), end: end.UTC(), entries: entries}
}

func (t Timeline) Start() time.Time  { return t.start }
func (t Timeline) End() time.Time    { return t.end }
func (t Timeline) Entries() []Entry  { return t.entries }
func (t Timeline) IsEmpty() bool     { return len(t.entries) == 0 }

// Max returns the peak concurrent usage over the window.
func (t Timeline) Max() int {
	current, max := 0, 0
	for _, e := range t.entries {
		current += e.Delta
		if current > max {
			max = current
		}
	}
	return max
}

// Window is a free sub-interval reported by FreeStreaks.
type Window struct {
	Start time.Time
	End   time.Time
}

// FreeStreaks walks the timeline and returns the maximal disjoint
// sub-windows during which usage plus required stays within capacity for at
// least minDuration. A free streak shorter than minDuration is dropped;
// streaks are never merged across a shortfall.
func (t Timeline) FreeStreaks(capacity, required int, minDuration time.Duration) []Window {
	var windows []Window

	usage := 0
	var potentialStart *time.Time
	if required <= capacity {
		s := t.start
		potentialStart = &s
	}

	for _, e := range t.entries {
		usage += e.Delta
		if usage+required <= capacity {
			if potentialStart == nil {
				at := e.At
				potentialStart = &at
			}
		} else if potentialStart != nil {
			if e.At.Sub(*potentialStart) >= minDuration {
				windows = append(windows, Window{Start: *potentialStart, End: e.At})
			}
			potentialStart = nil
		}
	}

	if potentialStart != nil && usage+required <= capacity && t.end.Sub(*potentialStart) >= minDuration {
		windows = append(windows, Window{Start: *potentialStart, End: t.end})
	}

	return windows
}
