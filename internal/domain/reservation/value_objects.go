package reservation

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSpan = errors.New("span start must be before end")

// Span is a half-open time interval [start, end).
type Span struct {
	start time.Time
	end   time.Time
}

func NewSpan(start, end time.Time) (Span, error) {
	if !start.Before(end) {
		return Span{}, ErrInvalidSpan
	}
	return Span{start: start.UTC(), end: end.UTC()}, nil
}

func (s Span) Start() time.Time { return s.start }
func (s Span) End() time.Time   { return s.end }

func (s Span) Duration() time.Duration {
	return s.end.Sub(s.start)
}

// Overlaps reports whether two half-open intervals intersect. Touching
// boundaries do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.start.Before(o.end) && s.end.After(o.start)
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return !s.start.After(o.start) && !s.end.Before(o.end)
}

func (s Span) String() string {
	return fmt.Sprintf("[%s, %s)", s.start.Format(time.RFC3339), s.end.Format(time.RFC3339))
}
