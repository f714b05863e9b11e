package validator

import (
	"context"
	"fmt"
	"time"
)

// maxWeekdayDecomposition bounds the per-day split of a reservation span;
// eight days already touch every weekday, wrap included.
const maxWeekdayDecomposition = 8

const secondsPerDay = 24 * 60 * 60

// DayRange is an allowed stretch of a day in seconds from midnight,
// inclusive bounds.
type DayRange struct {
	Weekday int `json:"weekday"` // time.Weekday numbering, Sunday = 0
	From    int `json:"from"`
	To      int `json:"to"`
}

// PeriodsInWeekdays accepts reservations that stay inside a weekly
// recurring schedule. The reservation span is decomposed into one range per
// calendar day touched and every piece must be covered by an allowed range
// for that weekday.
type PeriodsInWeekdays struct {
	Ranges []DayRange `json:"ranges"`
}

func (v *PeriodsInWeekdays) Kind() Kind { return KindPeriodsInWeekdays }

func (v *PeriodsInWeekdays) Validate(_ context.Context, _ Env, c Candidate) error {
	current := c.Start
	for i := 0; current.Before(c.End) && i < maxWeekdayDecomposition; i++ {
		dayEnd := midnightAfter(current)

		from := secondsIntoDay(current)
		to := secondsPerDay
		if c.End.Before(dayEnd) {
			to = secondsIntoDay(c.End)
		}

		if !v.covered(current.Weekday(), from, to) {
			return &InvalidPeriodError{
				Kind: KindPeriodsInWeekdays, Reason: ReasonForbiddenHours, Date: current,
				Message: fmt.Sprintf("%s %02d:%02d is outside the allowed weekly hours",
					current.Weekday(), current.Hour(), current.Minute()),
			}
		}

		current = dayEnd
	}
	return nil
}

func (v *PeriodsInWeekdays) covered(weekday time.Weekday, from, to int) bool {
	for _, r := range v.Ranges {
		if r.Weekday == int(weekday) && r.From <= from && r.To >= to {
			return true
		}
	}
	return false
}

func midnightAfter(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

func secondsIntoDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
