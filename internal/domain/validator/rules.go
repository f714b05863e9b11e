package validator

import (
	"context"
	"fmt"
	"time"
)

// TimeUnit is the granularity ladder walked by the full-time rule, finest
// first.
type TimeUnit string

const (
	UnitSecond TimeUnit = "second"
	UnitMinute TimeUnit = "minute"
	UnitHour   TimeUnit = "hour"
	UnitDay    TimeUnit = "day"
)

var timeUnitOrder = []TimeUnit{UnitSecond, UnitMinute, UnitHour, UnitDay}

func unitValue(t time.Time, u TimeUnit) int {
	switch u {
	case UnitSecond:
		return t.Second()
	case UnitMinute:
		return t.Minute()
	case UnitHour:
		return t.Hour()
	case UnitDay:
		return t.Day()
	}
	return 0
}

// FullTime requires start and end to sit on a time-unit boundary: every unit
// finer than Unit must be zero, and the value at Unit must be divisible by
// Interval (Interval 0 demands that value be zero as well).
type FullTime struct {
	Unit     TimeUnit `json:"unit"`
	Interval int      `json:"interval"`
}

func (v *FullTime) Kind() Kind { return KindFullTime }

func (v *FullTime) Validate(_ context.Context, _ Env, c Candidate) error {
	for _, date := range []time.Time{c.Start, c.End} {
		if err := v.validateDate(date); err != nil {
			return err
		}
	}
	return nil
}

func (v *FullTime) validateDate(date time.Time) error {
	if date.Nanosecond() != 0 {
		return v.misaligned(date, "microseconds must be 0")
	}
	for _, unit := range timeUnitOrder {
		value := unitValue(date, unit)
		if unit == v.Unit {
			if v.Interval == 0 {
				if value != 0 {
					return v.misaligned(date, fmt.Sprintf("%ss must be 0 (got %d)", unit, value))
				}
			} else if value%v.Interval != 0 {
				return v.misaligned(date, fmt.Sprintf("%ss must be divisible by %d (%d is not)", unit, v.Interval, value))
			}
			return nil
		}
		if value != 0 {
			return v.misaligned(date, fmt.Sprintf("%ss must be 0 (got %d)", unit, value))
		}
	}
	return nil
}

func (v *FullTime) misaligned(date time.Time, msg string) error {
	return &InvalidPeriodError{Kind: KindFullTime, Reason: ReasonMisaligned, Date: date, Message: msg}
}

// IntervalMode selects the direction of a time-interval constraint.
type IntervalMode string

const (
	// ModeNotSooner requires the date to be at least Threshold away from now.
	ModeNotSooner IntervalMode = "not_sooner"
	// ModeNotLater requires the date to be at most Threshold away from now.
	ModeNotLater IntervalMode = "not_later"
)

// TimeInterval constrains how far from now a reservation may start (and,
// with CheckEnd, finish).
type TimeInterval struct {
	Mode             IntervalMode `json:"mode"`
	ThresholdSeconds int64        `json:"threshold_seconds"`
	CheckEnd         bool         `json:"check_end"`
}

func (v *TimeInterval) Kind() Kind { return KindTimeInterval }

func (v *TimeInterval) Validate(_ context.Context, env Env, c Candidate) error {
	now := env.now()
	dates := []time.Time{c.Start}
	if v.CheckEnd {
		dates = append(dates, c.End)
	}

	threshold := time.Duration(v.ThresholdSeconds) * time.Second
	for _, date := range dates {
		delta := date.Sub(now)
		switch v.Mode {
		case ModeNotSooner:
			if delta < threshold {
				return &InvalidPeriodError{
					Kind: KindTimeInterval, Reason: ReasonTooSoon, Date: date,
					Message: fmt.Sprintf("date must be at least %s from now", threshold),
				}
			}
		case ModeNotLater:
			if delta > threshold {
				return &InvalidPeriodError{
					Kind: KindTimeInterval, Reason: ReasonTooLate, Date: date,
					Message: fmt.Sprintf("date must be at most %s from now", threshold),
				}
			}
		}
	}
	return nil
}

// Period is one allowed window; a nil bound is unbounded on that side.
type Period struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (p Period) contains(date time.Time) bool {
	if p.Start != nil && date.Before(*p.Start) {
		return false
	}
	if p.End != nil && date.After(*p.End) {
		return false
	}
	return true
}

// WithinPeriod accepts a reservation whose start and end both fall inside at
// least one of the attached periods.
type WithinPeriod struct {
	Periods []Period `json:"periods"`
}

func (v *WithinPeriod) Kind() Kind { return KindWithinPeriod }

func (v *WithinPeriod) Validate(_ context.Context, _ Env, c Candidate) error {
	for _, p := range v.Periods {
		if p.contains(c.Start) && p.contains(c.End) {
			return nil
		}
	}
	return &InvalidPeriodError{
		Kind: KindWithinPeriod, Reason: ReasonOutsideAllowedPeriods, Date: c.Start,
		Message: fmt.Sprintf("no allowed period covers [%s, %s)", c.Start, c.End),
	}
}

// NotWithinPeriod rejects a reservation touching the forbidden window: start
// or end inside it, or the reservation covering it entirely.
type NotWithinPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (v *NotWithinPeriod) Kind() Kind { return KindNotWithinPeriod }

func (v *NotWithinPeriod) Validate(_ context.Context, _ Env, c Candidate) error {
	inside := func(date time.Time) bool {
		return !date.Before(v.Start) && !date.After(v.End)
	}
	covers := !c.Start.After(v.Start) && !c.End.Before(v.End)
	if inside(c.Start) || inside(c.End) || covers {
		return &InvalidPeriodError{
			Kind: KindNotWithinPeriod, Reason: ReasonForbiddenPeriod, Date: c.Start,
			Message: fmt.Sprintf("reservation touches forbidden period [%s, %s]", v.Start, v.End),
		}
	}
	return nil
}

// MaxDuration caps a reservation's length.
type MaxDuration struct {
	MaxSeconds int64 `json:"max_seconds"`
}

func (v *MaxDuration) Kind() Kind { return KindMaxDuration }

func (v *MaxDuration) Validate(_ context.Context, _ Env, c Candidate) error {
	if int64(c.End.Sub(c.Start)/time.Second) > v.MaxSeconds {
		return &InvalidPeriodError{
			Kind: KindMaxDuration, Reason: ReasonTooLong, Date: c.Start,
			Message: fmt.Sprintf("duration exceeds %d seconds", v.MaxSeconds),
		}
	}
	return nil
}

// MaxReservationsPerUser caps the owner's currently-valid reservations, on
// the candidate's subject and across all subjects. Zero means unlimited.
type MaxReservationsPerUser struct {
	PerSubject  int `json:"per_subject"`
	AllSubjects int `json:"all_subjects"`
}

func (v *MaxReservationsPerUser) Kind() Kind { return KindMaxReservationsPerUser }

func (v *MaxReservationsPerUser) Validate(ctx context.Context, env Env, c Candidate) error {
	if c.OwnerID == nil || env.Usage == nil {
		return nil
	}

	if v.PerSubject > 0 {
		count, err := env.Usage.CountValidBySubjectAndOwner(ctx, c.SubjectID, *c.OwnerID)
		if err != nil {
			return err
		}
		if count >= v.PerSubject {
			return &TooManyReservationsError{Limit: v.PerSubject, Count: count, PerSubject: true}
		}
	}

	if v.AllSubjects > 0 {
		count, err := env.Usage.CountValidByOwner(ctx, *c.OwnerID)
		if err != nil {
			return err
		}
		if count >= v.AllSubjects {
			return &TooManyReservationsError{Limit: v.AllSubjects, Count: count, PerSubject: false}
		}
	}

	return nil
}

// Static delegates to a named predicate resolved from the registry at decode
// time.
type Static struct {
	Name string `json:"name"`
	fn   Func
}

func (v *Static) Kind() Kind { return KindStatic }

func (v *Static) Validate(_ context.Context, _ Env, c Candidate) error {
	return v.fn(c)
}
