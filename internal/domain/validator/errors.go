package validator

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrTooManyReservations = errors.New("too many reservations")
)

// Reason names the specific schedule rule an InvalidPeriodError came from.
type Reason string

const (
	ReasonMisaligned            Reason = "misaligned"
	ReasonTooSoon               Reason = "too_soon"
	ReasonTooLate               Reason = "too_late"
	ReasonOutsideAllowedPeriods Reason = "outside_allowed_periods"
	ReasonForbiddenPeriod       Reason = "forbidden_period"
	ReasonForbiddenHours        Reason = "forbidden_hours"
	ReasonTooLong               Reason = "too_long"
	ReasonRejectedByPredicate   Reason = "rejected_by_predicate"
)

// InvalidPeriodError is a validator-chain rejection tied to date/time
// constraints. It keeps enough context to build a specific message.
type InvalidPeriodError struct {
	Kind    Kind
	Reason  Reason
	Date    time.Time
	Message string
}

func (e *InvalidPeriodError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return string(e.Reason)
}

func (e *InvalidPeriodError) Is(target error) bool { return target == ErrInvalidPeriod }

// TooManyReservationsError is a quota rejection. PerSubject distinguishes
// the per-subject limit from the global one.
type TooManyReservationsError struct {
	Limit      int
	Count      int
	PerSubject bool
}

func (e *TooManyReservationsError) Error() string {
	scope := "across all subjects"
	if e.PerSubject {
		scope = "on this subject"
	}
	return fmt.Sprintf("owner already holds %d of %d allowed reservations %s", e.Count, e.Limit, scope)
}

func (e *TooManyReservationsError) Is(target error) bool { return target == ErrTooManyReservations }
