package commands

import (
	"errors"
	"fmt"
)

var (
	ErrSubjectNotFound     = errors.New("subject not found")
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrConflictingApprovalArgs is a caller error: at most one of approved,
	// valid-until and validity-period may be supplied.
	ErrConflictingApprovalArgs = errors.New("conflicting approval arguments")
	// ErrExclusiveSizeFixed is a caller error: an exclusive reservation
	// always fills the subject, its size cannot be chosen.
	ErrExclusiveSizeFixed = errors.New("size cannot be set on an exclusive reservation")
	ErrAtomicReserve      = errors.New("atomic reserve failed")
)

// AtomicReserveError wraps whatever made a group reservation abort. Its
// presence guarantees the whole transaction rolled back and nothing was
// persisted.
type AtomicReserveError struct {
	Cause error
}

func (e *AtomicReserveError) Error() string {
	return fmt.Sprintf("atomic reserve rolled back: %v", e.Cause)
}

func (e *AtomicReserveError) Unwrap() error { return e.Cause }

func (e *AtomicReserveError) Is(target error) bool { return target == ErrAtomicReserve }
