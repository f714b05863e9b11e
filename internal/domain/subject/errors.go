package subject

import (
	"errors"
	"fmt"

	"kitabu/internal/domain/reservation"

	"github.com/google/uuid"
)

var (
	ErrSizeExceeded            = errors.New("size exceeded")
	ErrOverlappingReservations = errors.New("overlapping reservations")
)

// SizeExceededError reports an admission rejected because the requested size
// does not fit, either outright or combined with peak concurrent usage.
type SizeExceededError struct {
	SubjectID uuid.UUID
	Requested int
	Capacity  int
	Span      reservation.Span
	// Overlapping holds the valid reservations that produced the peak, when
	// the rejection came from the sweep rather than the raw capacity check.
	Overlapping []*reservation.Reservation
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("size exceeded on subject %s: requested %d of %d for %s",
		e.SubjectID, e.Requested, e.Capacity, e.Span)
}

func (e *SizeExceededError) Is(target error) bool { return target == ErrSizeExceeded }

// OverlappingReservationsError reports an exclusive admission colliding with
// existing valid reservations.
type OverlappingReservationsError struct {
	SubjectID uuid.UUID
	Span      reservation.Span
	Colliding []*reservation.Reservation
}

func (e *OverlappingReservationsError) Error() string {
	return fmt.Sprintf("subject %s has %d reservation(s) overlapping %s",
		e.SubjectID, len(e.Colliding), e.Span)
}

func (e *OverlappingReservationsError) Is(target error) bool {
	return target == ErrOverlappingReservations
}
