package subject

import (
	"time"

	"kitabu/internal/domain/reservation"
	"kitabu/internal/domain/schedule"
)

// AdmissionRequest is a candidate occupancy, not yet persisted.
type AdmissionRequest struct {
	Span      reservation.Span
	Size      int
	Exclusive bool
}

// Admit decides whether the candidate fits the subject given its existing
// reservations. It is the single admission algorithm for every capacity
// variant; expired unapproved reservations are treated as absent.
//
// Exclusive admission (exclusive subject, or an explicitly exclusive
// request) rejects on any valid overlap regardless of size. Finite
// admission rejects when the requested size exceeds total capacity, or when
// peak concurrent usage over the window plus the requested size would
// exceed it at any instant.
func Admit(s *Subject, existing []*reservation.Reservation, req AdmissionRequest, now time.Time) error {
	overlapping := make([]*reservation.Reservation, 0, len(existing))
	for _, r := range existing {
		if r.IsValid(now) && r.Span().Overlaps(req.Span) {
			overlapping = append(overlapping, r)
		}
	}

	if s.exclusive || req.Exclusive {
		if len(overlapping) > 0 {
			return &OverlappingReservationsError{
				SubjectID: s.id,
				Span:      req.Span,
				Colliding: overlapping,
			}
		}
		return nil
	}

	if req.Size > s.capacity {
		return &SizeExceededError{
			SubjectID: s.id,
			Requested: req.Size,
			Capacity:  s.capacity,
			Span:      req.Span,
		}
	}

	occupancies := make([]schedule.Occupancy, len(overlapping))
	for i, r := range overlapping {
		occupancies[i] = schedule.Occupancy{Start: r.Span().Start(), End: r.Span().End(), Size: r.Size()}
	}

	timeline := schedule.NewTimeline(req.Span.Start(), req.Span.End(), occupancies)
	if timeline.Max()+req.Size > s.capacity {
		return &SizeExceededError{
			SubjectID:   s.id,
			Requested:   req.Size,
			Capacity:    s.capacity,
			Span:        req.Span,
			Overlapping: overlapping,
		}
	}

	return nil
}
