package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNonPositiveSize    = errors.New("reservation size must be positive")
	ErrAlreadyApproved    = errors.New("reservation is already approved")
	ErrReservationExpired = errors.New("cannot approve an expired reservation")
)

// Reservation is a persisted occupancy of a subject over a half-open
// interval. It is constructed only through a subject's admission path.
type Reservation struct {
	id         uuid.UUID
	subjectID  uuid.UUID
	ownerID    *uuid.UUID
	span       Span
	size       int
	exclusive  bool
	groupID    *uuid.UUID
	approved   bool
	validUntil *time.Time
	createdAt  time.Time
}

// New builds an admitted reservation. Approval state defaults to approved;
// subjects with an approval window override it via WithApproval.
func New(subjectID uuid.UUID, ownerID *uuid.UUID, span Span, size int, exclusive bool) (*Reservation, error) {
	if size <= 0 {
		return nil, ErrNonPositiveSize
	}
	return &Reservation{
		id:        uuid.New(),
		subjectID: subjectID,
		ownerID:   ownerID,
		span:      span,
		size:      size,
		exclusive: exclusive,
		approved:  true,
	}, nil
}

// WithApproval sets the pending-approval state: unapproved with an expiry,
// or approved outright.
func (r *Reservation) WithApproval(approved bool, validUntil *time.Time) {
	r.approved = approved
	r.validUntil = validUntil
}

func (r *Reservation) AttachToGroup(groupID uuid.UUID) {
	id := groupID
	r.groupID = &id
}

// IsValid reports whether the reservation counts toward capacity: approved,
// or still inside its validity window. Once approved the expiry is
// irrelevant.
func (r *Reservation) IsValid(now time.Time) bool {
	if r.approved {
		return true
	}
	return r.validUntil != nil && r.validUntil.After(now)
}

// Approve transitions approved false→true. Approving an unapproved
// reservation whose validity window has already elapsed is rejected.
func (r *Reservation) Approve(now time.Time) error {
	if r.approved {
		return ErrAlreadyApproved
	}
	if r.validUntil != nil && !r.validUntil.After(now) {
		return ErrReservationExpired
	}
	r.approved = true
	return nil
}

// Resize is used by the capacity cascade on exclusive reservations; an
// exclusive reservation always fills its subject.
func (r *Reservation) Resize(size int) error {
	if size <= 0 {
		return ErrNonPositiveSize
	}
	r.size = size
	return nil
}

func (r *Reservation) ID() uuid.UUID          { return r.id }
func (r *Reservation) SubjectID() uuid.UUID   { return r.subjectID }
func (r *Reservation) OwnerID() *uuid.UUID    { return r.ownerID }
func (r *Reservation) Span() Span             { return r.span }
func (r *Reservation) Size() int              { return r.size }
func (r *Reservation) Exclusive() bool        { return r.exclusive }
func (r *Reservation) GroupID() *uuid.UUID    { return r.groupID }
func (r *Reservation) Approved() bool         { return r.approved }
func (r *Reservation) ValidUntil() *time.Time { return r.validUntil }
func (r *Reservation) CreatedAt() time.Time   { return r.createdAt }

// Reconstruct rebuilds a reservation from its persisted state.
func Reconstruct(
	id, subjectID uuid.UUID,
	ownerID *uuid.UUID,
	span Span,
	size int,
	exclusive bool,
	groupID *uuid.UUID,
	approved bool,
	validUntil *time.Time,
	createdAt time.Time,
) *Reservation {
	return &Reservation{
		id:         id,
		subjectID:  subjectID,
		ownerID:    ownerID,
		span:       span,
		size:       size,
		exclusive:  exclusive,
		groupID:    groupID,
		approved:   approved,
		validUntil: validUntil,
		createdAt:  createdAt,
	}
}

// Group is a set of reservations created atomically together. Membership is
// fixed at creation.
type Group struct {
	id        uuid.UUID
	createdAt time.Time
}

func NewGroup() *Group {
	return &Group{id: uuid.New()}
}

func ReconstructGroup(id uuid.UUID, createdAt time.Time) *Group {
	return &Group{id: id, createdAt: createdAt}
}

func (g *Group) ID() uuid.UUID        { return g.id }
func (g *Group) CreatedAt() time.Time { return g.createdAt }
