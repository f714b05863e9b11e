package shared

import (
	"context"
	"time"

	"kitabu/internal/domain/cluster"
	"kitabu/internal/domain/owner"
	"kitabu/internal/domain/reservation"
	"kitabu/internal/domain/subject"
	"kitabu/internal/domain/validator"

	"github.com/google/uuid"
)

// UnitOfWork owns transaction boundaries. Within runs fn inside one
// transaction, committing on nil and rolling back on error; retry on
// store-level serialization conflicts is the implementation's business.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to one open transaction.
type Tx interface {
	Subjects() SubjectRepository
	Reservations() ReservationRepository
	Groups() GroupRepository
	Validators() ValidatorRepository
	Clusters() ClusterRepository
	Owners() OwnerRepository
}

type SubjectRepository interface {
	Create(ctx context.Context, s *subject.Subject) error
	FindByID(ctx context.Context, id uuid.UUID) (*subject.Subject, error)
	// LockForUpdate acquires row locks on every listed subject, in stable
	// (sorted) id order, and returns the locked subjects. This is the
	// serialization point for all admission decisions.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]*subject.Subject, error)
	UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) error
}

type ReservationRepository interface {
	validator.OwnerUsage

	Create(ctx context.Context, r *reservation.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	// OverlappingValid returns the subject's currently-valid reservations
	// intersecting the half-open window [start, end).
	OverlappingValid(ctx context.Context, subjectID uuid.UUID, start, end, now time.Time) ([]*reservation.Reservation, error)
	SetApproved(ctx context.Context, id uuid.UUID) error
	// ResizeValidExclusive cascades a subject capacity change onto its
	// currently-valid exclusive reservations.
	ResizeValidExclusive(ctx context.Context, subjectID uuid.UUID, size int, now time.Time) (int64, error)
}

type GroupRepository interface {
	Create(ctx context.Context, g *reservation.Group) error
}

type ClusterRepository interface {
	Create(ctx context.Context, c *cluster.Cluster) error
}

type OwnerRepository interface {
	Create(ctx context.Context, o *owner.Owner) error
	FindByID(ctx context.Context, id uuid.UUID) (*owner.Owner, error)
	FindByEmail(ctx context.Context, email string) (*owner.Owner, error)
}

type ValidatorRepository interface {
	Create(ctx context.Context, id uuid.UUID, kind validator.Kind, params []byte, applyToAll bool) error
	Attach(ctx context.Context, subjectID, validatorID uuid.UUID) error
	// ChainForSubject returns the decoded union of validators attached to
	// the subject and validators flagged apply-to-all.
	ChainForSubject(ctx context.Context, subjectID uuid.UUID) (validator.Chain, error)
}
