package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SubjectView struct {
	ID        uuid.UUID
	Name      string
	Capacity  int
	Exclusive bool
	ClusterID *uuid.UUID
}

type ReservationView struct {
	ID         uuid.UUID
	SubjectID  uuid.UUID
	OwnerID    *uuid.UUID
	Start      time.Time
	End        time.Time
	Size       int
	Exclusive  bool
	GroupID    *uuid.UUID
	Approved   bool
	ValidUntil *time.Time
}

type ClusterView struct {
	ID       uuid.UUID
	Name     string
	Capacity int // aggregate capacity of member subjects
}

// OccupancyRow is a flattened valid reservation used by the availability
// sweeps; ClusterID is populated by the cluster-scoped queries.
type OccupancyRow struct {
	SubjectID uuid.UUID
	ClusterID *uuid.UUID
	Start     time.Time
	End       time.Time
	Size      int
}

// ReservationFilter narrows a reservation search; nil fields are ignored.
// Start/End select reservations overlapping the half-open window.
type ReservationFilter struct {
	SubjectID *uuid.UUID
	OwnerID   *uuid.UUID
	ClusterID *uuid.UUID
	Start     time.Time
	End       time.Time
}

// ReadStore is the read-only persistence port of the availability and
// search queries. Implementations never lock rows; results are consistent
// as of their own read transaction, nothing more.
type ReadStore interface {
	SubjectByID(ctx context.Context, id uuid.UUID) (*SubjectView, error)
	ListSubjects(ctx context.Context) ([]SubjectView, error)
	ListClustersWithCapacity(ctx context.Context) ([]ClusterView, error)

	// CollidingValid returns every currently-valid reservation overlapping
	// [start, end), across all subjects.
	CollidingValid(ctx context.Context, start, end, now time.Time) ([]OccupancyRow, error)
	// CollidingValidBySubject restricts the collision scan to one subject.
	CollidingValidBySubject(ctx context.Context, subjectID uuid.UUID, start, end, now time.Time) ([]OccupancyRow, error)

	ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ReservationsByGroup(ctx context.Context, groupID uuid.UUID) ([]ReservationView, error)
	SearchReservations(ctx context.Context, filter ReservationFilter) ([]ReservationView, error)
}
