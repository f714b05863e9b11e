package queries

import (
	"context"

	"github.com/google/uuid"
)

type ReservationQueries interface {
	GetReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListGroupReservations(ctx context.Context, groupID uuid.UUID) ([]ReservationView, error)
	SearchReservations(ctx context.Context, filter ReservationFilter) ([]ReservationView, error)
	GetSubject(ctx context.Context, id uuid.UUID) (*SubjectView, error)
	ListSubjects(ctx context.Context) ([]SubjectView, error)
}

type reservationQueriesImpl struct {
	store ReadStore
}

func NewReservationQueries(store ReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) GetReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	return q.store.ReservationByID(ctx, id)
}

func (q *reservationQueriesImpl) ListGroupReservations(ctx context.Context, groupID uuid.UUID) ([]ReservationView, error) {
	return q.store.ReservationsByGroup(ctx, groupID)
}

func (q *reservationQueriesImpl) SearchReservations(ctx context.Context, filter ReservationFilter) ([]ReservationView, error) {
	return q.store.SearchReservations(ctx, filter)
}

func (q *reservationQueriesImpl) GetSubject(ctx context.Context, id uuid.UUID) (*SubjectView, error) {
	return q.store.SubjectByID(ctx, id)
}

func (q *reservationQueriesImpl) ListSubjects(ctx context.Context) ([]SubjectView, error) {
	return q.store.ListSubjects(ctx)
}
