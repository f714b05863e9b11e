//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"kitabu/internal/domain/reservation"
	"kitabu/internal/domain/schedule"
	"kitabu/internal/infra"
	"kitabu/internal/pkg/clock"
	"kitabu/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queryNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2026, 9, 1, h, m, 0, 0, time.UTC)
}

// fakeReadStore serves canned views; the validity predicate is the real
// store's concern, so its rows are taken as already valid.
type fakeReadStore struct {
	subjects     []queries.SubjectView
	clusters     []queries.ClusterView
	occupancies  []queries.OccupancyRow
	reservations []queries.ReservationView
}

func (s *fakeReadStore) SubjectByID(_ context.Context, id uuid.UUID) (*queries.SubjectView, error) {
	for _, subj := range s.subjects {
		if subj.ID == id {
			found := subj
			return &found, nil
		}
	}
	return nil, infra.WrapRepoErr(infra.KindNotFound, "subject not found", nil)
}

func (s *fakeReadStore) ListSubjects(_ context.Context) ([]queries.SubjectView, error) {
	return s.subjects, nil
}

func (s *fakeReadStore) ListClustersWithCapacity(_ context.Context) ([]queries.ClusterView, error) {
	return s.clusters, nil
}

func (s *fakeReadStore) CollidingValid(_ context.Context, start, end, _ time.Time) ([]queries.OccupancyRow, error) {
	var out []queries.OccupancyRow
	for _, row := range s.occupancies {
		if row.Start.Before(end) && row.End.After(start) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *fakeReadStore) CollidingValidBySubject(ctx context.Context, subjectID uuid.UUID, start, end, now time.Time) ([]queries.OccupancyRow, error) {
	all, err := s.CollidingValid(ctx, start, end, now)
	if err != nil {
		return nil, err
	}
	var out []queries.OccupancyRow
	for _, row := range all {
		if row.SubjectID == subjectID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *fakeReadStore) ReservationByID(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	for _, view := range s.reservations {
		if view.ID == id {
			found := view
			return &found, nil
		}
	}
	return nil, infra.WrapRepoErr(infra.KindNotFound, "reservation not found", nil)
}

func (s *fakeReadStore) ReservationsByGroup(_ context.Context, groupID uuid.UUID) ([]queries.ReservationView, error) {
	var out []queries.ReservationView
	for _, view := range s.reservations {
		if view.GroupID != nil && *view.GroupID == groupID {
			out = append(out, view)
		}
	}
	return out, nil
}

func (s *fakeReadStore) SearchReservations(_ context.Context, filter queries.ReservationFilter) ([]queries.ReservationView, error) {
	var out []queries.ReservationView
	for _, view := range s.reservations {
		if filter.SubjectID != nil && view.SubjectID != *filter.SubjectID {
			continue
		}
		if filter.OwnerID != nil && (view.OwnerID == nil || *view.OwnerID != *filter.OwnerID) {
			continue
		}
		out = append(out, view)
	}
	return out, nil
}

func subjectView(name string, capacity int, exclusive bool, clusterID *uuid.UUID) queries.SubjectView {
	return queries.SubjectView{ID: uuid.New(), Name: name, Capacity: capacity, Exclusive: exclusive, ClusterID: clusterID}
}

func occupancy(subj queries.SubjectView, start, end time.Time, size int) queries.OccupancyRow {
	return queries.OccupancyRow{SubjectID: subj.ID, ClusterID: subj.ClusterID, Start: start, End: end, Size: size}
}

func subjectIDs(views []queries.SubjectView) []uuid.UUID {
	ids := make([]uuid.UUID, len(views))
	for i, view := range views {
		ids[i] = view.ID
	}
	return ids
}

func TestAvailableSubjects(t *testing.T) {
	ctx := context.Background()

	roomy := subjectView("roomy", 3, false, nil)
	tight := subjectView("tight", 1, false, nil)
	hall := subjectView("hall", 50, true, nil)

	store := &fakeReadStore{
		subjects: []queries.SubjectView{roomy, tight, hall},
		occupancies: []queries.OccupancyRow{
			occupancy(roomy, at(10, 0), at(12, 0), 2),
			occupancy(tight, at(18, 0), at(20, 0), 1),
		},
	}
	q := queries.NewAvailabilityQueries(store, clock.NewMockClock(queryNow))

	t.Run("size one fits beside partial usage", func(t *testing.T) {
		got, err := q.AvailableSubjects(ctx, at(9, 0), at(17, 0), 1)
		require.NoError(t, err)
		assert.ElementsMatch(t, subjectIDs([]queries.SubjectView{roomy, tight}), subjectIDs(got))
	})

	t.Run("peak usage shrinks the headroom", func(t *testing.T) {
		got, err := q.AvailableSubjects(ctx, at(9, 0), at(17, 0), 2)
		require.NoError(t, err)
		assert.Empty(t, got, "roomy peaks at 2 of 3, tight is too small")
	})

	t.Run("usage outside the window is ignored", func(t *testing.T) {
		got, err := q.AvailableSubjects(ctx, at(12, 0), at(14, 0), 3)
		require.NoError(t, err)
		assert.ElementsMatch(t, subjectIDs([]queries.SubjectView{roomy}), subjectIDs(got))
	})

	t.Run("size zero defaults to one", func(t *testing.T) {
		got, err := q.AvailableSubjects(ctx, at(9, 0), at(17, 0), 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("exclusive subjects are never listed", func(t *testing.T) {
		got, err := q.AvailableSubjects(ctx, at(6, 0), at(7, 0), 1)
		require.NoError(t, err)
		for _, subj := range got {
			assert.False(t, subj.Exclusive)
		}
	})

	t.Run("inverted window is rejected", func(t *testing.T) {
		_, err := q.AvailableSubjects(ctx, at(17, 0), at(9, 0), 1)
		require.ErrorIs(t, err, reservation.ErrInvalidSpan)
	})
}

func TestExclusivelyAvailableSubjects(t *testing.T) {
	ctx := context.Background()

	busy := subjectView("busy", 3, false, nil)
	idle := subjectView("idle", 3, false, nil)
	hall := subjectView("hall", 50, true, nil)

	store := &fakeReadStore{
		subjects: []queries.SubjectView{busy, idle, hall},
		occupancies: []queries.OccupancyRow{
			occupancy(busy, at(10, 0), at(12, 0), 1),
		},
	}
	q := queries.NewAvailabilityQueries(store, clock.NewMockClock(queryNow))

	t.Run("any overlap disqualifies", func(t *testing.T) {
		got, err := q.ExclusivelyAvailableSubjects(ctx, at(11, 0), at(13, 0))
		require.NoError(t, err)
		assert.ElementsMatch(t, subjectIDs([]queries.SubjectView{idle, hall}), subjectIDs(got))
	})

	t.Run("touching occupancy does not disqualify", func(t *testing.T) {
		got, err := q.ExclusivelyAvailableSubjects(ctx, at(12, 0), at(14, 0))
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestAvailableClusters(t *testing.T) {
	ctx := context.Background()

	clusterID := uuid.New()
	first := subjectView("first", 3, false, &clusterID)
	second := subjectView("second", 2, false, &clusterID)

	store := &fakeReadStore{
		subjects: []queries.SubjectView{first, second},
		clusters: []queries.ClusterView{{ID: clusterID, Name: "east wing", Capacity: 5}},
		occupancies: []queries.OccupancyRow{
			occupancy(first, at(10, 0), at(12, 0), 2),
		},
	}
	q := queries.NewAvailabilityQueries(store, clock.NewMockClock(queryNow))

	t.Run("members pool their free capacity", func(t *testing.T) {
		got, err := q.AvailableClusters(ctx, at(9, 0), at(17, 0), 3)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, clusterID, got[0].ID)
	})

	t.Run("request above the pooled headroom", func(t *testing.T) {
		got, err := q.AvailableClusters(ctx, at(9, 0), at(17, 0), 4)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("full pool when nothing overlaps", func(t *testing.T) {
		got, err := q.AvailableClusters(ctx, at(13, 0), at(14, 0), 5)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestFreePeriods(t *testing.T) {
	ctx := context.Background()

	subj := subjectView("room", 2, false, nil)
	store := &fakeReadStore{
		subjects: []queries.SubjectView{subj},
		occupancies: []queries.OccupancyRow{
			occupancy(subj, at(11, 0), at(13, 0), 2),
		},
	}
	q := queries.NewAvailabilityQueries(store, clock.NewMockClock(queryNow))

	t.Run("saturated stretch splits the window", func(t *testing.T) {
		got, err := q.FreePeriods(ctx, subj.ID, at(9, 0), at(17, 0), time.Hour, 1)
		require.NoError(t, err)
		assert.Equal(t, []schedule.Window{
			{Start: at(9, 0), End: at(11, 0)},
			{Start: at(13, 0), End: at(17, 0)},
		}, got)
	})

	t.Run("size zero means the whole capacity", func(t *testing.T) {
		got, err := q.FreePeriods(ctx, subj.ID, at(9, 0), at(17, 0), time.Hour, 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := q.FreePeriods(ctx, uuid.New(), at(9, 0), at(17, 0), time.Hour, 1)
		require.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

func TestReservationQueries(t *testing.T) {
	ctx := context.Background()

	groupID := uuid.New()
	ownerID := uuid.New()
	solo := queries.ReservationView{ID: uuid.New(), SubjectID: uuid.New(), OwnerID: &ownerID, Start: at(10, 0), End: at(12, 0), Size: 1, Approved: true}
	grouped := queries.ReservationView{ID: uuid.New(), SubjectID: uuid.New(), Start: at(10, 0), End: at(12, 0), Size: 1, GroupID: &groupID, Approved: true}

	store := &fakeReadStore{reservations: []queries.ReservationView{solo, grouped}}
	q := queries.NewReservationQueries(store)

	t.Run("by id", func(t *testing.T) {
		got, err := q.GetReservation(ctx, solo.ID)
		require.NoError(t, err)
		assert.Equal(t, solo, *got)
	})

	t.Run("by group", func(t *testing.T) {
		got, err := q.ListGroupReservations(ctx, groupID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, grouped.ID, got[0].ID)
	})

	t.Run("by owner", func(t *testing.T) {
		got, err := q.SearchReservations(ctx, queries.ReservationFilter{OwnerID: &ownerID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, solo.ID, got[0].ID)
	})
}
