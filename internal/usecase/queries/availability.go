package queries

import (
	"context"
	"time"

	"kitabu/internal/domain/reservation"
	"kitabu/internal/domain/schedule"
	"kitabu/internal/pkg/clock"

	"github.com/google/uuid"
)

type AvailabilityQueries interface {
	// AvailableSubjects lists finite-capacity subjects that can still take
	// size more units anywhere inside [start, end).
	AvailableSubjects(ctx context.Context, start, end time.Time, size int) ([]SubjectView, error)
	// ExclusivelyAvailableSubjects lists subjects with no valid reservation
	// at all inside [start, end), so an exclusive reservation would fit.
	ExclusivelyAvailableSubjects(ctx context.Context, start, end time.Time) ([]SubjectView, error)
	// AvailableClusters lists clusters whose members together retain at
	// least size free units throughout [start, end).
	AvailableClusters(ctx context.Context, start, end time.Time, size int) ([]ClusterView, error)
	// FreePeriods lists the maximal sub-windows of [start, end) during which
	// the subject can take size more units for at least minDuration. Size
	// zero means the subject's whole capacity.
	FreePeriods(ctx context.Context, subjectID uuid.UUID, start, end time.Time, minDuration time.Duration, size int) ([]schedule.Window, error)
}

type availabilityQueriesImpl struct {
	store ReadStore
	clock clock.Clock
}

func NewAvailabilityQueries(store ReadStore, clk clock.Clock) AvailabilityQueries {
	return &availabilityQueriesImpl{store: store, clock: clk}
}

func (q *availabilityQueriesImpl) AvailableSubjects(ctx context.Context, start, end time.Time, size int) ([]SubjectView, error) {
	if _, err := reservation.NewSpan(start, end); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 1
	}

	subjects, err := q.store.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	colliding, err := q.store.CollidingValid(ctx, start, end, q.clock.Now())
	if err != nil {
		return nil, err
	}
	bySubject := groupBySubject(colliding)

	available := make([]SubjectView, 0, len(subjects))
	for _, subj := range subjects {
		if subj.Exclusive || subj.Capacity < size {
			continue
		}
		peak := peakUsage(start, end, bySubject[subj.ID])
		if peak+size <= subj.Capacity {
			available = append(available, subj)
		}
	}
	return available, nil
}

func (q *availabilityQueriesImpl) ExclusivelyAvailableSubjects(ctx context.Context, start, end time.Time) ([]SubjectView, error) {
	if _, err := reservation.NewSpan(start, end); err != nil {
		return nil, err
	}

	subjects, err := q.store.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	colliding, err := q.store.CollidingValid(ctx, start, end, q.clock.Now())
	if err != nil {
		return nil, err
	}

	occupied := make(map[uuid.UUID]struct{}, len(colliding))
	for _, row := range colliding {
		occupied[row.SubjectID] = struct{}{}
	}

	free := make([]SubjectView, 0, len(subjects))
	for _, subj := range subjects {
		if _, busy := occupied[subj.ID]; !busy {
			free = append(free, subj)
		}
	}
	return free, nil
}

// AvailableClusters treats a cluster as a pool: its free size is the sum of
// member capacities minus each member's own peak usage. Members cover each
// other, so a cluster can satisfy a request none of its subjects could alone.
func (q *availabilityQueriesImpl) AvailableClusters(ctx context.Context, start, end time.Time, size int) ([]ClusterView, error) {
	if _, err := reservation.NewSpan(start, end); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 1
	}

	clusters, err := q.store.ListClustersWithCapacity(ctx)
	if err != nil {
		return nil, err
	}
	colliding, err := q.store.CollidingValid(ctx, start, end, q.clock.Now())
	if err != nil {
		return nil, err
	}
	bySubject := groupBySubject(colliding)

	usedByCluster := make(map[uuid.UUID]int)
	for subjectID, rows := range bySubject {
		if len(rows) == 0 || rows[0].ClusterID == nil {
			continue
		}
		usedByCluster[*rows[0].ClusterID] += peakUsage(start, end, bySubject[subjectID])
	}

	available := make([]ClusterView, 0, len(clusters))
	for _, cl := range clusters {
		if cl.Capacity-usedByCluster[cl.ID] >= size {
			available = append(available, cl)
		}
	}
	return available, nil
}

func (q *availabilityQueriesImpl) FreePeriods(ctx context.Context, subjectID uuid.UUID, start, end time.Time, minDuration time.Duration, size int) ([]schedule.Window, error) {
	if _, err := reservation.NewSpan(start, end); err != nil {
		return nil, err
	}

	subj, err := q.store.SubjectByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		size = subj.Capacity
	}

	rows, err := q.store.CollidingValidBySubject(ctx, subjectID, start, end, q.clock.Now())
	if err != nil {
		return nil, err
	}

	timeline := schedule.NewTimeline(start, end, toOccupancies(rows))
	return timeline.FreeStreaks(subj.Capacity, size, minDuration), nil
}

func groupBySubject(rows []OccupancyRow) map[uuid.UUID][]OccupancyRow {
	bySubject := make(map[uuid.UUID][]OccupancyRow)
	for _, row := range rows {
		bySubject[row.SubjectID] = append(bySubject[row.SubjectID], row)
	}
	return bySubject
}

func peakUsage(start, end time.Time, rows []OccupancyRow) int {
	if len(rows) == 0 {
		return 0
	}
	return schedule.NewTimeline(start, end, toOccupancies(rows)).Max()
}

func toOccupancies(rows []OccupancyRow) []schedule.Occupancy {
	occupancies := make([]schedule.Occupancy, len(rows))
	for i, row := range rows {
		occupancies[i] = schedule.Occupancy{Start: row.Start, End: row.End, Size: row.Size}
	}
	return occupancies
}
