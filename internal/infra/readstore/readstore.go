package readstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"kitabu/internal/infra"
	"kitabu/internal/infra/db"
	"kitabu/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PostgresReadStore serves the availability and search queries straight off
// the pool; no row locks, no transactions.
type PostgresReadStore struct {
	dbtx db.DBTX
}

func NewPostgresReadStore(dbtx db.DBTX) queries.ReadStore {
	return &PostgresReadStore{dbtx: dbtx}
}

func (s *PostgresReadStore) SubjectByID(ctx context.Context, id uuid.UUID) (*queries.SubjectView, error) {
	row := s.dbtx.QueryRow(ctx, `
		SELECT id, name, capacity, exclusive, cluster_id
		FROM subjects
		WHERE id = $1`,
		id,
	)

	var view queries.SubjectView
	if err := row.Scan(&view.ID, &view.Name, &view.Capacity, &view.Exclusive, &view.ClusterID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "subject not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to find subject", err)
	}
	return &view, nil
}

func (s *PostgresReadStore) ListSubjects(ctx context.Context) ([]queries.SubjectView, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT id, name, capacity, exclusive, cluster_id
		FROM subjects
		ORDER BY name`,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list subjects", err)
	}
	defer rows.Close()

	var views []queries.SubjectView
	for rows.Next() {
		var view queries.SubjectView
		if err := rows.Scan(&view.ID, &view.Name, &view.Capacity, &view.Exclusive, &view.ClusterID); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan subject", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read subjects", err)
	}
	return views, nil
}

func (s *PostgresReadStore) ListClustersWithCapacity(ctx context.Context) ([]queries.ClusterView, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT c.id, c.name, COALESCE(SUM(s.capacity), 0)
		FROM clusters c
		LEFT JOIN subjects s ON s.cluster_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name`,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list clusters", err)
	}
	defer rows.Close()

	var views []queries.ClusterView
	for rows.Next() {
		var view queries.ClusterView
		if err := rows.Scan(&view.ID, &view.Name, &view.Capacity); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan cluster", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read clusters", err)
	}
	return views, nil
}

func (s *PostgresReadStore) CollidingValid(ctx context.Context, start, end, now time.Time) ([]queries.OccupancyRow, error) {
	return s.collidingRows(ctx, `
		SELECT r.subject_id, s.cluster_id, r.start_at, r.end_at, r.size
		FROM reservations r
		JOIN subjects s ON s.id = r.subject_id
		WHERE r.start_at < $2
		  AND r.end_at > $1
		  AND (r.approved OR r.valid_until > $3)`,
		start, end, now,
	)
}

func (s *PostgresReadStore) CollidingValidBySubject(ctx context.Context, subjectID uuid.UUID, start, end, now time.Time) ([]queries.OccupancyRow, error) {
	return s.collidingRows(ctx, `
		SELECT r.subject_id, s.cluster_id, r.start_at, r.end_at, r.size
		FROM reservations r
		JOIN subjects s ON s.id = r.subject_id
		WHERE r.subject_id = $4
		  AND r.start_at < $2
		  AND r.end_at > $1
		  AND (r.approved OR r.valid_until > $3)`,
		start, end, now, subjectID,
	)
}

func (s *PostgresReadStore) collidingRows(ctx context.Context, query string, args ...any) ([]queries.OccupancyRow, error) {
	rows, err := s.dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query colliding reservations", err)
	}
	defer rows.Close()

	var result []queries.OccupancyRow
	for rows.Next() {
		var row queries.OccupancyRow
		if err := rows.Scan(&row.SubjectID, &row.ClusterID, &row.Start, &row.End, &row.Size); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan reservation", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read reservations", err)
	}
	return result, nil
}

func (s *PostgresReadStore) ReservationByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	row := s.dbtx.QueryRow(ctx, `
		SELECT id, subject_id, owner_id, start_at, end_at, size, exclusive, group_id, approved, valid_until
		FROM reservations
		WHERE id = $1`,
		id,
	)

	view, err := scanReservationView(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "reservation not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to find reservation", err)
	}
	return view, nil
}

func (s *PostgresReadStore) ReservationsByGroup(ctx context.Context, groupID uuid.UUID) ([]queries.ReservationView, error) {
	return s.listReservations(ctx, `
		SELECT id, subject_id, owner_id, start_at, end_at, size, exclusive, group_id, approved, valid_until
		FROM reservations
		WHERE group_id = $1
		ORDER BY start_at`,
		groupID,
	)
}

// SearchReservations applies the set filters conjunctively; the window, when
// present, matches by half-open overlap.
func (s *PostgresReadStore) SearchReservations(ctx context.Context, filter queries.ReservationFilter) ([]queries.ReservationView, error) {
	query := `
		SELECT r.id, r.subject_id, r.owner_id, r.start_at, r.end_at, r.size, r.exclusive, r.group_id, r.approved, r.valid_until
		FROM reservations r
		JOIN subjects s ON s.id = r.subject_id
		WHERE TRUE`
	var args []any

	next := func(arg any) string {
		args = append(args, arg)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.SubjectID != nil {
		query += ` AND r.subject_id = ` + next(*filter.SubjectID)
	}
	if filter.OwnerID != nil {
		query += ` AND r.owner_id = ` + next(*filter.OwnerID)
	}
	if filter.ClusterID != nil {
		query += ` AND s.cluster_id = ` + next(*filter.ClusterID)
	}
	if !filter.Start.IsZero() {
		query += ` AND r.end_at > ` + next(filter.Start)
	}
	if !filter.End.IsZero() {
		query += ` AND r.start_at < ` + next(filter.End)
	}
	query += ` ORDER BY r.start_at`

	return s.listReservations(ctx, query, args...)
}

func (s *PostgresReadStore) listReservations(ctx context.Context, query string, args ...any) ([]queries.ReservationView, error) {
	rows, err := s.dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query reservations", err)
	}
	defer rows.Close()

	var views []queries.ReservationView
	for rows.Next() {
		view, err := scanReservationView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan reservation", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read reservations", err)
	}
	return views, nil
}

func scanReservationView(row pgx.Row) (*queries.ReservationView, error) {
	var view queries.ReservationView
	err := row.Scan(
		&view.ID, &view.SubjectID, &view.OwnerID,
		&view.Start, &view.End, &view.Size, &view.Exclusive,
		&view.GroupID, &view.Approved, &view.ValidUntil,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}
