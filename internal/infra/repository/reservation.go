package repository

import (
	"context"
	"errors"
	"time"

	"kitabu/internal/domain/reservation"
	"kitabu/internal/infra"
	"kitabu/internal/infra/db"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationRepository struct {
	dbtx db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) shared.ReservationRepository {
	return &ReservationRepository{dbtx: dbtx}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	_, err := r.dbtx.Exec(ctx, `
		INSERT INTO reservations (id, subject_id, owner_id, start_at, end_at, size, exclusive, group_id, approved, valid_until, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`,
		res.ID(), res.SubjectID(), res.OwnerID(),
		res.Span().Start(), res.Span().End(),
		res.Size(), res.Exclusive(), res.GroupID(),
		res.Approved(), res.ValidUntil(),
	)
	if err != nil {
		return classifyPgError(err, "failed to create reservation")
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.dbtx.QueryRow(ctx, `
		SELECT id, subject_id, owner_id, start_at, end_at, size, exclusive, group_id, approved, valid_until, created_at
		FROM reservations
		WHERE id = $1`,
		id,
	)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "reservation not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to find reservation", err)
	}
	return res, nil
}

// OverlappingValid fetches the subject's currently-valid reservations
// intersecting [start, end). Half-open semantics: a reservation ending
// exactly at start does not intersect.
func (r *ReservationRepository) OverlappingValid(ctx context.Context, subjectID uuid.UUID, start, end, now time.Time) ([]*reservation.Reservation, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT id, subject_id, owner_id, start_at, end_at, size, exclusive, group_id, approved, valid_until, created_at
		FROM reservations
		WHERE subject_id = $1
		  AND start_at < $3
		  AND end_at > $2
		  AND (approved OR valid_until > $4)`,
		subjectID, start, end, now,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query overlapping reservations", err)
	}
	defer rows.Close()

	var reservations []*reservation.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan reservation", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read reservations", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) SetApproved(ctx context.Context, id uuid.UUID) error {
	tag, err := r.dbtx.Exec(ctx, `UPDATE reservations SET approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to approve reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindNotFound, "reservation not found", nil)
	}
	return nil
}

func (r *ReservationRepository) ResizeValidExclusive(ctx context.Context, subjectID uuid.UUID, size int, now time.Time) (int64, error) {
	tag, err := r.dbtx.Exec(ctx, `
		UPDATE reservations
		SET size = $2
		WHERE subject_id = $1
		  AND exclusive
		  AND (approved OR valid_until > $3)`,
		subjectID, size, now,
	)
	if err != nil {
		return 0, infra.WrapRepoErr(infra.KindDBFailure, "failed to resize exclusive reservations", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReservationRepository) CountValidBySubjectAndOwner(ctx context.Context, subjectID, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.dbtx.QueryRow(ctx, `
		SELECT count(*)
		FROM reservations
		WHERE subject_id = $1
		  AND owner_id = $2
		  AND (approved OR valid_until > now())`,
		subjectID, ownerID,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr(infra.KindDBFailure, "failed to count owner reservations", err)
	}
	return count, nil
}

func (r *ReservationRepository) CountValidByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.dbtx.QueryRow(ctx, `
		SELECT count(*)
		FROM reservations
		WHERE owner_id = $1
		  AND (approved OR valid_until > now())`,
		ownerID,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr(infra.KindDBFailure, "failed to count owner reservations", err)
	}
	return count, nil
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, subjectID    uuid.UUID
		ownerID, groupID *uuid.UUID
		startAt, endAt   time.Time
		size             int
		exclusive        bool
		approved         bool
		validUntil       *time.Time
		createdAt        time.Time
	)
	if err := row.Scan(&id, &subjectID, &ownerID, &startAt, &endAt, &size, &exclusive, &groupID, &approved, &validUntil, &createdAt); err != nil {
		return nil, err
	}

	span, err := reservation.NewSpan(startAt, endAt)
	if err != nil {
		return nil, err
	}
	return reservation.Reconstruct(id, subjectID, ownerID, span, size, exclusive, groupID, approved, validUntil, createdAt), nil
}
