package repository

import (
	"context"
	"errors"
	"time"

	"kitabu/internal/domain/subject"
	"kitabu/internal/infra"
	"kitabu/internal/infra/db"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SubjectRepository struct {
	dbtx db.DBTX
}

func NewSubjectRepository(dbtx db.DBTX) shared.SubjectRepository {
	return &SubjectRepository{dbtx: dbtx}
}

func (r *SubjectRepository) Create(ctx context.Context, s *subject.Subject) error {
	var approvalWindow *int64
	if w := s.ApprovalWindow(); w != nil {
		seconds := int64(w.Seconds())
		approvalWindow = &seconds
	}

	_, err := r.dbtx.Exec(ctx, `
		INSERT INTO subjects (id, name, capacity, exclusive, approval_window_seconds, cluster_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		s.ID(), s.Name(), s.Capacity(), s.Exclusive(), approvalWindow, s.ClusterID(),
	)
	if err != nil {
		return classifyPgError(err, "failed to create subject")
	}
	return nil
}

func (r *SubjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*subject.Subject, error) {
	row := r.dbtx.QueryRow(ctx, `
		SELECT id, name, capacity, exclusive, approval_window_seconds, cluster_id
		FROM subjects
		WHERE id = $1`,
		id,
	)
	s, err := scanSubject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "subject not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to find subject", err)
	}
	return s, nil
}

// LockForUpdate takes row locks in id order so concurrent admissions touching
// the same subjects serialize instead of deadlocking.
func (r *SubjectRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]*subject.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.dbtx.Query(ctx, `
		SELECT id, name, capacity, exclusive, approval_window_seconds, cluster_id
		FROM subjects
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`,
		ids,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to lock subjects", err)
	}
	defer rows.Close()

	subjects := make([]*subject.Subject, 0, len(ids))
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan subject", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read subjects", err)
	}
	return subjects, nil
}

func (r *SubjectRepository) UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) error {
	tag, err := r.dbtx.Exec(ctx, `UPDATE subjects SET capacity = $2 WHERE id = $1`, id, capacity)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to update capacity", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindNotFound, "subject not found", nil)
	}
	return nil
}

func scanSubject(row pgx.Row) (*subject.Subject, error) {
	var (
		id                    uuid.UUID
		name                  string
		capacity              int
		exclusive             bool
		approvalWindowSeconds *int64
		clusterID             *uuid.UUID
	)
	if err := row.Scan(&id, &name, &capacity, &exclusive, &approvalWindowSeconds, &clusterID); err != nil {
		return nil, err
	}

	var approvalWindow *time.Duration
	if approvalWindowSeconds != nil {
		w := time.Duration(*approvalWindowSeconds) * time.Second
		approvalWindow = &w
	}
	return subject.Reconstruct(id, name, capacity, exclusive, approvalWindow, clusterID), nil
}
