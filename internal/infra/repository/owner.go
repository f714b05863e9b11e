package repository

import (
	"context"
	"errors"
	"time"

	"kitabu/internal/domain/owner"
	"kitabu/internal/infra"
	"kitabu/internal/infra/db"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OwnerRepository struct {
	dbtx db.DBTX
}

func NewOwnerRepository(dbtx db.DBTX) shared.OwnerRepository {
	return &OwnerRepository{dbtx: dbtx}
}

func (r *OwnerRepository) Create(ctx context.Context, o *owner.Owner) error {
	_, err := r.dbtx.Exec(ctx, `
		INSERT INTO owners (id, email, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		o.ID(), o.Email(), o.PasswordHash(), string(o.Role()), o.IsActive(),
	)
	if err != nil {
		return classifyPgError(err, "failed to create owner")
	}
	return nil
}

func (r *OwnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*owner.Owner, error) {
	return r.findBy(ctx, `WHERE id = $1`, id)
}

func (r *OwnerRepository) FindByEmail(ctx context.Context, email string) (*owner.Owner, error) {
	return r.findBy(ctx, `WHERE email = $1`, email)
}

func (r *OwnerRepository) findBy(ctx context.Context, where string, arg any) (*owner.Owner, error) {
	row := r.dbtx.QueryRow(ctx, `
		SELECT id, email, password_hash, role, is_active, created_at
		FROM owners `+where,
		arg,
	)

	var (
		id           uuid.UUID
		email        string
		passwordHash string
		role         string
		isActive     bool
		createdAt    time.Time
	)
	if err := row.Scan(&id, &email, &passwordHash, &role, &isActive, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "owner not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to find owner", err)
	}
	return owner.Reconstruct(id, email, passwordHash, owner.Role(role), isActive, createdAt), nil
}
