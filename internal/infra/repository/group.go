package repository

import (
	"context"

	"kitabu/internal/domain/cluster"
	"kitabu/internal/domain/reservation"
	"kitabu/internal/infra/db"
	"kitabu/internal/usecase/shared"
)

type GroupRepository struct {
	dbtx db.DBTX
}

func NewGroupRepository(dbtx db.DBTX) shared.GroupRepository {
	return &GroupRepository{dbtx: dbtx}
}

func (r *GroupRepository) Create(ctx context.Context, g *reservation.Group) error {
	_, err := r.dbtx.Exec(ctx,
		`INSERT INTO reservation_groups (id, created_at) VALUES ($1, now())`,
		g.ID(),
	)
	if err != nil {
		return classifyPgError(err, "failed to create reservation group")
	}
	return nil
}

type ClusterRepository struct {
	dbtx db.DBTX
}

func NewClusterRepository(dbtx db.DBTX) shared.ClusterRepository {
	return &ClusterRepository{dbtx: dbtx}
}

func (r *ClusterRepository) Create(ctx context.Context, c *cluster.Cluster) error {
	_, err := r.dbtx.Exec(ctx,
		`INSERT INTO clusters (id, name, owner_id, created_at) VALUES ($1, $2, $3, now())`,
		c.ID(), c.Name(), c.OwnerID(),
	)
	if err != nil {
		return classifyPgError(err, "failed to create cluster")
	}
	return nil
}
