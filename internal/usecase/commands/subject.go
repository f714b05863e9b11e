package commands

import (
	"context"
	"time"

	"kitabu/internal/domain/cluster"
	"kitabu/internal/domain/subject"
	"kitabu/internal/domain/validator"
	"kitabu/internal/pkg/clock"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreateSubjectParams struct {
	Name           string
	Capacity       int
	Exclusive      bool
	ApprovalWindow *time.Duration
	ClusterID      *uuid.UUID
}

type CreateValidatorParams struct {
	Kind       validator.Kind
	Params     []byte
	ApplyToAll bool
}

type SubjectCommands interface {
	CreateSubject(ctx context.Context, params CreateSubjectParams) (*subject.Subject, error)
	// ResizeSubject changes a subject's capacity and cascades the new size
	// to its currently-valid exclusive reservations.
	ResizeSubject(ctx context.Context, subjectID uuid.UUID, capacity int) (*subject.Subject, error)
	CreateValidator(ctx context.Context, params CreateValidatorParams) (uuid.UUID, error)
	AttachValidator(ctx context.Context, subjectID, validatorID uuid.UUID) error
	CreateCluster(ctx context.Context, name string, ownerID *uuid.UUID) (*cluster.Cluster, error)
}

type subjectCommandsImpl struct {
	uow      shared.UnitOfWork
	clock    clock.Clock
	registry *validator.Registry
}

func NewSubjectCommands(uow shared.UnitOfWork, clk clock.Clock, registry *validator.Registry) SubjectCommands {
	return &subjectCommandsImpl{uow: uow, clock: clk, registry: registry}
}

func (c *subjectCommandsImpl) CreateSubject(ctx context.Context, params CreateSubjectParams) (*subject.Subject, error) {
	var subj *subject.Subject
	var err error
	if params.Exclusive {
		subj, err = subject.NewExclusive(params.Name, params.Capacity, params.ClusterID)
	} else {
		subj, err = subject.New(params.Name, params.Capacity, params.ApprovalWindow, params.ClusterID)
	}
	if err != nil {
		return nil, err
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Subjects().Create(ctx, subj)
	})
	if err != nil {
		return nil, err
	}
	return subj, nil
}

func (c *subjectCommandsImpl) ResizeSubject(ctx context.Context, subjectID uuid.UUID, capacity int) (*subject.Subject, error) {
	var subj *subject.Subject

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		locked, err := tx.Subjects().LockForUpdate(ctx, []uuid.UUID{subjectID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrSubjectNotFound
		}

		subj = locked[0]
		if err := subj.Resize(capacity); err != nil {
			return err
		}
		if err := tx.Subjects().UpdateCapacity(ctx, subjectID, capacity); err != nil {
			return err
		}

		// An exclusive reservation fills its subject by definition, even
		// retroactively.
		_, err = tx.Reservations().ResizeValidExclusive(ctx, subjectID, capacity, c.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return subj, nil
}

// CreateValidator records a validator variant. Decoding up front rejects
// unknown kinds, malformed params and unregistered static predicates before
// anything is stored.
func (c *subjectCommandsImpl) CreateValidator(ctx context.Context, params CreateValidatorParams) (uuid.UUID, error) {
	if _, err := validator.Decode(params.Kind, params.Params, c.registry); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Validators().Create(ctx, id, params.Kind, params.Params, params.ApplyToAll)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (c *subjectCommandsImpl) AttachValidator(ctx context.Context, subjectID, validatorID uuid.UUID) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Validators().Attach(ctx, subjectID, validatorID)
	})
}

func (c *subjectCommandsImpl) CreateCluster(ctx context.Context, name string, ownerID *uuid.UUID) (*cluster.Cluster, error) {
	cl := cluster.New(name, ownerID)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Clusters().Create(ctx, cl)
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}
