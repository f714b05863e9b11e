package commands

import (
	"context"

	"kitabu/internal/domain/owner"
	"kitabu/internal/infra"
	"kitabu/internal/pkg/errs"
	"kitabu/internal/pkg/jwt"
	"kitabu/internal/pkg/password"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errs.New("invalid credentials")
	ErrOwnerInactive      = errs.New("owner inactive")
	ErrEmailTaken         = errs.New("email already registered")
	ErrTokenGeneration    = errs.New("token generation failed")
)

type RegisterParams struct {
	Email    string
	Password string
	Role     string
}

type LoginResult struct {
	OwnerID uuid.UUID
	Token   string
}

type AuthCommands interface {
	Register(ctx context.Context, params RegisterParams) (*owner.Owner, error)
	Login(ctx context.Context, email, plainPassword string) (*LoginResult, error)
}

type authCommandsImpl struct {
	uow        shared.UnitOfWork
	jwtService *jwt.Service
}

func NewAuthCommands(uow shared.UnitOfWork, jwtService *jwt.Service) AuthCommands {
	return &authCommandsImpl{uow: uow, jwtService: jwtService}
}

func (a *authCommandsImpl) Register(ctx context.Context, params RegisterParams) (*owner.Owner, error) {
	role, err := owner.NewRole(params.Role)
	if err != nil {
		return nil, err
	}

	hashed, err := password.Hash(params.Password)
	if err != nil {
		return nil, errs.Wrap(err, "hash password")
	}

	o, err := owner.New(params.Email, hashed, role)
	if err != nil {
		return nil, err
	}

	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Owners().Create(ctx, o)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return o, nil
}

func (a *authCommandsImpl) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	var o *owner.Owner

	err := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Owners().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		o = found
		return nil
	})
	if err != nil {
		// Same answer as a password mismatch, so callers cannot probe for
		// registered addresses.
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !o.IsActive() {
		return nil, ErrOwnerInactive
	}
	if err := password.Verify(o.PasswordHash(), plainPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := a.jwtService.GenerateToken(o.ID(), string(o.Role()))
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}

	return &LoginResult{OwnerID: o.ID(), Token: token}, nil
}
