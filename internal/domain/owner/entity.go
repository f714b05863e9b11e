package owner

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidRole  = errors.New("invalid role")
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func NewRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleMember:
		return Role(value), nil
	default:
		return "", ErrInvalidRole
	}
}

// Owner is the party a reservation is held for. The reservation core only
// ever sees its id; everything else exists for authentication.
type Owner struct {
	id           uuid.UUID
	email        string
	passwordHash string
	role         Role
	isActive     bool
	createdAt    time.Time
}

func New(email, passwordHash string, role Role) (*Owner, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	return &Owner{
		id:           uuid.New(),
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		isActive:     true,
	}, nil
}

func Reconstruct(id uuid.UUID, email, passwordHash string, role Role, isActive bool, createdAt time.Time) *Owner {
	return &Owner{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		isActive:     isActive,
		createdAt:    createdAt,
	}
}

func (o *Owner) ID() uuid.UUID        { return o.id }
func (o *Owner) Email() string        { return o.email }
func (o *Owner) PasswordHash() string { return o.passwordHash }
func (o *Owner) Role() Role           { return o.role }
func (o *Owner) IsActive() bool       { return o.isActive }
func (o *Owner) CreatedAt() time.Time { return o.createdAt }
