package subject

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCapacity   = errors.New("subject capacity must be positive")
	ErrCapacityKindFixed = errors.New("capacity kind of a subject cannot change")
)

// Subject is a reservable resource. Its capacity descriptor is immutable in
// kind: an exclusive subject stays exclusive, a finite-capacity subject
// stays finite, though a finite subject's numeric capacity may change over
// its lifetime.
type Subject struct {
	id             uuid.UUID
	name           string
	capacity       int
	exclusive      bool
	approvalWindow *time.Duration
	clusterID      *uuid.UUID
}

// New creates a finite-capacity subject. An approvalWindow makes new
// reservations start unapproved with validUntil = now + window.
func New(name string, capacity int, approvalWindow *time.Duration, clusterID *uuid.UUID) (*Subject, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Subject{
		id:             uuid.New(),
		name:           name,
		capacity:       capacity,
		approvalWindow: approvalWindow,
		clusterID:      clusterID,
	}, nil
}

// NewExclusive creates a subject that admits at most one occupant at a time.
// Its reservations always fill the whole capacity.
func NewExclusive(name string, capacity int, clusterID *uuid.UUID) (*Subject, error) {
	s, err := New(name, capacity, nil, clusterID)
	if err != nil {
		return nil, err
	}
	s.exclusive = true
	return s, nil
}

func Reconstruct(
	id uuid.UUID,
	name string,
	capacity int,
	exclusive bool,
	approvalWindow *time.Duration,
	clusterID *uuid.UUID,
) *Subject {
	return &Subject{
		id:             id,
		name:           name,
		capacity:       capacity,
		exclusive:      exclusive,
		approvalWindow: approvalWindow,
		clusterID:      clusterID,
	}
}

// Resize changes the numeric capacity of a finite subject. The caller is
// responsible for cascading the new size to valid exclusive reservations.
func (s *Subject) Resize(capacity int) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	s.capacity = capacity
	return nil
}

func (s *Subject) ID() uuid.UUID                  { return s.id }
func (s *Subject) Name() string                   { return s.name }
func (s *Subject) Capacity() int                  { return s.capacity }
func (s *Subject) Exclusive() bool                { return s.exclusive }
func (s *Subject) ApprovalWindow() *time.Duration { return s.approvalWindow }
func (s *Subject) ClusterID() *uuid.UUID          { return s.clusterID }

// RequiresApproval reports whether reservations on this subject are born
// unapproved with an expiry.
func (s *Subject) RequiresApproval() bool { return s.approvalWindow != nil }
