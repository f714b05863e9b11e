// Package validator implements the pluggable admission rules evaluated
// against candidate reservations. Each persisted validator resolves to
// exactly one concrete variant through its kind discriminator.
package validator

import (
	"context"
	"time"

	"kitabu/internal/pkg/clock"

	"github.com/google/uuid"
)

// Kind discriminates the closed set of validator variants. It is recorded
// at creation time and immutable afterwards.
type Kind string

const (
	KindFullTime               Kind = "full_time"
	KindTimeInterval           Kind = "time_interval"
	KindWithinPeriod           Kind = "within_period"
	KindNotWithinPeriod        Kind = "not_within_period"
	KindPeriodsInWeekdays      Kind = "periods_in_weekdays"
	KindMaxDuration            Kind = "max_duration"
	KindMaxReservationsPerUser Kind = "max_reservations_per_user"
	KindStatic                 Kind = "static"
)

// Candidate is the draft reservation a rule inspects. Rules never mutate it.
type Candidate struct {
	SubjectID uuid.UUID
	OwnerID   *uuid.UUID
	Start     time.Time
	End       time.Time
	Size      int
}

// OwnerUsage counts an owner's currently-valid reservations; the quota rule
// consults it inside the admission transaction.
type OwnerUsage interface {
	CountValidBySubjectAndOwner(ctx context.Context, subjectID, ownerID uuid.UUID) (int, error)
	CountValidByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// Env carries the injected collaborators rules may need.
type Env struct {
	Clock clock.Clock
	Usage OwnerUsage
}

func (e Env) now() time.Time {
	if e.Clock != nil {
		return e.Clock.Now()
	}
	return time.Now()
}

// Rule is one admission constraint. Validate returns nil to accept or a
// typed rejection.
type Rule interface {
	Kind() Kind
	Validate(ctx context.Context, env Env, c Candidate) error
}

// Chain evaluates rules as a logical AND with short-circuit: the first
// failure aborts with its specific error.
type Chain struct {
	rules []Rule
}

func NewChain(rules ...Rule) Chain {
	return Chain{rules: rules}
}

func (ch Chain) Rules() []Rule { return ch.rules }

func (ch Chain) Validate(ctx context.Context, env Env, c Candidate) error {
	for _, r := range ch.rules {
		if err := r.Validate(ctx, env, c); err != nil {
			return err
		}
	}
	return nil
}
