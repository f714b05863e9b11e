package commands

import (
	"context"
	"sort"
	"time"

	"kitabu/internal/domain/reservation"
	"kitabu/internal/domain/subject"
	"kitabu/internal/domain/validator"
	"kitabu/internal/infra"
	"kitabu/internal/pkg/clock"
	"kitabu/internal/pkg/errs"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
)

// ReserveParams describes one requested occupancy. Size zero defaults to
// one unit; exclusive requests must leave it zero. At most one of Approved,
// ValidUntil and ValidityPeriod may be set.
type ReserveParams struct {
	SubjectID      uuid.UUID
	OwnerID        *uuid.UUID
	Start          time.Time
	End            time.Time
	Size           int
	Exclusive      bool
	Approved       *bool
	ValidUntil     *time.Time
	ValidityPeriod *time.Duration
}

// GroupResult is the outcome of an all-or-nothing multi-subject reserve.
type GroupResult struct {
	Group        *reservation.Group
	Reservations []*reservation.Reservation
}

type ReservationCommands interface {
	Reserve(ctx context.Context, params ReserveParams) (*reservation.Reservation, error)
	ReserveGroup(ctx context.Context, requests []ReserveParams) (*GroupResult, error)
	Approve(ctx context.Context, reservationID uuid.UUID) (*reservation.Reservation, error)
}

type reservationCommandsImpl struct {
	uow      shared.UnitOfWork
	clock    clock.Clock
	registry *validator.Registry

	// groupDelay widens the race window between the individual admissions
	// of a group reserve; only the isolation tests set it.
	groupDelay time.Duration
}

func NewReservationCommands(uow shared.UnitOfWork, clk clock.Clock, registry *validator.Registry, groupDelay time.Duration) ReservationCommands {
	return &reservationCommandsImpl{
		uow:        uow,
		clock:      clk,
		registry:   registry,
		groupDelay: groupDelay,
	}
}

// Reserve admits a single reservation inside one transaction: lock the
// subject row, run the validator chain, sweep existing valid reservations
// for capacity or overlap, then persist. Nothing is written until every
// check has passed.
func (c *reservationCommandsImpl) Reserve(ctx context.Context, params ReserveParams) (*reservation.Reservation, error) {
	var result *reservation.Reservation

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		locked, err := tx.Subjects().LockForUpdate(ctx, []uuid.UUID{params.SubjectID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrSubjectNotFound
		}

		result, err = c.admitOne(ctx, tx, locked[0], params, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReserveGroup admits several reservations as one unit. All distinct
// subject rows are locked up front, in stable order, before any admission
// is evaluated; any failure rolls the whole transaction back.
func (c *reservationCommandsImpl) ReserveGroup(ctx context.Context, requests []ReserveParams) (*GroupResult, error) {
	if len(requests) == 0 {
		return nil, errs.New("group reserve requires at least one request")
	}

	var result *GroupResult

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		subjects, err := c.lockGroupSubjects(ctx, tx, requests)
		if err != nil {
			return err
		}

		group := reservation.NewGroup()
		if err := tx.Groups().Create(ctx, group); err != nil {
			return err
		}

		reservations := make([]*reservation.Reservation, 0, len(requests))
		for i, req := range requests {
			if i > 0 && c.groupDelay > 0 {
				time.Sleep(c.groupDelay)
			}

			groupID := group.ID()
			res, err := c.admitOne(ctx, tx, subjects[req.SubjectID], req, &groupID)
			if err != nil {
				return &AtomicReserveError{Cause: err}
			}
			reservations = append(reservations, res)
		}

		result = &GroupResult{Group: group, Reservations: reservations}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockGroupSubjects deduplicates and sorts the subject ids before locking,
// so two group reservations touching overlapping subject sets always
// acquire locks in the same order.
func (c *reservationCommandsImpl) lockGroupSubjects(ctx context.Context, tx shared.Tx, requests []ReserveParams) (map[uuid.UUID]*subject.Subject, error) {
	seen := make(map[uuid.UUID]struct{}, len(requests))
	ids := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		if _, dup := seen[req.SubjectID]; dup {
			continue
		}
		seen[req.SubjectID] = struct{}{}
		ids = append(ids, req.SubjectID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	locked, err := tx.Subjects().LockForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(locked) != len(ids) {
		return nil, ErrSubjectNotFound
	}

	byID := make(map[uuid.UUID]*subject.Subject, len(locked))
	for _, s := range locked {
		byID[s.ID()] = s
	}
	return byID, nil
}

func (c *reservationCommandsImpl) admitOne(
	ctx context.Context,
	tx shared.Tx,
	subj *subject.Subject,
	params ReserveParams,
	groupID *uuid.UUID,
) (*reservation.Reservation, error) {
	span, err := reservation.NewSpan(params.Start, params.End)
	if err != nil {
		return nil, err
	}

	exclusive := subj.Exclusive() || params.Exclusive
	size := params.Size
	if exclusive {
		if params.Size != 0 {
			return nil, ErrExclusiveSizeFixed
		}
		size = subj.Capacity()
	} else if size == 0 {
		size = 1
	}
	if size <= 0 {
		return nil, reservation.ErrNonPositiveSize
	}

	now := c.clock.Now()

	chain, err := tx.Validators().ChainForSubject(ctx, subj.ID())
	if err != nil {
		return nil, err
	}
	candidate := validator.Candidate{
		SubjectID: subj.ID(),
		OwnerID:   params.OwnerID,
		Start:     span.Start(),
		End:       span.End(),
		Size:      size,
	}
	env := validator.Env{Clock: c.clock, Usage: tx.Reservations()}
	if err := chain.Validate(ctx, env, candidate); err != nil {
		return nil, err
	}

	existing, err := tx.Reservations().OverlappingValid(ctx, subj.ID(), span.Start(), span.End(), now)
	if err != nil {
		return nil, err
	}

	if err := subject.Admit(subj, existing, subject.AdmissionRequest{
		Span:      span,
		Size:      size,
		Exclusive: params.Exclusive,
	}, now); err != nil {
		return nil, err
	}

	res, err := reservation.New(subj.ID(), params.OwnerID, span, size, exclusive)
	if err != nil {
		return nil, err
	}

	approved, validUntil, err := c.approvalState(subj, params, now)
	if err != nil {
		return nil, err
	}
	res.WithApproval(approved, validUntil)

	if groupID != nil {
		res.AttachToGroup(*groupID)
	}

	if err := tx.Reservations().Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// approvalState resolves the initial approval of a new reservation. A
// subject with an approval window defaults to unapproved with a computed
// expiry; callers may override with exactly one of the approval arguments.
func (c *reservationCommandsImpl) approvalState(subj *subject.Subject, params ReserveParams, now time.Time) (bool, *time.Time, error) {
	supplied := 0
	if params.Approved != nil {
		supplied++
	}
	if params.ValidUntil != nil {
		supplied++
	}
	if params.ValidityPeriod != nil {
		supplied++
	}
	if supplied > 1 {
		return false, nil, ErrConflictingApprovalArgs
	}

	switch {
	case params.Approved != nil:
		return *params.Approved, nil, nil
	case params.ValidUntil != nil:
		return false, params.ValidUntil, nil
	case params.ValidityPeriod != nil:
		until := now.Add(*params.ValidityPeriod)
		return false, &until, nil
	case subj.RequiresApproval():
		until := now.Add(*subj.ApprovalWindow())
		return false, &until, nil
	default:
		return true, nil, nil
	}
}

// Approve flips an unapproved reservation to approved. Expired
// reservations are rejected; they no longer count toward capacity and
// reviving them could overbook the subject.
func (c *reservationCommandsImpl) Approve(ctx context.Context, reservationID uuid.UUID) (*reservation.Reservation, error) {
	var result *reservation.Reservation

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := tx.Reservations().FindByID(ctx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if err := res.Approve(c.clock.Now()); err != nil {
			return err
		}
		if err := tx.Reservations().SetApproved(ctx, reservationID); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
