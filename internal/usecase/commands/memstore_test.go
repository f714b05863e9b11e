//go:build unit

package commands_test

import (
	"context"
	"sync"
	"time"

	"kitabu/internal/domain/cluster"
	"kitabu/internal/domain/owner"
	"kitabu/internal/domain/reservation"
	"kitabu/internal/domain/subject"
	"kitabu/internal/domain/validator"
	"kitabu/internal/infra"
	"kitabu/internal/pkg/clock"
	"kitabu/internal/usecase/shared"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the persistence layer. Row locking
// is modeled with one mutex per subject, acquired in the order the caller
// lists ids and held until the transaction finishes, so lock-ordering
// behavior matches the store it replaces.
type memStore struct {
	mu sync.Mutex

	subjects     map[uuid.UUID]*subject.Subject
	reservations map[uuid.UUID]*reservation.Reservation
	groups       map[uuid.UUID]*reservation.Group
	clusters     map[uuid.UUID]*cluster.Cluster
	owners       map[uuid.UUID]*owner.Owner
	ownerByEmail map[string]uuid.UUID

	validators  map[uuid.UUID]memValidator
	attachments map[uuid.UUID][]uuid.UUID

	subjectLocks map[uuid.UUID]*sync.Mutex
	nextSeq      int

	registry *validator.Registry
	clock    clock.Clock
}

type memValidator struct {
	kind       validator.Kind
	params     []byte
	applyToAll bool
	seq        int
}

func newMemStore(registry *validator.Registry, clk clock.Clock) *memStore {
	return &memStore{
		subjects:     make(map[uuid.UUID]*subject.Subject),
		reservations: make(map[uuid.UUID]*reservation.Reservation),
		groups:       make(map[uuid.UUID]*reservation.Group),
		clusters:     make(map[uuid.UUID]*cluster.Cluster),
		owners:       make(map[uuid.UUID]*owner.Owner),
		ownerByEmail: make(map[string]uuid.UUID),
		validators:   make(map[uuid.UUID]memValidator),
		attachments:  make(map[uuid.UUID][]uuid.UUID),
		subjectLocks: make(map[uuid.UUID]*sync.Mutex),
		registry:     registry,
		clock:        clk,
	}
}

func (s *memStore) seedSubject(subj *subject.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subj.ID()] = subj
}

func (s *memStore) seedReservation(res *reservation.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[res.ID()] = res
}

func (s *memStore) seedOwner(o *owner.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[o.ID()] = o
	s.ownerByEmail[o.Email()] = o.ID()
}

func (s *memStore) reservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

func (s *memStore) groupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

func (s *memStore) validatorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.validators)
}

func (s *memStore) subjectReservations(subjectID uuid.UUID) []*reservation.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reservation.Reservation
	for _, r := range s.reservations {
		if r.SubjectID() == subjectID {
			out = append(out, r)
		}
	}
	return out
}

type memUoW struct {
	store *memStore
}

func newMemUoW(store *memStore) shared.UnitOfWork {
	return &memUoW{store: store}
}

func (u *memUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	tx := &memTx{store: u.store}
	err := fn(ctx, tx)
	if err != nil {
		tx.rollback()
	}
	tx.releaseLocks()
	return err
}

type memTx struct {
	store  *memStore
	undo   []func()
	locked []*sync.Mutex
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) releaseLocks() {
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.locked[i].Unlock()
	}
	t.locked = nil
}

func (t *memTx) Subjects() shared.SubjectRepository         { return &memSubjectRepo{t} }
func (t *memTx) Reservations() shared.ReservationRepository { return &memReservationRepo{t} }
func (t *memTx) Groups() shared.GroupRepository             { return &memGroupRepo{t} }
func (t *memTx) Validators() shared.ValidatorRepository     { return &memValidatorRepo{t} }
func (t *memTx) Clusters() shared.ClusterRepository         { return &memClusterRepo{t} }
func (t *memTx) Owners() shared.OwnerRepository             { return &memOwnerRepo{t} }

type memSubjectRepo struct{ tx *memTx }

func (r *memSubjectRepo) Create(_ context.Context, subj *subject.Subject) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subj.ID()] = subj
	id := subj.ID()
	r.tx.undo = append(r.tx.undo, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subjects, id)
	})
	return nil
}

func (r *memSubjectRepo) FindByID(_ context.Context, id uuid.UUID) (*subject.Subject, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	subj, ok := s.subjects[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "subject not found", nil)
	}
	return copySubject(subj), nil
}

func (r *memSubjectRepo) LockForUpdate(_ context.Context, ids []uuid.UUID) ([]*subject.Subject, error) {
	s := r.tx.store

	locks := make([]*sync.Mutex, 0, len(ids))
	s.mu.Lock()
	for _, id := range ids {
		mu, ok := s.subjectLocks[id]
		if !ok {
			mu = &sync.Mutex{}
			s.subjectLocks[id] = mu
		}
		locks = append(locks, mu)
	}
	s.mu.Unlock()

	// Block on each row lock in the caller's order, outside the store mutex.
	for _, mu := range locks {
		mu.Lock()
		r.tx.locked = append(r.tx.locked, mu)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	found := make([]*subject.Subject, 0, len(ids))
	for _, id := range ids {
		if subj, ok := s.subjects[id]; ok {
			found = append(found, copySubject(subj))
		}
	}
	return found, nil
}

func (r *memSubjectRepo) UpdateCapacity(_ context.Context, id uuid.UUID, capacity int) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	subj, ok := s.subjects[id]
	if !ok {
		return infra.WrapRepoErr(infra.KindNotFound, "subject not found", nil)
	}
	previous := subj.Capacity()
	if err := subj.Resize(capacity); err != nil {
		return err
	}
	r.tx.undo = append(r.tx.undo, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_ = subj.Resize(previous)
	})
	return nil
}

func copySubject(subj *subject.Subject) *subject.Subject {
	return subject.Reconstruct(
		subj.ID(), subj.Name(), subj.Capacity(), subj.Exclusive(),
		subj.ApprovalWindow(), subj.ClusterID(),
	)
}

type memReservationRepo struct{ tx *memTx }

func (r *memReservationRepo) Create(_ context.Context, res *reservation.Reservation) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[res.ID()] = res
	id := res.ID()
	r.tx.undo = append(r.tx.undo, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.reservations, id)
	})
	return nil
}

func (r *memReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "reservation not found", nil)
	}
	return copyReservation(res), nil
}

func (r *memReservationRepo) OverlappingValid(_ context.Context, subjectID uuid.UUID, start, end, now time.Time) ([]*reservation.Reservation, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reservation.Reservation
	for _, res := range s.reservations {
		if res.SubjectID() != subjectID || !res.IsValid(now) {
			continue
		}
		if res.Span().Start().Before(end) && res.Span().End().After(start) {
			out = append(out, copyReservation(res))
		}
	}
	return out, nil
}

func (r *memReservationRepo) SetApproved(_ context.Context, id uuid.UUID) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return infra.WrapRepoErr(infra.KindNotFound, "reservation not found", nil)
	}
	res.WithApproval(true, res.ValidUntil())
	return nil
}

func (r *memReservationRepo) ResizeValidExclusive(_ context.Context, subjectID uuid.UUID, size int, now time.Time) (int64, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for _, res := range s.reservations {
		if res.SubjectID() != subjectID || !res.Exclusive() || !res.IsValid(now) {
			continue
		}
		if err := res.Resize(size); err != nil {
			return affected, err
		}
		affected++
	}
	return affected, nil
}

func (r *memReservationRepo) CountValidBySubjectAndOwner(_ context.Context, subjectID, ownerID uuid.UUID) (int, error) {
	s := r.tx.store
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, res := range s.reservations {
		if res.SubjectID() == subjectID && res.OwnerID() != nil && *res.OwnerID() == ownerID && res.IsValid(now) {
			count++
		}
	}
	return count, nil
}

func (r *memReservationRepo) CountValidByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	s := r.tx.store
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, res := range s.reservations {
		if res.OwnerID() != nil && *res.OwnerID() == ownerID && res.IsValid(now) {
			count++
		}
	}
	return count, nil
}

func copyReservation(res *reservation.Reservation) *reservation.Reservation {
	return reservation.Reconstruct(
		res.ID(), res.SubjectID(), res.OwnerID(), res.Span(), res.Size(),
		res.Exclusive(), res.GroupID(), res.Approved(), res.ValidUntil(),
		res.CreatedAt(),
	)
}

type memGroupRepo struct{ tx *memTx }

func (r *memGroupRepo) Create(_ context.Context, g *reservation.Group) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID()] = g
	id := g.ID()
	r.tx.undo = append(r.tx.undo, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.groups, id)
	})
	return nil
}

type memClusterRepo struct{ tx *memTx }

func (r *memClusterRepo) Create(_ context.Context, c *cluster.Cluster) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters[c.ID()] = c
	return nil
}

type memValidatorRepo struct{ tx *memTx }

func (r *memValidatorRepo) Create(_ context.Context, id uuid.UUID, kind validator.Kind, params []byte, applyToAll bool) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.validators[id] = memValidator{kind: kind, params: params, applyToAll: applyToAll, seq: s.nextSeq}
	return nil
}

func (r *memValidatorRepo) Attach(_ context.Context, subjectID, validatorID uuid.UUID) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subjectID]; !ok {
		return infra.WrapRepoErr(infra.KindForeignKeyViolated, "subject not found", nil)
	}
	if _, ok := s.validators[validatorID]; !ok {
		return infra.WrapRepoErr(infra.KindForeignKeyViolated, "validator not found", nil)
	}
	for _, attached := range s.attachments[subjectID] {
		if attached == validatorID {
			return infra.WrapRepoErr(infra.KindDuplicateKey, "validator already attached", nil)
		}
	}
	s.attachments[subjectID] = append(s.attachments[subjectID], validatorID)
	return nil
}

func (r *memValidatorRepo) ChainForSubject(_ context.Context, subjectID uuid.UUID) (validator.Chain, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := append([]uuid.UUID(nil), s.attachments[subjectID]...)
	attached := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		attached[id] = struct{}{}
	}
	var universal []uuid.UUID
	for id, v := range s.validators {
		if _, ok := attached[id]; ok {
			continue
		}
		if v.applyToAll {
			universal = append(universal, id)
		}
	}
	for i := 0; i < len(universal); i++ {
		for j := i + 1; j < len(universal); j++ {
			if s.validators[universal[j]].seq < s.validators[universal[i]].seq {
				universal[i], universal[j] = universal[j], universal[i]
			}
		}
	}
	ids = append(ids, universal...)

	rules := make([]validator.Rule, 0, len(ids))
	for _, id := range ids {
		v := s.validators[id]
		rule, err := validator.Decode(v.kind, v.params, s.registry)
		if err != nil {
			return validator.Chain{}, err
		}
		rules = append(rules, rule)
	}
	return validator.NewChain(rules...), nil
}

type memOwnerRepo struct{ tx *memTx }

func (r *memOwnerRepo) Create(_ context.Context, o *owner.Owner) error {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.ownerByEmail[o.Email()]; taken {
		return infra.WrapRepoErr(infra.KindDuplicateKey, "email already registered", nil)
	}
	s.owners[o.ID()] = o
	s.ownerByEmail[o.Email()] = o.ID()
	return nil
}

func (r *memOwnerRepo) FindByID(_ context.Context, id uuid.UUID) (*owner.Owner, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "owner not found", nil)
	}
	return o, nil
}

func (r *memOwnerRepo) FindByEmail(_ context.Context, email string) (*owner.Owner, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ownerByEmail[email]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "owner not found", nil)
	}
	return s.owners[id], nil
}
