package memory

import (
	"context"
	"maps"
	"sync"

	"digital-store/internal/domain/inventory"
	"digital-store/internal/domain/job"
	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/domain/referral"
	"digital-store/internal/domain/user"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type eventKey struct {
	gateway string
	eventID string
}

type rewardKey struct {
	orderID    uuid.UUID
	referrerID int64
}

type jobKey struct {
	orderID uuid.UUID
	kind    job.Kind
}

type tables struct {
	orders       map[uuid.UUID]*order.Order
	stock        map[int64]*inventory.Stock
	reservations map[uuid.UUID]*inventory.Reservation
	events       map[eventKey]*payment.Event
	edges        map[int64]*referral.Edge
	rewards      map[rewardKey]*referral.Reward
	users        map[int64]*user.User
	jobs         map[uuid.UUID]*job.Job
	jobIndex     map[jobKey]uuid.UUID
}

func newTables() tables {
	return tables{
		orders:       make(map[uuid.UUID]*order.Order),
		stock:        make(map[int64]*inventory.Stock),
		reservations: make(map[uuid.UUID]*inventory.Reservation),
		events:       make(map[eventKey]*payment.Event),
		edges:        make(map[int64]*referral.Edge),
		rewards:      make(map[rewardKey]*referral.Reward),
		users:        make(map[int64]*user.User),
		jobs:         make(map[uuid.UUID]*job.Job),
		jobIndex:     make(map[jobKey]uuid.UUID),
	}
}

// snapshot copies the maps only. Rows are never mutated in place, every write
// stores a fresh clone, so sharing row pointers with the snapshot is safe.
func (t tables) snapshot() tables {
	return tables{
		orders:       maps.Clone(t.orders),
		stock:        maps.Clone(t.stock),
		reservations: maps.Clone(t.reservations),
		events:       maps.Clone(t.events),
		edges:        maps.Clone(t.edges),
		rewards:      maps.Clone(t.rewards),
		users:        maps.Clone(t.users),
		jobs:         maps.Clone(t.jobs),
		jobIndex:     maps.Clone(t.jobIndex),
	}
}

// Store is an in-process implementation of shared.UnitOfWork. Transactions are
// serialized by a single mutex and rolled back by restoring a snapshot, which
// gives the same visible guarantees as the postgres store at a smaller scale.
type Store struct {
	mu sync.Mutex
	t  tables
}

func NewStore() *Store {
	return &Store{t: newTables()}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.t.snapshot()
	if err := fn(ctx, &memTx{t: &s.t}); err != nil {
		s.t = before
		return err
	}
	return nil
}

func (s *Store) WithDB(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &memTx{t: &s.t})
}

type memTx struct {
	t *tables
}

func (tx *memTx) Orders() shared.OrderRepository             { return &orderRepo{t: tx.t} }
func (tx *memTx) Stock() shared.StockRepository              { return &stockRepo{t: tx.t} }
func (tx *memTx) Reservations() shared.ReservationRepository { return &reservationRepo{t: tx.t} }
func (tx *memTx) PaymentEvents() shared.PaymentEventRepository {
	return &paymentEventRepo{t: tx.t}
}
func (tx *memTx) Referrals() shared.ReferralRepository { return &referralRepo{t: tx.t} }
func (tx *memTx) Rewards() shared.RewardRepository     { return &rewardRepo{t: tx.t} }
func (tx *memTx) Users() shared.UserRepository         { return &userRepo{t: tx.t} }
func (tx *memTx) Jobs() shared.JobRepository           { return &jobRepo{t: tx.t} }

// clone is a shallow field copy. Decimal and time values are immutable and
// pointer fields are always replaced rather than written through.
func clone[T any](src *T) *T {
	if src == nil {
		return nil
	}
	dst := new(T)
	if err := copier.Copy(dst, src); err != nil {
		panic("memory: clone failed: " + err.Error())
	}
	return dst
}

func cloneAll[T any](src []*T) []*T {
	out := make([]*T, 0, len(src))
	for _, v := range src {
		out = append(out, clone(v))
	}
	return out
}
