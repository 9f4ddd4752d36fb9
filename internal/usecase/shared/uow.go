package shared

import (
	"context"
	"time"

	"digital-store/internal/domain/inventory"
	"digital-store/internal/domain/job"
	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/domain/referral"
	"digital-store/internal/domain/user"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes repositories bound to one transaction (or to the pool under WithDB).
type Tx interface {
	Orders() OrderRepository
	Stock() StockRepository
	Reservations() ReservationRepository
	PaymentEvents() PaymentEventRepository
	Referrals() ReferralRepository
	Rewards() RewardRepository
	Users() UserRepository
	Jobs() JobRepository
}

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	Get(ctx context.Context, id uuid.UUID) (*order.Order, error)
	// Update writes every mutable column and bumps the version, only if the stored
	// version still equals expectedVersion. A mismatch is a KindConflict error.
	Update(ctx context.Context, o *order.Order, expectedVersion int64) error
	ListByStatus(ctx context.Context, status order.Status, limit, offset int) ([]*order.Order, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*order.Order, error)
	CountByStatus(ctx context.Context) (map[order.Status]int64, error)
}

type StockRepository interface {
	Get(ctx context.Context, productID int64) (*inventory.Stock, error)
	// CompareAndSwap stores s when the row is still at expectedVersion and reports whether it did.
	CompareAndSwap(ctx context.Context, s *inventory.Stock, expectedVersion int64) (bool, error)
	// Seed inserts a counter for a finite-stock product unless one already exists.
	Seed(ctx context.Context, productID int64, total int, now time.Time) (bool, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *inventory.Reservation) error
	Get(ctx context.Context, orderID uuid.UUID) (*inventory.Reservation, error)
	// Transition moves the reservation from one state to another and reports
	// whether this call performed the move.
	Transition(ctx context.Context, orderID uuid.UUID, from, to inventory.State, now time.Time) (bool, error)
}

type PaymentEventRepository interface {
	// Insert reports false when (gateway, event id) is already recorded.
	Insert(ctx context.Context, e *payment.Event) (bool, error)
	Get(ctx context.Context, gateway, eventID string) (*payment.Event, error)
	// ClaimReceived locks the event while its outcome is still "received".
	// Any other outcome is reported as KindNotFound.
	ClaimReceived(ctx context.Context, gateway, eventID string) (*payment.Event, error)
	Complete(ctx context.Context, gateway, eventID string, outcome payment.Outcome, resultStatus string, now time.Time) error
	ListStale(ctx context.Context, receivedBefore time.Time, limit int) ([]*payment.Event, error)
	ListByOutcome(ctx context.Context, outcome payment.Outcome, limit, offset int) ([]*payment.Event, error)
}

type ReferralRepository interface {
	GetEdge(ctx context.Context, referredID int64) (*referral.Edge, error)
	CreateEdge(ctx context.Context, e *referral.Edge) error
}

type RewardRepository interface {
	// Insert reports false when the (order, referrer) reward already exists.
	Insert(ctx context.Context, r *referral.Reward) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*referral.Reward, error)
}

type UserRepository interface {
	Get(ctx context.Context, id int64) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
	SetBanned(ctx context.Context, id int64, banned bool, now time.Time) error
}

type JobRepository interface {
	// Enqueue reports false when the (order, kind) job already exists.
	Enqueue(ctx context.Context, j *job.Job) (bool, error)
	Get(ctx context.Context, orderID uuid.UUID, kind job.Kind) (*job.Job, error)
	// ClaimDue leases due jobs (queued, or running with an expired lease) and
	// counts the attempt.
	ClaimDue(ctx context.Context, now, leaseUntil time.Time, limit int) ([]*job.Job, error)
	MarkDone(ctx context.Context, id uuid.UUID, now time.Time) error
	Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastErr string, now time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, now time.Time) error
	// Requeue puts a finished job back in the queue and reports whether it did.
	Requeue(ctx context.Context, orderID uuid.UUID, kind job.Kind, now time.Time) (bool, error)
}
