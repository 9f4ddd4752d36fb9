package memory

import (
	"context"
	"time"

	"digital-store/internal/domain/inventory"
	"digital-store/internal/infra"

	"github.com/google/uuid"
)

type stockRepo struct {
	t *tables
}

func (r *stockRepo) Get(_ context.Context, productID int64) (*inventory.Stock, error) {
	s, ok := r.t.stock[productID]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "stock not found")
	}
	return clone(s), nil
}

func (r *stockRepo) CompareAndSwap(_ context.Context, s *inventory.Stock, expectedVersion int64) (bool, error) {
	stored, ok := r.t.stock[s.ProductID]
	if !ok {
		return false, infra.NewRepoErr(infra.KindNotFound, "stock not found")
	}
	if stored.Version != expectedVersion {
		return false, nil
	}
	if s.Available < 0 || s.Sold < 0 || s.Available+s.Sold > s.Total {
		return false, infra.NewRepoErr(infra.KindConstraintViolated, "stock counters out of range")
	}
	next := clone(s)
	next.Version = expectedVersion + 1
	r.t.stock[s.ProductID] = next
	s.Version = next.Version
	return true, nil
}

func (r *stockRepo) Seed(_ context.Context, productID int64, total int, now time.Time) (bool, error) {
	if _, ok := r.t.stock[productID]; ok {
		return false, nil
	}
	r.t.stock[productID] = &inventory.Stock{
		ProductID: productID,
		Total:     total,
		Available: total,
		Version:   1,
		UpdatedAt: now,
	}
	return true, nil
}

type reservationRepo struct {
	t *tables
}

func (r *reservationRepo) Create(_ context.Context, res *inventory.Reservation) error {
	if _, exists := r.t.reservations[res.OrderID]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "reservation already exists")
	}
	r.t.reservations[res.OrderID] = clone(res)
	return nil
}

func (r *reservationRepo) Get(_ context.Context, orderID uuid.UUID) (*inventory.Reservation, error) {
	res, ok := r.t.reservations[orderID]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "reservation not found")
	}
	return clone(res), nil
}

func (r *reservationRepo) Transition(_ context.Context, orderID uuid.UUID, from, to inventory.State, now time.Time) (bool, error) {
	res, ok := r.t.reservations[orderID]
	if !ok || res.State != from {
		return false, nil
	}
	next := clone(res)
	next.State = to
	next.UpdatedAt = now
	r.t.reservations[orderID] = next
	return true, nil
}
