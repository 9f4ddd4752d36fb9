package memory

import (
	"context"
	"slices"
	"time"

	"digital-store/internal/domain/order"
	"digital-store/internal/infra"

	"github.com/google/uuid"
)

type orderRepo struct {
	t *tables
}

func (r *orderRepo) Create(_ context.Context, o *order.Order) error {
	if _, exists := r.t.orders[o.ID]; exists {
		return infra.NewRepoErr(infra.KindDuplicateKey, "order already exists")
	}
	for _, existing := range r.t.orders {
		if existing.Number == o.Number {
			return infra.NewRepoErr(infra.KindDuplicateKey, "order number already taken")
		}
	}
	r.t.orders[o.ID] = clone(o)
	return nil
}

func (r *orderRepo) Get(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.t.orders[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "order not found")
	}
	return clone(o), nil
}

func (r *orderRepo) Update(_ context.Context, o *order.Order, expectedVersion int64) error {
	stored, ok := r.t.orders[o.ID]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "order not found")
	}
	if stored.Version != expectedVersion {
		return infra.NewRepoErr(infra.KindConflict, "order version changed")
	}
	next := clone(o)
	next.Version = expectedVersion + 1
	r.t.orders[o.ID] = next
	o.Version = next.Version
	return nil
}

func (r *orderRepo) ListByStatus(_ context.Context, status order.Status, limit, offset int) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range r.t.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b *order.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return cloneAll(page(out, limit, offset)), nil
}

func (r *orderRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range r.t.orders {
		if o.IsExpired(now) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b *order.Order) int {
		return a.ExpiresAt.Compare(b.ExpiresAt)
	})
	return cloneAll(page(out, limit, 0)), nil
}

func (r *orderRepo) CountByStatus(_ context.Context) (map[order.Status]int64, error) {
	counts := make(map[order.Status]int64)
	for _, o := range r.t.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
