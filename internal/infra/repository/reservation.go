package repository

import (
	"context"
	"time"

	"digital-store/internal/domain/inventory"
	"digital-store/internal/infra"
	"digital-store/internal/infra/db"

	"github.com/google/uuid"
)

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(db db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *inventory.Reservation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inventory_reservations (order_id, product_id, quantity, unlimited, state, reserved_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.OrderID, res.ProductID, res.Quantity, res.Unlimited, string(res.State), res.ReservedAt, res.UpdatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) Get(ctx context.Context, orderID uuid.UUID) (*inventory.Reservation, error) {
	var (
		res   inventory.Reservation
		state string
	)
	err := r.db.QueryRow(ctx, `
		SELECT order_id, product_id, quantity, unlimited, state, reserved_at, updated_at
		FROM inventory_reservations WHERE order_id = $1`, orderID,
	).Scan(&res.OrderID, &res.ProductID, &res.Quantity, &res.Unlimited, &state, &res.ReservedAt, &res.UpdatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get reservation", err)
	}
	res.State = inventory.State(state)
	res.ReservedAt = res.ReservedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()
	return &res, nil
}

// The state guard in the WHERE clause makes concurrent releases race on the row
// lock; the loser sees zero affected rows.
func (r *ReservationRepository) Transition(ctx context.Context, orderID uuid.UUID, from, to inventory.State, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE inventory_reservations SET state = $3, updated_at = $4
		WHERE order_id = $1 AND state = $2`, orderID, string(from), string(to), now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to transition reservation", err)
	}
	return tag.RowsAffected() == 1, nil
}
