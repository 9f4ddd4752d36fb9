package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/domain/inventory"
	"digital-store/internal/infra"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

// Allocator owns the reservation lifecycle and is the only writer of stock
// counters. Every method runs inside the caller's transaction.
type Allocator struct {
	clock    clock.Clock
	metrics  shared.Metrics
	logger   *slog.Logger
	attempts int
}

func NewAllocator(cfg config.Config, clk clock.Clock, metrics shared.Metrics, logger *slog.Logger) *Allocator {
	attempts := cfg.Store.ReserveAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Allocator{clock: clk, metrics: metrics, logger: logger, attempts: attempts}
}

// Reserve holds qty units for the order. Unlimited products record the
// reservation without touching a counter.
func (a *Allocator) Reserve(ctx context.Context, tx shared.Tx, tok inventory.Token) error {
	if tok.Quantity <= 0 {
		return errs.Mark(inventory.ErrInvalidQuantity, ErrInvalidQuantity)
	}

	if !tok.Unlimited {
		err := a.casStock(ctx, tx, tok.ProductID, func(s inventory.Stock) (inventory.Stock, error) {
			return s.Reserve(tok.Quantity)
		})
		switch {
		case errs.Is(err, inventory.ErrInsufficientStock):
			a.metrics.ReservationAttempt("insufficient")
			return errs.Mark(err, ErrInsufficientStock)
		case errs.Is(err, ErrContention):
			a.metrics.ReservationAttempt("contention")
			return err
		case err != nil:
			a.metrics.ReservationAttempt("error")
			return err
		}
	}

	if err := tx.Reservations().Create(ctx, inventory.NewReservation(tok, a.clock.Now())); err != nil {
		return errs.Wrap(err, "create reservation")
	}
	a.metrics.ReservationAttempt("reserved")
	return nil
}

// Release gives the units back once. It reports false when the reservation
// was already released or committed, which keeps duplicate releases from
// crediting stock twice.
func (a *Allocator) Release(ctx context.Context, tx shared.Tx, orderID uuid.UUID) (bool, error) {
	res, moved, err := a.transition(ctx, tx, orderID, inventory.StateActive, inventory.StateReleased)
	if err != nil || !moved {
		return false, err
	}
	if res.Unlimited {
		return true, nil
	}
	err = a.casStock(ctx, tx, res.ProductID, func(s inventory.Stock) (inventory.Stock, error) {
		return s.Release(res.Quantity), nil
	})
	if err != nil {
		return false, err
	}
	a.logger.Info("reservation released", "order_id", orderID, "product_id", res.ProductID, "quantity", res.Quantity)
	return true, nil
}

// Commit turns the hold into a sale. Committing twice is a no-op.
func (a *Allocator) Commit(ctx context.Context, tx shared.Tx, orderID uuid.UUID) (bool, error) {
	res, moved, err := a.transition(ctx, tx, orderID, inventory.StateActive, inventory.StateCommitted)
	if err != nil {
		return false, err
	}
	if !moved {
		if res.State == inventory.StateCommitted {
			return false, nil
		}
		return false, errs.Newf("reservation for order %s is %s, cannot commit", orderID, res.State)
	}
	if res.Unlimited {
		return true, nil
	}
	err = a.casStock(ctx, tx, res.ProductID, func(s inventory.Stock) (inventory.Stock, error) {
		return s.Commit(res.Quantity)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (a *Allocator) transition(ctx context.Context, tx shared.Tx, orderID uuid.UUID, from, to inventory.State) (*inventory.Reservation, bool, error) {
	res, err := tx.Reservations().Get(ctx, orderID)
	if err != nil {
		if infra.IsNotFound(err) {
			return nil, false, errs.Mark(errs.Wrapf(err, "reservation for order %s", orderID), ErrOrderNotFound)
		}
		return nil, false, errs.Wrap(err, "get reservation")
	}
	moved, err := tx.Reservations().Transition(ctx, orderID, from, to, a.clock.Now())
	if err != nil {
		return nil, false, errs.Wrap(err, "transition reservation")
	}
	if moved {
		res.State = to
		return res, true, nil
	}
	// Not in the from state; report the state it is actually in.
	res, err = tx.Reservations().Get(ctx, orderID)
	if err != nil {
		return nil, false, errs.Wrap(err, "get reservation")
	}
	return res, false, nil
}

// casStock applies change to the product counter with a version precondition,
// re-reading on every miss until the attempt budget runs out.
func (a *Allocator) casStock(ctx context.Context, tx shared.Tx, productID int64, change func(inventory.Stock) (inventory.Stock, error)) error {
	for attempt := 1; attempt <= a.attempts; attempt++ {
		current, err := tx.Stock().Get(ctx, productID)
		if err != nil {
			return errs.Wrapf(err, "get stock for product %d", productID)
		}
		next, err := change(*current)
		if err != nil {
			return err
		}
		next.UpdatedAt = a.clock.Now()

		swapped, err := tx.Stock().CompareAndSwap(ctx, &next, current.Version)
		if err != nil {
			return errs.Wrapf(err, "update stock for product %d", productID)
		}
		if swapped {
			return nil
		}
		a.logger.Debug("stock version moved, retrying", "product_id", productID, "attempt", attempt)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return errs.Mark(errs.Newf("stock for product %d still contended after %d attempts", productID, a.attempts), ErrContention)
}
