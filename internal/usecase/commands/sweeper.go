package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/domain/order"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"
)

var errNoLongerPending = errs.New("order no longer pending")

// Sweeper expires PENDING orders past their deadline. It never locks: a
// webhook that wins the version race simply makes the sweep a no-op.
type Sweeper struct {
	uow     shared.UnitOfWork
	machine *StateMachine
	clock   clock.Clock
	metrics shared.Metrics
	logger  *slog.Logger
	batch   int
}

func NewSweeper(cfg config.Config, uow shared.UnitOfWork, machine *StateMachine, clk clock.Clock, metrics shared.Metrics, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		uow:     uow,
		machine: machine,
		clock:   clk,
		metrics: metrics,
		logger:  logger,
		batch:   max(cfg.Store.SweepBatch, 1),
	}
}

// Sweep expires every overdue order and returns how many it expired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	total := 0
	for {
		now := s.clock.Now()
		due, err := shared.ReadResult(ctx, s.uow, func(ctx context.Context, tx shared.Tx) ([]*order.Order, error) {
			return tx.Orders().ListExpired(ctx, now, s.batch)
		})
		if err != nil {
			return total, errs.Wrap(err, "list expired orders")
		}

		expired := 0
		for _, o := range due {
			ok, err := s.expire(ctx, o)
			if err != nil {
				s.logger.Error("failed to expire order", "order_id", o.ID, "error", err.Error())
				continue
			}
			if ok {
				expired++
			}
		}
		total += expired
		s.metrics.OrdersExpired(expired)

		// A short page means nothing is left; a page with no progress means
		// every remaining row is failing and the next tick should retry.
		if len(due) < s.batch || expired == 0 || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		s.logger.Info("expired stale orders", "count", total)
	}
	return total, nil
}

func (s *Sweeper) expire(ctx context.Context, o *order.Order) (bool, error) {
	_, err := s.machine.Advance(ctx, o.ID, order.EventExpire, o.Version)
	if err == nil {
		return true, nil
	}
	if errs.Is(err, ErrInvalidTransition) {
		return false, nil
	}
	if !errs.Is(err, ErrConflict) {
		return false, err
	}

	// Lost the race; re-read and only continue while the order is still overdue.
	_, err = s.machine.AdvanceLatest(ctx, o.ID, order.EventExpire, func(current *order.Order) error {
		if !current.IsExpired(s.clock.Now()) {
			return errNoLongerPending
		}
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errs.IsAny(err, errNoLongerPending, ErrInvalidTransition):
		s.logger.Debug("order left PENDING before the sweep reached it", "order_id", o.ID)
		return false, nil
	default:
		return false, err
	}
}
