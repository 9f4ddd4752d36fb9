package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/domain/job"
	"digital-store/internal/domain/order"
	"digital-store/internal/infra"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

// Guard lets AdvanceLatest stop before applying an event to a freshly read order.
type Guard func(o *order.Order) error

// StateMachine is the only path that changes an order's status or delivered flag.
type StateMachine struct {
	uow            shared.UnitOfWork
	allocator      *Allocator
	clock          clock.Clock
	metrics        shared.Metrics
	logger         *slog.Logger
	attempts       int
	rewardsEnabled bool
}

func NewStateMachine(
	cfg config.Config,
	uow shared.UnitOfWork,
	allocator *Allocator,
	clk clock.Clock,
	metrics shared.Metrics,
	logger *slog.Logger,
) *StateMachine {
	attempts := cfg.Store.AdvanceAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &StateMachine{
		uow:            uow,
		allocator:      allocator,
		clock:          clk,
		metrics:        metrics,
		logger:         logger,
		attempts:       attempts,
		rewardsEnabled: cfg.Referral.Enabled,
	}
}

// Advance applies ev to the order in its own transaction. It fails with
// ErrConflict when the stored version is not expectedVersion and with
// ErrInvalidTransition when the current status does not accept ev.
func (m *StateMachine) Advance(ctx context.Context, orderID uuid.UUID, ev order.Event, expectedVersion int64) (*order.Order, error) {
	return shared.WithinResult(ctx, m.uow, func(ctx context.Context, tx shared.Tx) (*order.Order, error) {
		return m.AdvanceTx(ctx, tx, orderID, ev, expectedVersion)
	})
}

// AdvanceTx is Advance inside a transaction the caller already owns. The
// order write and its side effects commit or roll back together.
func (m *StateMachine) AdvanceTx(ctx context.Context, tx shared.Tx, orderID uuid.UUID, ev order.Event, expectedVersion int64) (*order.Order, error) {
	o, err := tx.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, orderErr(err, "get order")
	}
	if o.Version != expectedVersion {
		m.metrics.Transition(ev.String(), "conflict")
		return nil, errs.Mark(
			errs.Newf("order %s is at version %d, expected %d", orderID, o.Version, expectedVersion),
			ErrConflict,
		)
	}

	from := o.Status
	if _, err := o.Apply(ev, m.clock.Now()); err != nil {
		m.metrics.Transition(ev.String(), "invalid")
		return nil, errs.Mark(errs.Wrapf(err, "%s on %s order %s", ev, from, orderID), ErrInvalidTransition)
	}

	if err := tx.Orders().Update(ctx, o, expectedVersion); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			m.metrics.Transition(ev.String(), "conflict")
		}
		return nil, orderErr(err, "update order")
	}

	if err := m.sideEffects(ctx, tx, o, ev); err != nil {
		return nil, err
	}

	m.metrics.Transition(ev.String(), "applied")
	m.logger.Info("order advanced",
		"order_id", o.ID,
		"event", ev,
		"from", from,
		"to", o.Status,
		"version", o.Version)
	return o, nil
}

func (m *StateMachine) sideEffects(ctx context.Context, tx shared.Tx, o *order.Order, ev order.Event) error {
	switch {
	case ev == order.EventPaid:
		if _, err := m.allocator.Commit(ctx, tx, o.ID); err != nil {
			return errs.Wrap(err, "commit reservation")
		}
		kinds := []job.Kind{job.KindDelivery}
		if m.rewardsEnabled {
			kinds = append(kinds, job.KindReferralRewards)
		}
		for _, kind := range kinds {
			if _, err := tx.Jobs().Enqueue(ctx, job.New(o.ID, kind, m.clock.Now())); err != nil {
				return errs.Wrapf(err, "enqueue %s job", kind)
			}
		}
	case ev != order.EventDelivered && order.ReleasesStock(o.Status):
		if _, err := m.allocator.Release(ctx, tx, o.ID); err != nil {
			return errs.Wrap(err, "release reservation")
		}
	}
	return nil
}

// AdvanceLatest re-reads the order before every attempt and retries on
// ErrConflict. guard may veto the event after each read.
func (m *StateMachine) AdvanceLatest(ctx context.Context, orderID uuid.UUID, ev order.Event, guard Guard) (*order.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		current, err := m.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return nil, err
			}
		}

		o, err := m.Advance(ctx, orderID, ev, current.Version)
		if err == nil {
			return o, nil
		}
		if !errs.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
		m.logger.Debug("order changed underneath, re-reading", "order_id", orderID, "event", ev, "attempt", attempt)
	}
	return nil, lastErr
}

func (m *StateMachine) Get(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := shared.ReadResult(ctx, m.uow, func(ctx context.Context, tx shared.Tx) (*order.Order, error) {
		return tx.Orders().Get(ctx, orderID)
	})
	if err != nil {
		return nil, orderErr(err, "get order")
	}
	return o, nil
}

// ReleaseTerminal returns the stock of an EXPIRED or CANCELLED order whose
// reservation is somehow still active. It reports whether stock moved.
func (m *StateMachine) ReleaseTerminal(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return shared.WithinResult(ctx, m.uow, func(ctx context.Context, tx shared.Tx) (bool, error) {
		o, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return false, orderErr(err, "get order")
		}
		if !order.ReleasesStock(o.Status) {
			return false, errs.Mark(errs.Newf("order %s is %s", orderID, o.Status), ErrInvalidTransition)
		}
		return m.allocator.Release(ctx, tx, orderID)
	})
}
