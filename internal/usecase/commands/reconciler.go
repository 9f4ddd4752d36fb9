package commands

import (
	"context"
	"log/slog"
	"time"

	"digital-store/internal/domain/payment"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"
)

const reconcileBatch = 100

type ReconcileReport struct {
	Scanned  int
	Replayed int
	Failed   int
}

// Reconciler finishes payment events that were recorded but never reached the
// state machine, for example because the process died between the two steps.
type Reconciler struct {
	uow      shared.UnitOfWork
	ingestor *Ingestor
	clock    clock.Clock
	logger   *slog.Logger
	after    time.Duration
}

func NewReconciler(cfg config.Config, uow shared.UnitOfWork, ingestor *Ingestor, clk clock.Clock, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		uow:      uow,
		ingestor: ingestor,
		clock:    clk,
		logger:   logger,
		after:    cfg.Store.ReconcileAfter,
	}
}

func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	cutoff := r.clock.Now().Add(-r.after)

	stale, err := shared.ReadResult(ctx, r.uow, func(ctx context.Context, tx shared.Tx) ([]*payment.Event, error) {
		return tx.PaymentEvents().ListStale(ctx, cutoff, reconcileBatch)
	})
	if err != nil {
		return report, errs.Wrap(err, "list stale payment events")
	}
	report.Scanned = len(stale)

	for _, e := range stale {
		res, err := r.ingestor.Replay(ctx, e.Gateway, e.EventID)
		switch {
		case err == nil, errs.IsAny(err, ErrInvalidTransition, ErrPaymentMismatch):
			if res != nil && !res.Duplicate {
				report.Replayed++
				r.logger.Info("payment event replayed",
					"gateway", e.Gateway,
					"event_id", e.EventID,
					"order_id", e.OrderID,
					"outcome", res.Outcome)
			}
		default:
			report.Failed++
			r.logger.Error("payment event replay failed",
				"gateway", e.Gateway,
				"event_id", e.EventID,
				"error", err.Error())
		}
	}
	if report.Scanned > 0 {
		r.logger.Info("reconciliation finished",
			"scanned", report.Scanned,
			"replayed", report.Replayed,
			"failed", report.Failed)
	}
	return report, nil
}
