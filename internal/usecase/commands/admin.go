package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/domain/job"
	"digital-store/internal/domain/order"
	"digital-store/internal/pkg/errs"

	"github.com/google/uuid"
)

//go:generate mockgen -source=admin.go -destination=mock/admin.go -package=commandsmock

type AdminCommands interface {
	ForceExpire(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	ForceRelease(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	Redispatch(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	Refund(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	RetryJobs(ctx context.Context, orderID uuid.UUID) ([]job.Kind, error)
	Reconcile(ctx context.Context) (ReconcileReport, error)
	Sweep(ctx context.Context) (int, error)
}

// AdminService is the manual recovery surface. Every entry point goes through
// the state machine or the allocator, so version checks still apply.
type AdminService struct {
	machine    *StateMachine
	dispatcher *Dispatcher
	reconciler *Reconciler
	sweeper    *Sweeper
	jobs       *JobRunner
	logger     *slog.Logger
}

func NewAdminService(
	machine *StateMachine,
	dispatcher *Dispatcher,
	reconciler *Reconciler,
	sweeper *Sweeper,
	jobs *JobRunner,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		machine:    machine,
		dispatcher: dispatcher,
		reconciler: reconciler,
		sweeper:    sweeper,
		jobs:       jobs,
		logger:     logger,
	}
}

func (a *AdminService) ForceExpire(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := a.machine.AdvanceLatest(ctx, orderID, order.EventExpire, nil)
	if err != nil {
		return nil, err
	}
	a.logger.Info("order force-expired", "order_id", orderID)
	return o, nil
}

// ForceRelease frees the stock held for an order. A PENDING order is
// cancelled, which releases as a side effect; a terminal order only gets
// its reservation released if that never happened.
func (a *AdminService) ForceRelease(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := a.machine.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case o.Status == order.StatusPending:
		o, err = a.machine.AdvanceLatest(ctx, orderID, order.EventCancel, nil)
		if err != nil {
			return nil, err
		}
	case order.ReleasesStock(o.Status):
		released, err := a.machine.ReleaseTerminal(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !released {
			a.logger.Info("reservation already released", "order_id", orderID)
		}
	default:
		return nil, errs.Mark(errs.Newf("order %s is %s", orderID, o.Status), ErrReservationCommitted)
	}
	a.logger.Info("reservation force-released", "order_id", orderID, "status", o.Status)
	return o, nil
}

func (a *AdminService) Redispatch(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := a.dispatcher.Redispatch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	a.logger.Info("order re-dispatched", "order_id", orderID)
	return o, nil
}

// Refund records a refund made outside the system. Stock is not returned:
// the goods were delivered.
func (a *AdminService) Refund(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := a.machine.AdvanceLatest(ctx, orderID, order.EventRefund, nil)
	if err != nil {
		return nil, err
	}
	a.logger.Info("order refunded", "order_id", orderID)
	return o, nil
}

// RetryJobs requeues the order's finished post-payment jobs and returns the
// kinds it requeued.
func (a *AdminService) RetryJobs(ctx context.Context, orderID uuid.UUID) ([]job.Kind, error) {
	if _, err := a.machine.Get(ctx, orderID); err != nil {
		return nil, err
	}
	var requeued []job.Kind
	for _, kind := range []job.Kind{job.KindDelivery, job.KindReferralRewards} {
		ok, err := a.jobs.Requeue(ctx, orderID, kind)
		if err != nil {
			return requeued, errs.Wrapf(err, "requeue %s", kind)
		}
		if ok {
			requeued = append(requeued, kind)
		}
	}
	a.logger.Info("order jobs requeued", "order_id", orderID, "kinds", requeued)
	return requeued, nil
}

func (a *AdminService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	return a.reconciler.Reconcile(ctx)
}

func (a *AdminService) Sweep(ctx context.Context) (int, error) {
	return a.sweeper.Sweep(ctx)
}
