package commands

import (
	"context"
	"log/slog"
	"time"

	"digital-store/internal/domain/job"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

type JobHandler func(ctx context.Context, orderID uuid.UUID) error

// JobRunner executes the side effects queued by a PAID transition. Handlers
// run outside any transaction and must be idempotent: a lease that runs out
// mid-handler hands the job to the next poll.
type JobRunner struct {
	uow         shared.UnitOfWork
	handlers    map[job.Kind]JobHandler
	clock       clock.Clock
	metrics     shared.Metrics
	logger      *slog.Logger
	batch       int
	lease       time.Duration
	maxAttempts int
}

func NewJobRunner(
	cfg config.Config,
	uow shared.UnitOfWork,
	dispatcher *Dispatcher,
	rewards *RewardEngine,
	clk clock.Clock,
	metrics shared.Metrics,
	logger *slog.Logger,
) *JobRunner {
	return &JobRunner{
		uow: uow,
		handlers: map[job.Kind]JobHandler{
			job.KindDelivery: dispatcher.Dispatch,
			job.KindReferralRewards: func(ctx context.Context, orderID uuid.UUID) error {
				_, err := rewards.CreditRewards(ctx, orderID)
				return err
			},
		},
		clock:       clk,
		metrics:     metrics,
		logger:      logger,
		batch:       max(cfg.Store.JobBatch, 1),
		lease:       cfg.Store.JobLease,
		maxAttempts: max(cfg.Store.JobMaxAttempts, 1),
	}
}

// RunDue claims one batch of due jobs and runs them. It returns the number of
// jobs that finished successfully.
func (r *JobRunner) RunDue(ctx context.Context) (int, error) {
	now := r.clock.Now()
	claimed, err := shared.WithinResult(ctx, r.uow, func(ctx context.Context, tx shared.Tx) ([]*job.Job, error) {
		return tx.Jobs().ClaimDue(ctx, now, now.Add(r.lease), r.batch)
	})
	if err != nil {
		return 0, errs.Wrap(err, "claim jobs")
	}

	done := 0
	for _, j := range claimed {
		if r.run(ctx, j) {
			done++
		}
	}
	return done, nil
}

func (r *JobRunner) run(ctx context.Context, j *job.Job) bool {
	handler, ok := r.handlers[j.Kind]
	var runErr error
	if !ok {
		runErr = errs.Newf("no handler for job kind %q", j.Kind)
	} else {
		runErr = handler(ctx, j.OrderID)
	}

	now := r.clock.Now()
	var finishErr error
	result := "done"
	switch {
	case runErr == nil:
		finishErr = r.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Jobs().MarkDone(ctx, j.ID, now)
		})
	case j.Attempts >= r.maxAttempts || !ok:
		result = "failed"
		r.logger.Error("job failed permanently",
			"job_id", j.ID,
			"kind", j.Kind,
			"order_id", j.OrderID,
			"attempts", j.Attempts,
			"error", runErr.Error())
		finishErr = r.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Jobs().MarkFailed(ctx, j.ID, runErr.Error(), now)
		})
	default:
		result = "retry"
		runAt := now.Add(job.Backoff(j.Attempts))
		r.logger.Warn("job failed, rescheduling",
			"job_id", j.ID,
			"kind", j.Kind,
			"order_id", j.OrderID,
			"attempts", j.Attempts,
			"run_at", runAt,
			"error", runErr.Error())
		finishErr = r.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Jobs().Reschedule(ctx, j.ID, runAt, runErr.Error(), now)
		})
	}
	r.metrics.JobFinished(string(j.Kind), result)

	if finishErr != nil {
		r.logger.Error("failed to record job result, lease expiry will retry it",
			"job_id", j.ID,
			"error", finishErr.Error())
	}
	return runErr == nil
}

// Requeue puts a finished job for the order back in the queue.
func (r *JobRunner) Requeue(ctx context.Context, orderID uuid.UUID, kind job.Kind) (bool, error) {
	return shared.WithinResult(ctx, r.uow, func(ctx context.Context, tx shared.Tx) (bool, error) {
		return tx.Jobs().Requeue(ctx, orderID, kind, r.clock.Now())
	})
}
