package worker

import (
	"context"
	"log/slog"

	"digital-store/internal/pkg/config"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"
)

const (
	TaskSweep     = "expiry_sweep"
	TaskReconcile = "reconcile"
	TaskJobs      = "order_jobs"
	TaskStats     = "stats"
)

// NewTasks wires the periodic recovery work: expiring stale orders, replaying
// stuck payment events, draining the post-payment job queue and a stats log line.
func NewTasks(
	cfg config.Config,
	sweeper *commands.Sweeper,
	reconciler *commands.Reconciler,
	runner *commands.JobRunner,
	q queries.OrderQueries,
	logger *slog.Logger,
) []Task {
	return []Task{
		{
			Name:     TaskSweep,
			Interval: cfg.Store.SweepInterval,
			Timeout:  cfg.Store.SweepInterval,
			Run: func(ctx context.Context) error {
				_, err := sweeper.Sweep(ctx)
				return err
			},
		},
		{
			Name:     TaskReconcile,
			Interval: cfg.Store.ReconcileInterval,
			Timeout:  cfg.Store.ReconcileInterval,
			Run: func(ctx context.Context) error {
				_, err := reconciler.Reconcile(ctx)
				return err
			},
		},
		{
			Name:     TaskJobs,
			Interval: cfg.Store.JobPollInterval,
			Timeout:  cfg.Store.JobLease,
			Run: func(ctx context.Context) error {
				_, err := runner.RunDue(ctx)
				return err
			},
		},
		{
			Name:     TaskStats,
			Interval: cfg.Store.StatsInterval,
			Run: func(ctx context.Context) error {
				stats, err := q.Stats(ctx)
				if err != nil {
					return err
				}
				attrs := []any{"total", stats.Total}
				for status, n := range stats.ByStatus {
					attrs = append(attrs, status, n)
				}
				logger.Info("order stats", attrs...)
				return nil
			},
		},
	}
}
