package repository

import (
	"context"
	"time"

	"digital-store/internal/domain/job"
	"digital-store/internal/infra"
	"digital-store/internal/infra/db"
	"digital-store/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const jobColumns = `id, order_id, kind, status, attempts, run_at, locked_until, last_error, created_at, updated_at`

type JobRepository struct {
	db db.DBTX
}

func NewJobRepository(db db.DBTX) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Enqueue(ctx context.Context, j *job.Job) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO order_jobs (id, order_id, kind, status, attempts, run_at, locked_until, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (order_id, kind) DO NOTHING`,
		j.ID, j.OrderID, string(j.Kind), string(j.Status), j.Attempts, j.RunAt,
		pgconv.TimePtrToPgtype(j.LockedUntil), j.LastError, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to enqueue job", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *JobRepository) Get(ctx context.Context, orderID uuid.UUID, kind job.Kind) (*job.Job, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM order_jobs WHERE order_id = $1 AND kind = $2`, orderID, string(kind))
	j, err := scanJob(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get job", err)
	}
	return j, nil
}

// SKIP LOCKED lets several workers poll the same table without handing out a job twice.
func (r *JobRepository) ClaimDue(ctx context.Context, now, leaseUntil time.Time, limit int) ([]*job.Job, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE order_jobs SET status = 'running', attempts = attempts + 1, locked_until = $2, updated_at = $1
		WHERE id IN (
			SELECT id FROM order_jobs
			WHERE (status = 'queued' AND run_at <= $1)
			   OR (status = 'running' AND locked_until < $1)
			ORDER BY run_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns, now, leaseUntil, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim jobs", err)
	}
	out, err := collect(rows, scanJob)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan claimed jobs", err)
	}
	return out, nil
}

func (r *JobRepository) MarkDone(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.exec(ctx, "failed to mark job done", `
		UPDATE order_jobs SET status = 'done', locked_until = NULL, last_error = '', updated_at = $2
		WHERE id = $1`, id, now)
}

func (r *JobRepository) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastErr string, now time.Time) error {
	return r.exec(ctx, "failed to reschedule job", `
		UPDATE order_jobs SET status = 'queued', run_at = $2, locked_until = NULL, last_error = $3, updated_at = $4
		WHERE id = $1`, id, runAt, lastErr, now)
}

func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, now time.Time) error {
	return r.exec(ctx, "failed to mark job failed", `
		UPDATE order_jobs SET status = 'failed', locked_until = NULL, last_error = $2, updated_at = $3
		WHERE id = $1`, id, lastErr, now)
}

func (r *JobRepository) Requeue(ctx context.Context, orderID uuid.UUID, kind job.Kind, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE order_jobs SET status = 'queued', attempts = 0, run_at = $3, locked_until = NULL, updated_at = $3
		WHERE order_id = $1 AND kind = $2 AND status IN ('done', 'failed')`, orderID, string(kind), now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to requeue job", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *JobRepository) exec(ctx context.Context, msg, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return infra.WrapRepoErr(msg, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "job not found")
	}
	return nil
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j            job.Job
		kind, status string
		lockedUntil  pgtype.Timestamptz
	)
	err := row.Scan(&j.ID, &j.OrderID, &kind, &status, &j.Attempts, &j.RunAt, &lockedUntil, &j.LastError, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Kind = job.Kind(kind)
	j.Status = job.Status(status)
	j.LockedUntil = pgconv.TimePtrFromPgtype(lockedUntil)
	j.RunAt = j.RunAt.UTC()
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return &j, nil
}
