package memory

import (
	"context"
	"slices"
	"time"

	"digital-store/internal/domain/job"
	"digital-store/internal/infra"

	"github.com/google/uuid"
)

type jobRepo struct {
	t *tables
}

func (r *jobRepo) Enqueue(_ context.Context, j *job.Job) (bool, error) {
	key := jobKey{orderID: j.OrderID, kind: j.Kind}
	if _, exists := r.t.jobIndex[key]; exists {
		return false, nil
	}
	r.t.jobs[j.ID] = clone(j)
	r.t.jobIndex[key] = j.ID
	return true, nil
}

func (r *jobRepo) Get(_ context.Context, orderID uuid.UUID, kind job.Kind) (*job.Job, error) {
	id, ok := r.t.jobIndex[jobKey{orderID: orderID, kind: kind}]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "job not found")
	}
	return clone(r.t.jobs[id]), nil
}

func (r *jobRepo) ClaimDue(_ context.Context, now, leaseUntil time.Time, limit int) ([]*job.Job, error) {
	var due []*job.Job
	for _, j := range r.t.jobs {
		queued := j.Status == job.StatusQueued && !j.RunAt.After(now)
		leaseLost := j.Status == job.StatusRunning && j.LockedUntil != nil && j.LockedUntil.Before(now)
		if queued || leaseLost {
			due = append(due, j)
		}
	}
	slices.SortFunc(due, func(a, b *job.Job) int {
		return a.RunAt.Compare(b.RunAt)
	})
	due = page(due, limit, 0)

	out := make([]*job.Job, 0, len(due))
	for _, j := range due {
		next := clone(j)
		next.Status = job.StatusRunning
		next.Attempts++
		next.LockedUntil = &leaseUntil
		next.UpdatedAt = now
		r.t.jobs[j.ID] = next
		out = append(out, clone(next))
	}
	return out, nil
}

func (r *jobRepo) MarkDone(_ context.Context, id uuid.UUID, now time.Time) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.LockedUntil = nil
		j.LastError = ""
		j.UpdatedAt = now
	})
}

func (r *jobRepo) Reschedule(_ context.Context, id uuid.UUID, runAt time.Time, lastErr string, now time.Time) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusQueued
		j.RunAt = runAt
		j.LockedUntil = nil
		j.LastError = lastErr
		j.UpdatedAt = now
	})
}

func (r *jobRepo) MarkFailed(_ context.Context, id uuid.UUID, lastErr string, now time.Time) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.LockedUntil = nil
		j.LastError = lastErr
		j.UpdatedAt = now
	})
}

func (r *jobRepo) Requeue(_ context.Context, orderID uuid.UUID, kind job.Kind, now time.Time) (bool, error) {
	id, ok := r.t.jobIndex[jobKey{orderID: orderID, kind: kind}]
	if !ok {
		return false, nil
	}
	if s := r.t.jobs[id].Status; s != job.StatusDone && s != job.StatusFailed {
		return false, nil
	}
	err := r.update(id, func(j *job.Job) {
		j.Status = job.StatusQueued
		j.Attempts = 0
		j.RunAt = now
		j.LockedUntil = nil
		j.UpdatedAt = now
	})
	return err == nil, err
}

func (r *jobRepo) update(id uuid.UUID, mutate func(j *job.Job)) error {
	j, ok := r.t.jobs[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "job not found")
	}
	next := clone(j)
	mutate(next)
	r.t.jobs[id] = next
	return nil
}
