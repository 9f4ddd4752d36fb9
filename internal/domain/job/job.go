package job

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindDelivery        Kind = "delivery"
	KindReferralRewards Kind = "referral_rewards"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is a post-payment side effect; (OrderID, Kind) is unique.
type Job struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Kind        Kind
	Status      Status
	Attempts    int
	RunAt       time.Time
	LockedUntil *time.Time
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(orderID uuid.UUID, kind Kind, now time.Time) *Job {
	return &Job{
		ID:        uuid.New(),
		OrderID:   orderID,
		Kind:      kind,
		Status:    StatusQueued,
		RunAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

const (
	backoffBase = 5 * time.Second
	backoffMax  = 30 * time.Minute
)

// Backoff is the delay before the next attempt after attempts failures.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := backoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= backoffMax {
			return backoffMax
		}
	}
	return d
}
