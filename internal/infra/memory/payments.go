package memory

import (
	"context"
	"slices"
	"time"

	"digital-store/internal/domain/payment"
	"digital-store/internal/infra"
)

type paymentEventRepo struct {
	t *tables
}

func (r *paymentEventRepo) Insert(_ context.Context, e *payment.Event) (bool, error) {
	key := eventKey{gateway: e.Gateway, eventID: e.EventID}
	if _, exists := r.t.events[key]; exists {
		return false, nil
	}
	r.t.events[key] = clone(e)
	return true, nil
}

func (r *paymentEventRepo) Get(_ context.Context, gateway, eventID string) (*payment.Event, error) {
	e, ok := r.t.events[eventKey{gateway: gateway, eventID: eventID}]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "payment event not found")
	}
	return clone(e), nil
}

// ClaimReceived needs no row lock here: the store lock already serializes transactions.
func (r *paymentEventRepo) ClaimReceived(_ context.Context, gateway, eventID string) (*payment.Event, error) {
	e, ok := r.t.events[eventKey{gateway: gateway, eventID: eventID}]
	if !ok || e.Outcome != payment.OutcomeReceived {
		return nil, infra.NewRepoErr(infra.KindNotFound, "no unprocessed payment event")
	}
	return clone(e), nil
}

func (r *paymentEventRepo) Complete(_ context.Context, gateway, eventID string, outcome payment.Outcome, resultStatus string, now time.Time) error {
	key := eventKey{gateway: gateway, eventID: eventID}
	e, ok := r.t.events[key]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "payment event not found")
	}
	next := clone(e)
	next.Outcome = outcome
	next.ResultStatus = resultStatus
	next.ProcessedAt = &now
	r.t.events[key] = next
	return nil
}

func (r *paymentEventRepo) ListStale(_ context.Context, receivedBefore time.Time, limit int) ([]*payment.Event, error) {
	var out []*payment.Event
	for _, e := range r.t.events {
		if e.Outcome == payment.OutcomeReceived && e.ReceivedAt.Before(receivedBefore) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *payment.Event) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})
	return cloneAll(page(out, limit, 0)), nil
}

func (r *paymentEventRepo) ListByOutcome(_ context.Context, outcome payment.Outcome, limit, offset int) ([]*payment.Event, error) {
	var out []*payment.Event
	for _, e := range r.t.events {
		if outcome == "" || e.Outcome == outcome {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *payment.Event) int {
		return b.ReceivedAt.Compare(a.ReceivedAt)
	})
	return cloneAll(page(out, limit, offset)), nil
}
