package queries

import (
	"context"

	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/domain/referral"
	"digital-store/internal/infra"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errs.New("order view not found")
	ErrInvalidStatus  = errs.New("invalid status filter")
	ErrInvalidOutcome = errs.New("invalid outcome filter")
)

//go:generate mockgen -source=order.go -destination=mock/order.go -package=queriesmock

type OrderQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error)
	List(ctx context.Context, status string, limit, offset int) ([]*OrderView, error)
	Stats(ctx context.Context) (*OrderStats, error)
	Rewards(ctx context.Context, orderID uuid.UUID) ([]*RewardView, error)
	PaymentEvents(ctx context.Context, outcome string, limit, offset int) ([]*PaymentEventView, error)
}

type orderQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewOrderQueries(uow shared.UnitOfWork) OrderQueries {
	return &orderQueriesImpl{uow: uow}
}

func (q *orderQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	o, err := shared.ReadResult(ctx, q.uow, func(ctx context.Context, tx shared.Tx) (*order.Order, error) {
		return tx.Orders().Get(ctx, id)
	})
	if err != nil {
		if infra.IsNotFound(err) {
			return nil, errs.Mark(err, ErrOrderNotFound)
		}
		return nil, err
	}
	return NewOrderView(o), nil
}

// An empty status lists orders in every status, newest first.
func (q *orderQueriesImpl) List(ctx context.Context, status string, limit, offset int) ([]*OrderView, error) {
	var filter order.Status
	if status != "" {
		parsed, err := order.ParseStatus(status)
		if err != nil {
			return nil, errs.Mark(err, ErrInvalidStatus)
		}
		filter = parsed
	}

	rows, err := shared.ReadResult(ctx, q.uow, func(ctx context.Context, tx shared.Tx) ([]*order.Order, error) {
		return tx.Orders().ListByStatus(ctx, filter, ClampLimit(limit), max(offset, 0))
	})
	if err != nil {
		return nil, err
	}

	out := make([]*OrderView, 0, len(rows))
	for _, o := range rows {
		out = append(out, NewOrderView(o))
	}
	return out, nil
}

func (q *orderQueriesImpl) Stats(ctx context.Context) (*OrderStats, error) {
	counts, err := shared.ReadResult(ctx, q.uow, func(ctx context.Context, tx shared.Tx) (map[order.Status]int64, error) {
		return tx.Orders().CountByStatus(ctx)
	})
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{ByStatus: make(map[string]int64, len(counts))}
	for status, n := range counts {
		stats.ByStatus[status.String()] = n
		stats.Total += n
	}
	return stats, nil
}

func (q *orderQueriesImpl) Rewards(ctx context.Context, orderID uuid.UUID) ([]*RewardView, error) {
	rows, err := shared.ReadResult(ctx, q.uow, func(ctx context.Context, tx shared.Tx) ([]*referral.Reward, error) {
		return tx.Rewards().ListByOrder(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*RewardView, 0, len(rows))
	for _, r := range rows {
		out = append(out, newRewardView(r))
	}
	return out, nil
}

// PaymentEvents is how operators find invalid_transition and mismatch events that need a manual refund.
func (q *orderQueriesImpl) PaymentEvents(ctx context.Context, outcome string, limit, offset int) ([]*PaymentEventView, error) {
	filter := payment.Outcome(outcome)
	if filter != "" && !filter.Valid() {
		return nil, errs.Mark(errs.Newf("outcome %q", outcome), ErrInvalidOutcome)
	}

	rows, err := shared.ReadResult(ctx, q.uow, func(ctx context.Context, tx shared.Tx) ([]*payment.Event, error) {
		return tx.PaymentEvents().ListByOutcome(ctx, filter, ClampLimit(limit), max(offset, 0))
	})
	if err != nil {
		return nil, err
	}
	out := make([]*PaymentEventView, 0, len(rows))
	for _, e := range rows {
		out = append(out, newPaymentEventView(e))
	}
	return out, nil
}
