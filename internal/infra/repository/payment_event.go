package repository

import (
	"context"
	"time"

	"digital-store/internal/domain/payment"
	"digital-store/internal/infra"
	"digital-store/internal/infra/db"
	"digital-store/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentEventColumns = `gateway, event_id, order_id, kind, raw_status, amount::text, currency,
	payload_hash, outcome, result_status, received_at, processed_at`

type PaymentEventRepository struct {
	db db.DBTX
}

func NewPaymentEventRepository(db db.DBTX) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

func (r *PaymentEventRepository) Insert(ctx context.Context, e *payment.Event) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO payment_events (gateway, event_id, order_id, kind, raw_status, amount, currency,
			payload_hash, outcome, result_status, received_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (gateway, event_id) DO NOTHING`,
		e.Gateway, e.EventID, e.OrderID, string(e.Kind), e.RawStatus, pgconv.DecimalToText(e.Amount), e.Currency,
		e.PayloadHash, string(e.Outcome), e.ResultStatus, e.ReceivedAt, pgconv.TimePtrToPgtype(e.ProcessedAt),
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert payment event", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PaymentEventRepository) Get(ctx context.Context, gateway, eventID string) (*payment.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentEventColumns+`
		FROM payment_events WHERE gateway = $1 AND event_id = $2`, gateway, eventID)
	e, err := scanPaymentEvent(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get payment event", err)
	}
	return e, nil
}

// A concurrent redelivery blocks on the row lock until the first one commits,
// then sees a final outcome and gets no row.
func (r *PaymentEventRepository) ClaimReceived(ctx context.Context, gateway, eventID string) (*payment.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentEventColumns+`
		FROM payment_events
		WHERE gateway = $1 AND event_id = $2 AND outcome = 'received'
		FOR UPDATE`, gateway, eventID)
	e, err := scanPaymentEvent(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim payment event", err)
	}
	return e, nil
}

func (r *PaymentEventRepository) Complete(ctx context.Context, gateway, eventID string, outcome payment.Outcome, resultStatus string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payment_events SET outcome = $3, result_status = $4, processed_at = $5
		WHERE gateway = $1 AND event_id = $2`, gateway, eventID, string(outcome), resultStatus, now)
	if err != nil {
		return infra.WrapRepoErr("failed to complete payment event", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "payment event not found")
	}
	return nil
}

func (r *PaymentEventRepository) ListStale(ctx context.Context, receivedBefore time.Time, limit int) ([]*payment.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentEventColumns+`
		FROM payment_events
		WHERE outcome = 'received' AND received_at < $1
		ORDER BY received_at
		LIMIT $2`, receivedBefore, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list stale payment events", err)
	}
	out, err := collect(rows, scanPaymentEvent)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan payment events", err)
	}
	return out, nil
}

// An empty outcome lists every event.
func (r *PaymentEventRepository) ListByOutcome(ctx context.Context, outcome payment.Outcome, limit, offset int) ([]*payment.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentEventColumns+`
		FROM payment_events
		WHERE $1 = '' OR outcome = $1
		ORDER BY received_at DESC
		LIMIT $2 OFFSET $3`, string(outcome), limit, offset)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list payment events", err)
	}
	out, err := collect(rows, scanPaymentEvent)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan payment events", err)
	}
	return out, nil
}

func scanPaymentEvent(row pgx.Row) (*payment.Event, error) {
	var (
		e                     payment.Event
		kind, outcome, amount string
		processedAt           pgtype.Timestamptz
	)
	err := row.Scan(
		&e.Gateway, &e.EventID, &e.OrderID, &kind, &e.RawStatus, &amount, &e.Currency,
		&e.PayloadHash, &outcome, &e.ResultStatus, &e.ReceivedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.Amount, err = pgconv.DecimalFromText(amount); err != nil {
		return nil, err
	}
	e.Kind = payment.Kind(kind)
	e.Outcome = payment.Outcome(outcome)
	e.ReceivedAt = e.ReceivedAt.UTC()
	e.ProcessedAt = pgconv.TimePtrFromPgtype(processedAt)
	return &e, nil
}
