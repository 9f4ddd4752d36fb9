package queries

import (
	"time"

	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/domain/referral"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type OrderView struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	BuyerID     int64           `json:"buyer_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Gateway     string          `json:"gateway"`
	InvoiceRef  string          `json:"invoice_ref,omitempty"`
	Delivered   bool            `json:"delivered"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Version     int64           `json:"version"`
}

type OrderStats struct {
	ByStatus map[string]int64 `json:"by_status"`
	Total    int64            `json:"total"`
}

type PaymentEventView struct {
	Gateway      string          `json:"gateway"`
	EventID      string          `json:"event_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	Kind         string          `json:"kind"`
	RawStatus    string          `json:"raw_status"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Outcome      string          `json:"outcome"`
	ResultStatus string          `json:"result_status,omitempty"`
	ReceivedAt   time.Time       `json:"received_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
}

type RewardView struct {
	ReferrerID int64           `json:"referrer_id"`
	ReferredID int64           `json:"referred_id"`
	Level      int             `json:"level"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CreditedAt time.Time       `json:"credited_at"`
}

func NewOrderView(o *order.Order) *OrderView {
	return &OrderView{
		ID:          o.ID,
		Number:      o.Number,
		BuyerID:     o.BuyerID,
		ProductID:   o.ProductID,
		Quantity:    o.Quantity,
		UnitPrice:   o.UnitPrice,
		Total:       o.Total,
		Currency:    o.Currency,
		Status:      o.Status.String(),
		Gateway:     o.Gateway,
		InvoiceRef:  o.InvoiceRef,
		Delivered:   o.Delivered,
		DeliveredAt: o.DeliveredAt,
		PaidAt:      o.PaidAt,
		CreatedAt:   o.CreatedAt,
		ExpiresAt:   o.ExpiresAt,
		Version:     o.Version,
	}
}

func newPaymentEventView(e *payment.Event) *PaymentEventView {
	return &PaymentEventView{
		Gateway:      e.Gateway,
		EventID:      e.EventID,
		OrderID:      e.OrderID,
		Kind:         string(e.Kind),
		RawStatus:    e.RawStatus,
		Amount:       e.Amount,
		Currency:     e.Currency,
		Outcome:      string(e.Outcome),
		ResultStatus: e.ResultStatus,
		ReceivedAt:   e.ReceivedAt,
		ProcessedAt:  e.ProcessedAt,
	}
}

func newRewardView(r *referral.Reward) *RewardView {
	return &RewardView{
		ReferrerID: r.ReferrerID,
		ReferredID: r.ReferredID,
		Level:      r.Level,
		Amount:     r.Amount,
		Currency:   r.Currency,
		CreditedAt: r.CreditedAt,
	}
}

// ClampLimit keeps list sizes inside [1, MaxListLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
