package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"digital-store/internal/domain/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateways return these (possibly marked) from VerifyCallback.
var (
	ErrSignatureInvalid = errors.New("payment: callback signature invalid")
	ErrMalformedPayload = errors.New("payment: malformed callback payload")
)

const (
	GatewayTelegramStars = "telegram_stars"
	GatewayCryptomus     = "cryptomus"
)

// Kind is what a verified callback means for the order, independent of gateway wording.
type Kind string

const (
	KindPaid   Kind = "paid"
	KindFailed Kind = "failed"
	KindInfo   Kind = "info"
)

// OrderEvent maps a callback kind onto the state machine. Info callbacks have none.
func (k Kind) OrderEvent() (order.Event, bool) {
	switch k {
	case KindPaid:
		return order.EventPaid, true
	case KindFailed:
		return order.EventCancel, true
	default:
		return "", false
	}
}

type Outcome string

const (
	OutcomeReceived          Outcome = "received"
	OutcomeApplied           Outcome = "applied"
	OutcomeIgnored           Outcome = "ignored"
	OutcomeInvalidTransition Outcome = "invalid_transition"
	OutcomeOrderNotFound     Outcome = "order_not_found"
	// OutcomeGatewayMismatch is a callback from a gateway other than the one the order was invoiced on.
	OutcomeGatewayMismatch Outcome = "gateway_mismatch"
	// OutcomeAmountMismatch is a payment short of the order total or in another currency.
	OutcomeAmountMismatch Outcome = "amount_mismatch"
)

// IsFinal is false only while the event still has to reach the state machine.
func (o Outcome) IsFinal() bool {
	return o != OutcomeReceived
}

// NeedsOperator reports outcomes that left money unaccounted for.
func (o Outcome) NeedsOperator() bool {
	switch o {
	case OutcomeInvalidTransition, OutcomeGatewayMismatch, OutcomeAmountMismatch:
		return true
	default:
		return false
	}
}

// Valid reports whether o is one of the recorded outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeReceived, OutcomeApplied, OutcomeIgnored, OutcomeInvalidTransition,
		OutcomeOrderNotFound, OutcomeGatewayMismatch, OutcomeAmountMismatch:
		return true
	default:
		return false
	}
}

type VerifiedEvent struct {
	Gateway   string
	EventID   string
	OrderID   uuid.UUID
	Kind      Kind
	RawStatus string
	Amount    decimal.Decimal
	Currency  string
}

// Event is the durable record of one (gateway, event id) delivery.
type Event struct {
	Gateway      string
	EventID      string
	OrderID      uuid.UUID
	Kind         Kind
	RawStatus    string
	Amount       decimal.Decimal
	Currency     string
	PayloadHash  string
	Outcome      Outcome
	ResultStatus string
	ReceivedAt   time.Time
	ProcessedAt  *time.Time
}

func NewEvent(v *VerifiedEvent, raw []byte, now time.Time) *Event {
	return &Event{
		Gateway:     v.Gateway,
		EventID:     v.EventID,
		OrderID:     v.OrderID,
		Kind:        v.Kind,
		RawStatus:   v.RawStatus,
		Amount:      v.Amount,
		Currency:    v.Currency,
		PayloadHash: HashPayload(raw),
		Outcome:     OutcomeReceived,
		ReceivedAt:  now,
	}
}

func HashPayload(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// CachedOutcome is what the fast dedup path keeps per event.
type CachedOutcome struct {
	OrderID      uuid.UUID `json:"order_id"`
	Outcome      Outcome   `json:"outcome"`
	ResultStatus string    `json:"result_status"`
}
