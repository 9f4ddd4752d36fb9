package order

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransition = errors.New("order: transition not allowed from current status")
	ErrAlreadyDelivered  = errors.New("order: already delivered")
	ErrInvalidStatus     = errors.New("order: invalid status")
	ErrInvalidQuantity   = errors.New("order: quantity must be positive")
	ErrInvalidPrice      = errors.New("order: unit price must not be negative")
	ErrMissingCurrency   = errors.New("order: currency is required")
	ErrMissingGateway    = errors.New("order: gateway is required")
)

const (
	NumberLength   = 8
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Order struct {
	ID          uuid.UUID
	Number      string
	BuyerID     int64
	ProductID   int64
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	Currency    string
	Status      Status
	Gateway     string
	InvoiceRef  string
	Delivered   bool
	DeliveredAt *time.Time
	PaidAt      *time.Time
	CreatedAt   time.Time
	ExpiresAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

type NewParams struct {
	BuyerID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Currency  string
	Gateway   string
}

func New(p NewParams, now time.Time, ttl time.Duration) (*Order, error) {
	if p.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if p.UnitPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if p.Currency == "" {
		return nil, ErrMissingCurrency
	}
	if p.Gateway == "" {
		return nil, ErrMissingGateway
	}

	number, err := NewNumber()
	if err != nil {
		return nil, err
	}

	return &Order{
		ID:        uuid.New(),
		Number:    number,
		BuyerID:   p.BuyerID,
		ProductID: p.ProductID,
		Quantity:  p.Quantity,
		UnitPrice: p.UnitPrice,
		Total:     p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))),
		Currency:  p.Currency,
		Status:    StatusPending,
		Gateway:   p.Gateway,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
		Version:   1,
	}, nil
}

// NewNumber returns a human readable order number drawn from A-Z0-9.
func NewNumber() (string, error) {
	limit := big.NewInt(int64(len(numberAlphabet)))
	buf := make([]byte, NumberLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = numberAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Apply moves the order along ev in memory. Persisting it, with the version read
// before Apply, is the caller's job.
func (o *Order) Apply(ev Event, now time.Time) (Status, error) {
	next, ok := Next(o.Status, ev)
	if !ok {
		return o.Status, ErrInvalidTransition
	}

	if ev == EventDelivered {
		if o.Delivered {
			return o.Status, ErrAlreadyDelivered
		}
		o.Delivered = true
		o.DeliveredAt = &now
		o.UpdatedAt = now
		return o.Status, nil
	}

	o.Status = next
	if next == StatusPaid {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
	return next, nil
}

func (o *Order) IsExpired(now time.Time) bool {
	return o.Status == StatusPending && now.After(o.ExpiresAt)
}

func (o *Order) IsOwnedBy(buyerID int64) bool {
	return o.BuyerID == buyerID
}
