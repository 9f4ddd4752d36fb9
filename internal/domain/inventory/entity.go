package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be positive")
	ErrNothingToCommit   = errors.New("inventory: sold units exceed reserved units")
)

type State string

const (
	StateActive    State = "active"
	StateCommitted State = "committed"
	StateReleased  State = "released"
)

// Stock is the per-product counter. Available already excludes units held by
// active reservations; Sold counts committed ones.
type Stock struct {
	ProductID int64
	Total     int
	Available int
	Sold      int
	Version   int64
	UpdatedAt time.Time
}

func (s Stock) Reserve(qty int) (Stock, error) {
	if qty <= 0 {
		return s, ErrInvalidQuantity
	}
	if s.Available < qty {
		return s, ErrInsufficientStock
	}
	s.Available -= qty
	return s, nil
}

func (s Stock) Release(qty int) Stock {
	s.Available += qty
	return s
}

func (s Stock) Commit(qty int) (Stock, error) {
	if s.Sold+qty+s.Available > s.Total {
		return s, ErrNothingToCommit
	}
	s.Sold += qty
	return s, nil
}

// Held is the number of units sitting in active reservations.
func (s Stock) Held() int {
	return s.Total - s.Available - s.Sold
}

// Reservation is keyed by order id; the order id is the reservation token.
type Reservation struct {
	OrderID    uuid.UUID
	ProductID  int64
	Quantity   int
	Unlimited  bool
	State      State
	ReservedAt time.Time
	UpdatedAt  time.Time
}

type Token struct {
	OrderID   uuid.UUID
	ProductID int64
	Quantity  int
	Unlimited bool
}

func NewReservation(tok Token, now time.Time) *Reservation {
	return &Reservation{
		OrderID:    tok.OrderID,
		ProductID:  tok.ProductID,
		Quantity:   tok.Quantity,
		Unlimited:  tok.Unlimited,
		State:      StateActive,
		ReservedAt: now,
		UpdatedAt:  now,
	}
}

func (r *Reservation) Token() Token {
	return Token{OrderID: r.OrderID, ProductID: r.ProductID, Quantity: r.Quantity, Unlimited: r.Unlimited}
}
