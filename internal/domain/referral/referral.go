package referral

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HardMaxLevel bounds every walk of the referral chain regardless of configuration.
const HardMaxLevel = 5

var (
	ErrSelfReferral   = errors.New("referral: user cannot refer themselves")
	ErrCycle          = errors.New("referral: edge would create a cycle")
	ErrInvalidRate    = errors.New("referral: invalid reward rate")
	ErrNoRewardLevels = errors.New("referral: no reward levels configured")
)

// Edge records who referred whom. Level is the referred user's depth below the root referrer.
type Edge struct {
	ReferredID int64
	ReferrerID int64
	Level      int
	CreatedAt  time.Time
}

func NewEdge(referredID, referrerID int64, referrerLevel int, now time.Time) (*Edge, error) {
	if referredID == referrerID {
		return nil, ErrSelfReferral
	}
	return &Edge{
		ReferredID: referredID,
		ReferrerID: referrerID,
		Level:      min(referrerLevel+1, HardMaxLevel),
		CreatedAt:  now,
	}, nil
}

// CheckAcyclic fails when referredID already appears among the referrer's ancestors.
// ancestors is the referrer chain walked upwards, nearest first.
func CheckAcyclic(referredID int64, ancestors []int64) error {
	if slices.Contains(ancestors, referredID) {
		return ErrCycle
	}
	return nil
}

type Reward struct {
	OrderID    uuid.UUID
	ReferrerID int64
	ReferredID int64
	Level      int
	Amount     decimal.Decimal
	Currency   string
	CreditedAt time.Time
}

// Policy holds the decaying per-level rates as fractions of the order total.
type Policy struct {
	rates    []decimal.Decimal
	maxDepth int
}

func NewPolicy(percents []string, maxDepth int) (Policy, error) {
	rates := make([]decimal.Decimal, 0, len(percents))
	for _, p := range percents {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := decimal.NewFromString(p)
		if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return Policy{}, fmt.Errorf("%w: %q", ErrInvalidRate, p)
		}
		rates = append(rates, d.Div(decimal.NewFromInt(100)))
	}
	if len(rates) == 0 || maxDepth <= 0 {
		return Policy{}, ErrNoRewardLevels
	}
	return Policy{rates: rates, maxDepth: maxDepth}, nil
}

// Levels is how far up the chain a reward walk may go.
func (p Policy) Levels() int {
	return min(len(p.rates), p.maxDepth, HardMaxLevel)
}

// Amount returns the reward for level (1-based). Stars are whole units so XTR rounds down.
func (p Policy) Amount(level int, total decimal.Decimal, currency string) decimal.Decimal {
	if level < 1 || level > p.Levels() {
		return decimal.Zero
	}
	raw := total.Mul(p.rates[level-1])
	if strings.EqualFold(currency, "XTR") {
		return raw.Floor()
	}
	return raw.Round(2)
}
