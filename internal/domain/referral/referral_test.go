//go:build unit

package referral_test

import (
	"testing"
	"time"

	"digital-store/internal/domain/referral"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name       string
		rates      []string
		maxDepth   int
		wantLevels int
		errIs      error
	}{
		{name: "default three levels", rates: []string{"10", "5", "2"}, maxDepth: 3, wantLevels: 3},
		{name: "depth narrower than rates", rates: []string{"10", "5", "2"}, maxDepth: 2, wantLevels: 2},
		{name: "hard cap applies", rates: []string{"7", "6", "5", "4", "3", "2", "1"}, maxDepth: 10, wantLevels: referral.HardMaxLevel},
		{name: "blank entries skipped", rates: []string{"10", " ", "5"}, maxDepth: 5, wantLevels: 2},
		{name: "negative rate rejected", rates: []string{"-1"}, maxDepth: 3, errIs: referral.ErrInvalidRate},
		{name: "non numeric rejected", rates: []string{"ten"}, maxDepth: 3, errIs: referral.ErrInvalidRate},
		{name: "over 100 rejected", rates: []string{"101"}, maxDepth: 3, errIs: referral.ErrInvalidRate},
		{name: "no rates", rates: nil, maxDepth: 3, errIs: referral.ErrNoRewardLevels},
		{name: "zero depth", rates: []string{"10"}, maxDepth: 0, errIs: referral.ErrNoRewardLevels},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := referral.NewPolicy(tc.rates, tc.maxDepth)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLevels, p.Levels())
		})
	}
}

func TestPolicyAmount(t *testing.T) {
	p, err := referral.NewPolicy([]string{"10", "5", "2.5"}, 3)
	require.NoError(t, err)

	total := decimal.RequireFromString("333.33")
	assert.Equal(t, "33.33", p.Amount(1, total, "RUB").StringFixed(2))
	assert.Equal(t, "16.67", p.Amount(2, total, "USD").StringFixed(2))
	assert.Equal(t, "8.33", p.Amount(3, total, "EUR").StringFixed(2))
	assert.True(t, p.Amount(4, total, "RUB").IsZero())
	assert.True(t, p.Amount(0, total, "RUB").IsZero())

	stars := decimal.NewFromInt(99)
	assert.Equal(t, "9", p.Amount(1, stars, "XTR").String())
	assert.Equal(t, "4", p.Amount(2, stars, "XTR").String())
	assert.Equal(t, "2", p.Amount(3, stars, "XTR").String())
}

func TestEdge(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	e, err := referral.NewEdge(2, 1, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Level)

	e, err = referral.NewEdge(3, 2, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Level)

	e, err = referral.NewEdge(9, 8, referral.HardMaxLevel, now)
	require.NoError(t, err)
	assert.Equal(t, referral.HardMaxLevel, e.Level)

	_, err = referral.NewEdge(5, 5, 0, now)
	require.ErrorIs(t, err, referral.ErrSelfReferral)

	require.NoError(t, referral.CheckAcyclic(4, []int64{3, 2, 1}))
	require.ErrorIs(t, referral.CheckAcyclic(2, []int64{3, 2, 1}), referral.ErrCycle)
}
