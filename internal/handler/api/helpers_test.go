//go:build unit

package api_test

import (
	"testing"
	"time"

	"digital-store/internal/domain/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T, buyerID int64) *order.Order {
	t.Helper()
	o, err := order.New(order.NewParams{
		BuyerID:   buyerID,
		ProductID: 2,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("10.00"),
		Currency:  "USD",
		Gateway:   "cryptomus",
	}, testNow, 15*time.Minute)
	require.NoError(t, err)
	o.InvoiceRef = "inv-" + o.Number
	return o
}
