package catalog

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("catalog: product not found")

const defaultDeliveryMessage = "Your order #{order_number} has been completed!"

// Product is a read-only catalog entry. A nil StockCount means unlimited stock.
type Product struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	Currency         string          `json:"currency"`
	StockCount       *int            `json:"stock_count"`
	IsActive         bool            `json:"is_active"`
	DeliveryTemplate string          `json:"delivery_template"`
}

func (p *Product) Unlimited() bool {
	return p.StockCount == nil
}

// RenderDelivery fills {order_number}, {product_name}, {quantity} and {user_id}.
func (p *Product) RenderDelivery(orderNumber string, quantity int, userID int64) string {
	tmpl := p.DeliveryTemplate
	if strings.TrimSpace(tmpl) == "" {
		tmpl = defaultDeliveryMessage
	}
	r := strings.NewReplacer(
		"{order_number}", orderNumber,
		"{product_name}", p.Name,
		"{quantity}", strconv.Itoa(quantity),
		"{user_id}", strconv.FormatInt(userID, 10),
	)
	return r.Replace(tmpl)
}
