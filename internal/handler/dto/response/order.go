package response

import (
	"digital-store/internal/domain/order"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"
)

type OrderResponse = queries.OrderView

type PurchaseResponse struct {
	Order      *OrderResponse `json:"order"`
	InvoiceRef string         `json:"invoice_ref"`
	InvoiceURL string         `json:"invoice_url,omitempty"`
}

func FromPurchaseResult(r *commands.PurchaseResult) PurchaseResponse {
	return PurchaseResponse{
		Order:      queries.NewOrderView(r.Order),
		InvoiceRef: r.Order.InvoiceRef,
		InvoiceURL: r.InvoiceURL,
	}
}

func FromOrder(o *order.Order) *OrderResponse {
	return queries.NewOrderView(o)
}

type OrderListResponse struct {
	Orders []*OrderResponse `json:"orders"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type PaymentEventListResponse struct {
	Events []*queries.PaymentEventView `json:"events"`
	Limit  int                         `json:"limit"`
	Offset int                         `json:"offset"`
}

type RewardListResponse struct {
	Rewards []*queries.RewardView `json:"rewards"`
}
