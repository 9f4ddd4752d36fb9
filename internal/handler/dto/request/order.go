package request

import (
	"strings"

	"digital-store/internal/usecase/commands"
)

type PurchaseRequest struct {
	BuyerID   int64  `json:"buyer_id" binding:"required,gt=0"`
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,lte=1000"`
	Gateway   string `json:"gateway" binding:"required,max=32"`
}

func (r *PurchaseRequest) ToCommand() commands.PurchaseRequest {
	return commands.PurchaseRequest{
		BuyerID:   r.BuyerID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Gateway:   strings.ToLower(strings.TrimSpace(r.Gateway)),
	}
}

type CancelOrderRequest struct {
	BuyerID int64 `json:"buyer_id" binding:"required,gt=0"`
}

type ListOrdersQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit" binding:"omitempty,gte=0"`
	Offset int    `form:"offset" binding:"omitempty,gte=0"`
}

type ListPaymentEventsQuery struct {
	Outcome string `form:"outcome"`
	Limit   int    `form:"limit" binding:"omitempty,gte=0"`
	Offset  int    `form:"offset" binding:"omitempty,gte=0"`
}
