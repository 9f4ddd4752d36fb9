package response

import (
	"digital-store/internal/usecase/commands"

	"github.com/google/uuid"
)

// WebhookResponse is what the gateway sees. Any 2xx stops its redelivery, so
// Warning is the only trace of an event that needs an operator.
type WebhookResponse struct {
	Status      string    `json:"status"`
	EventID     string    `json:"event_id"`
	OrderID     uuid.UUID `json:"order_id"`
	Outcome     string    `json:"outcome"`
	OrderStatus string    `json:"order_status,omitempty"`
	Duplicate   bool      `json:"duplicate"`
	Warning     string    `json:"warning,omitempty"`
}

func FromIngestResult(r *commands.IngestResult) WebhookResponse {
	return WebhookResponse{
		Status:      "ok",
		EventID:     r.EventID,
		OrderID:     r.OrderID,
		Outcome:     string(r.Outcome),
		OrderStatus: r.ResultStatus,
		Duplicate:   r.Duplicate,
	}
}
