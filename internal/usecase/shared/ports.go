package shared

import (
	"context"
	"net/http"

	"digital-store/internal/domain/catalog"
	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"

	"github.com/google/uuid"
)

type InvoiceRef struct {
	Ref string
	URL string
}

// Gateway is the capability every payment processor implements.
type Gateway interface {
	Name() string
	CreateInvoice(ctx context.Context, o *order.Order, p *catalog.Product) (InvoiceRef, error)
	// VerifyCallback authenticates raw before anything in it is trusted. Failures
	// are marked with payment.ErrSignatureInvalid or payment.ErrMalformedPayload.
	VerifyCallback(ctx context.Context, raw []byte, headers http.Header) (*payment.VerifiedEvent, error)
}

// GatewayRegistry resolves the gateway stored on an order. Disabled gateways are absent.
type GatewayRegistry interface {
	Get(name string) (Gateway, bool)
	Names() []string
}

type Catalog interface {
	Product(ctx context.Context, id int64) (*catalog.Product, error)
	Products(ctx context.Context) ([]*catalog.Product, error)
}

type DeliveryMessage struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerID     int64     `json:"buyer_id"`
	ProductID   int64     `json:"product_id"`
	Quantity    int       `json:"quantity"`
	Payload     string    `json:"payload"`
}

// DeliverySink hands a paid order to the external delivery collaborator. The
// collaborator deduplicates on OrderID.
type DeliverySink interface {
	Deliver(ctx context.Context, msg DeliveryMessage) error
}

// OutcomeCache is a best-effort fast path in front of the payment event table.
// Only final outcomes are stored.
type OutcomeCache interface {
	Get(ctx context.Context, gateway, eventID string) (*payment.CachedOutcome, bool, error)
	Put(ctx context.Context, gateway, eventID string, outcome payment.CachedOutcome) error
}

type Metrics interface {
	WebhookProcessed(gateway, outcome string)
	ReservationAttempt(result string)
	Transition(event, result string)
	OrdersExpired(n int)
	JobFinished(kind, result string)
}
