package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"digital-store/internal/domain/catalog"
	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SecretTokenHeader is the header the bot platform echoes back on every
// webhook when a secret token was registered.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Stars is the in-platform currency. Payment happens inside the chat
// platform, so there is no invoice API and no payload signature; the only
// check is the optional shared secret header.
type Stars struct {
	secret string
}

func NewStars(secret string) *Stars {
	return &Stars{secret: secret}
}

func (s *Stars) Name() string {
	return payment.GatewayTelegramStars
}

func (s *Stars) CreateInvoice(_ context.Context, o *order.Order, _ *catalog.Product) (shared.InvoiceRef, error) {
	return shared.InvoiceRef{Ref: "stars_" + o.Number}, nil
}

type starsCallback struct {
	ChargeID       string          `json:"telegram_payment_charge_id"`
	InvoicePayload string          `json:"invoice_payload"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
}

func (s *Stars) VerifyCallback(_ context.Context, raw []byte, headers http.Header) (*payment.VerifiedEvent, error) {
	if s.secret != "" {
		got := headers.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			return nil, errs.Wrap(payment.ErrSignatureInvalid, "secret token mismatch")
		}
	}

	var cb starsCallback
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&cb); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode stars callback"), payment.ErrMalformedPayload)
	}
	if cb.ChargeID == "" {
		return nil, errs.Mark(errs.New("missing telegram_payment_charge_id"), payment.ErrMalformedPayload)
	}
	orderID, err := uuid.Parse(cb.InvoicePayload)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "invoice_payload is not an order id"), payment.ErrMalformedPayload)
	}

	kind := payment.KindPaid
	switch strings.ToLower(cb.Status) {
	case "", "paid":
	case "failed":
		kind = payment.KindFailed
	default:
		kind = payment.KindInfo
	}

	return &payment.VerifiedEvent{
		Gateway:   s.Name(),
		EventID:   cb.ChargeID,
		OrderID:   orderID,
		Kind:      kind,
		RawStatus: cb.Status,
		Amount:    cb.TotalAmount,
		Currency:  strings.ToUpper(cb.Currency),
	}, nil
}
