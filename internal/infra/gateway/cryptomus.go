package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5" // #nosec G501 -- the processor defines md5 as its signature scheme
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf16"

	"digital-store/internal/domain/catalog"
	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errInvoiceRejected = errs.New("cryptomus rejected invoice")

// Cryptomus is the external crypto processor. Requests and callbacks are
// signed with md5(canonical JSON + api key).
type Cryptomus struct {
	merchantID  string
	apiKey      string
	baseURL     string
	callbackURL string
	returnURL   string
	client      *http.Client
}

func NewCryptomus(cfg config.CryptomusConfig, client *http.Client) *Cryptomus {
	if client == nil {
		client = http.DefaultClient
	}
	return &Cryptomus{
		merchantID:  cfg.MerchantID,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		returnURL:   cfg.ReturnURL,
		client:      client,
	}
}

func (c *Cryptomus) Name() string {
	return payment.GatewayCryptomus
}

type invoiceResponse struct {
	State  int             `json:"state"`
	Result *invoiceResult  `json:"result"`
	UUID   string          `json:"uuid"`
	URL    string          `json:"url"`
	Errors json.RawMessage `json:"errors"`
}

type invoiceResult struct {
	UUID string `json:"uuid"`
	URL  string `json:"url"`
}

func (c *Cryptomus) CreateInvoice(ctx context.Context, o *order.Order, _ *catalog.Product) (shared.InvoiceRef, error) {
	body := map[string]any{
		"amount":   o.Total.String(),
		"currency": o.Currency,
		"order_id": o.ID.String(),
	}
	if c.callbackURL != "" {
		body["callback_url"] = c.callbackURL
	}
	if c.returnURL != "" {
		body["return_url"] = c.returnURL
	}

	payload, err := canonicalJSON(body)
	if err != nil {
		return shared.InvoiceRef{}, errs.Wrap(err, "encode invoice request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment", bytes.NewReader(payload))
	if err != nil {
		return shared.InvoiceRef{}, errs.Wrap(err, "build invoice request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", c.merchantID)
	req.Header.Set("sign", c.sign(payload))

	resp, err := c.client.Do(req)
	if err != nil {
		return shared.InvoiceRef{}, errs.Wrap(err, "call cryptomus")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return shared.InvoiceRef{}, errs.Wrap(err, "read invoice response")
	}
	if resp.StatusCode != http.StatusOK {
		return shared.InvoiceRef{}, errs.Mark(
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 256)),
			errInvoiceRejected,
		)
	}

	var parsed invoiceResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return shared.InvoiceRef{}, errs.Wrap(err, "decode invoice response")
	}
	ref := shared.InvoiceRef{Ref: parsed.UUID, URL: parsed.URL}
	if parsed.Result != nil {
		ref = shared.InvoiceRef{Ref: parsed.Result.UUID, URL: parsed.Result.URL}
	}
	if ref.Ref == "" {
		return shared.InvoiceRef{}, errs.Mark(errs.New("response has no invoice uuid"), errInvoiceRejected)
	}
	return ref, nil
}

type cryptomusCallback struct {
	UUID     string          `json:"uuid"`
	OrderID  string          `json:"order_id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Sign     string          `json:"sign"`
}

func (c *Cryptomus) VerifyCallback(_ context.Context, raw []byte, _ http.Header) (*payment.VerifiedEvent, error) {
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode cryptomus callback"), payment.ErrMalformedPayload)
	}

	got, _ := fields["sign"].(string)
	if got == "" {
		return nil, errs.Wrap(payment.ErrSignatureInvalid, "missing sign")
	}
	delete(fields, "sign")
	unsigned, err := canonicalJSON(fields)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "re-encode callback"), payment.ErrMalformedPayload)
	}
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(c.sign(unsigned))) {
		return nil, errs.Wrap(payment.ErrSignatureInvalid, "sign mismatch")
	}

	// Only now is the content trusted.
	var cb cryptomusCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode cryptomus callback"), payment.ErrMalformedPayload)
	}
	if cb.UUID == "" || cb.Status == "" {
		return nil, errs.Mark(errs.New("callback lacks uuid or status"), payment.ErrMalformedPayload)
	}
	orderID, err := uuid.Parse(cb.OrderID)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "order_id is not an order id"), payment.ErrMalformedPayload)
	}

	return &payment.VerifiedEvent{
		Gateway:   c.Name(),
		EventID:   cb.UUID + ":" + cb.Status,
		OrderID:   orderID,
		Kind:      cryptomusKind(cb.Status),
		RawStatus: cb.Status,
		Amount:    cb.Amount,
		Currency:  strings.ToUpper(cb.Currency),
	}, nil
}

func cryptomusKind(status string) payment.Kind {
	switch strings.ToLower(status) {
	case "paid", "paid_over":
		return payment.KindPaid
	case "fail", "failed", "cancel", "cancelled", "system_fail", "wrong_amount", "expired":
		return payment.KindFailed
	default:
		return payment.KindInfo
	}
}

// Sign exposes the signature for tests and for tooling that replays callbacks.
func (c *Cryptomus) Sign(payload []byte) string {
	return c.sign(payload)
}

func (c *Cryptomus) sign(payload []byte) string {
	sum := md5.Sum(append(append([]byte{}, payload...), c.apiKey...)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// canonicalJSON renders v with sorted keys, no whitespace and non-ASCII
// escaped as \uXXXX, the form both sides sign.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return escapeNonASCII(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func escapeNonASCII(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, r := range string(b) {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			out = fmt.Appendf(out, `\u%04x\u%04x`, hi, lo)
			continue
		}
		out = fmt.Appendf(out, `\u%04x`, r)
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
