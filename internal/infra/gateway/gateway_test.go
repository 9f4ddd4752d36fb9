//go:build unit

package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/infra/gateway"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *order.Order {
	return &order.Order{
		ID:       uuid.MustParse("0b9d5c3a-6d3e-4f4e-9a55-5b7a3e6f2c11"),
		Number:   "ORD-20261019-ABCD",
		Total:    decimal.RequireFromString("19.98"),
		Currency: "USD",
	}
}

func TestStars_CreateInvoice(t *testing.T) {
	s := gateway.NewStars("")
	ref, err := s.CreateInvoice(context.Background(), testOrder(), nil)
	require.NoError(t, err)
	assert.Equal(t, "stars_ORD-20261019-ABCD", ref.Ref)
	assert.Empty(t, ref.URL)
}

func TestStars_VerifyCallback(t *testing.T) {
	o := testOrder()
	body := []byte(`{"telegram_payment_charge_id":"ch_1","invoice_payload":"` + o.ID.String() + `","total_amount":20,"currency":"xtr","status":"paid"}`)

	t.Run("正常系: 支払い完了", func(t *testing.T) {
		ev, err := gateway.NewStars("").VerifyCallback(context.Background(), body, http.Header{})
		require.NoError(t, err)
		assert.Equal(t, payment.GatewayTelegramStars, ev.Gateway)
		assert.Equal(t, "ch_1", ev.EventID)
		assert.Equal(t, o.ID, ev.OrderID)
		assert.Equal(t, payment.KindPaid, ev.Kind)
		assert.Equal(t, "XTR", ev.Currency)
		assert.True(t, ev.Amount.Equal(decimal.NewFromInt(20)))
	})

	t.Run("シークレット一致", func(t *testing.T) {
		h := http.Header{}
		h.Set(gateway.SecretTokenHeader, "s3cret")
		_, err := gateway.NewStars("s3cret").VerifyCallback(context.Background(), body, h)
		require.NoError(t, err)
	})

	t.Run("シークレット不一致", func(t *testing.T) {
		h := http.Header{}
		h.Set(gateway.SecretTokenHeader, "wrong")
		_, err := gateway.NewStars("s3cret").VerifyCallback(context.Background(), body, h)
		assert.True(t, errs.Is(err, payment.ErrSignatureInvalid), "got %v", err)
	})

	t.Run("失敗ステータス", func(t *testing.T) {
		raw := []byte(`{"telegram_payment_charge_id":"ch_2","invoice_payload":"` + o.ID.String() + `","status":"failed"}`)
		ev, err := gateway.NewStars("").VerifyCallback(context.Background(), raw, http.Header{})
		require.NoError(t, err)
		assert.Equal(t, payment.KindFailed, ev.Kind)
	})

	malformed := map[string]string{
		"not json":       `{`,
		"missing charge": `{"invoice_payload":"` + o.ID.String() + `"}`,
		"payload not id": `{"telegram_payment_charge_id":"ch","invoice_payload":"ORD-1"}`,
	}
	for name, raw := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := gateway.NewStars("").VerifyCallback(context.Background(), []byte(raw), http.Header{})
			assert.True(t, errs.Is(err, payment.ErrMalformedPayload), "got %v", err)
		})
	}
}

func newCryptomus(baseURL string) *gateway.Cryptomus {
	return gateway.NewCryptomus(config.CryptomusConfig{
		MerchantID:  "merchant-1",
		APIKey:      "key-1",
		BaseURL:     baseURL,
		CallbackURL: "https://shop.example/api/v1/webhooks/cryptomus",
	}, nil)
}

func TestCryptomus_CreateInvoice(t *testing.T) {
	o := testOrder()

	t.Run("正常系: 署名付きで請求書を作成", func(t *testing.T) {
		var c *gateway.Cryptomus
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "/v1/payment", r.URL.Path)
			assert.Equal(t, "merchant-1", r.Header.Get("merchant"))
			assert.Equal(t, c.Sign(body), r.Header.Get("sign"))
			assert.JSONEq(t, `{"amount":"19.98","currency":"USD","order_id":"`+o.ID.String()+`","callback_url":"https://shop.example/api/v1/webhooks/cryptomus"}`, string(body))
			_, _ = w.Write([]byte(`{"state":0,"result":{"uuid":"inv-1","url":"https://pay.example/inv-1"}}`))
		}))
		defer srv.Close()
		c = newCryptomus(srv.URL)

		ref, err := c.CreateInvoice(context.Background(), o, nil)
		require.NoError(t, err)
		assert.Equal(t, "inv-1", ref.Ref)
		assert.Equal(t, "https://pay.example/inv-1", ref.URL)
	})

	t.Run("異常系: ステータスコードが200以外", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		_, err := newCryptomus(srv.URL).CreateInvoice(context.Background(), o, nil)
		assert.Error(t, err)
	})

	t.Run("異常系: uuidがない", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"state":0,"result":{}}`))
		}))
		defer srv.Close()

		_, err := newCryptomus(srv.URL).CreateInvoice(context.Background(), o, nil)
		assert.Error(t, err)
	})
}

func signedCallback(t *testing.T, c *gateway.Cryptomus, fields map[string]any) []byte {
	t.Helper()
	unsigned, err := json.Marshal(fields)
	require.NoError(t, err)
	signed := map[string]any{"sign": c.Sign(unsigned)}
	for k, v := range fields {
		signed[k] = v
	}
	raw, err := json.Marshal(signed)
	require.NoError(t, err)
	return raw
}

func TestCryptomus_VerifyCallback(t *testing.T) {
	o := testOrder()
	c := newCryptomus("http://unused")
	fields := func(status string) map[string]any {
		return map[string]any{
			"uuid":     "inv-1",
			"order_id": o.ID.String(),
			"status":   status,
			"amount":   "19.98",
			"currency": "usd",
		}
	}

	t.Run("正常系: paid", func(t *testing.T) {
		ev, err := c.VerifyCallback(context.Background(), signedCallback(t, c, fields("paid")), nil)
		require.NoError(t, err)
		assert.Equal(t, "inv-1:paid", ev.EventID)
		assert.Equal(t, o.ID, ev.OrderID)
		assert.Equal(t, payment.KindPaid, ev.Kind)
		assert.Equal(t, "USD", ev.Currency)
		assert.True(t, ev.Amount.Equal(o.Total))
	})

	t.Run("ステータスの分類", func(t *testing.T) {
		for status, want := range map[string]payment.Kind{
			"paid_over": payment.KindPaid,
			"cancel":    payment.KindFailed,
			"expired":   payment.KindFailed,
			"process":   payment.KindInfo,
			"check":     payment.KindInfo,
		} {
			ev, err := c.VerifyCallback(context.Background(), signedCallback(t, c, fields(status)), nil)
			require.NoError(t, err)
			assert.Equal(t, want, ev.Kind, status)
		}
	})

	t.Run("異常系: 改ざんされたペイロード", func(t *testing.T) {
		raw := signedCallback(t, c, fields("process"))
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		m["status"] = "paid"
		tampered, err := json.Marshal(m)
		require.NoError(t, err)

		_, err = c.VerifyCallback(context.Background(), tampered, nil)
		assert.True(t, errs.Is(err, payment.ErrSignatureInvalid), "got %v", err)
	})

	t.Run("異常系: 署名なし", func(t *testing.T) {
		raw, err := json.Marshal(fields("paid"))
		require.NoError(t, err)
		_, err = c.VerifyCallback(context.Background(), raw, nil)
		assert.True(t, errs.Is(err, payment.ErrSignatureInvalid), "got %v", err)
	})

	t.Run("異常系: 別のAPIキーで署名", func(t *testing.T) {
		other := gateway.NewCryptomus(config.CryptomusConfig{APIKey: "other"}, nil)
		_, err := c.VerifyCallback(context.Background(), signedCallback(t, other, fields("paid")), nil)
		assert.True(t, errs.Is(err, payment.ErrSignatureInvalid), "got %v", err)
	})

	t.Run("異常系: JSONではない", func(t *testing.T) {
		_, err := c.VerifyCallback(context.Background(), []byte("sign=abc"), nil)
		assert.True(t, errs.Is(err, payment.ErrMalformedPayload), "got %v", err)
	})
}

func TestRegistry(t *testing.T) {
	r := gateway.NewRegistry(gateway.NewStars(""), nil, newCryptomus("http://unused"))

	g, ok := r.Get(payment.GatewayCryptomus)
	require.True(t, ok)
	assert.Equal(t, payment.GatewayCryptomus, g.Name())

	_, ok = r.Get("paypal")
	assert.False(t, ok)
	assert.Equal(t, []string{payment.GatewayCryptomus, payment.GatewayTelegramStars}, r.Names())
}
