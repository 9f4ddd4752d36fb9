//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"digital-store/internal/domain/catalog"
	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	catalogfile "digital-store/internal/infra/catalog"
	"digital-store/internal/infra/gateway"
	"digital-store/internal/infra/memory"
	"digital-store/internal/infra/metrics"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGateway = "fakepay"

	productUnlimited int64 = 1
	productFinite    int64 = 2
	productLastOne   int64 = 3
	productInactive  int64 = 4
)

var baseTime = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

const testCatalog = `[
  {"id":1,"name":"Sticker pack","price":"50","currency":"XTR","stock_count":null,"is_active":true},
  {"id":2,"name":"Game key","price":"10.00","currency":"USD","stock_count":5,"is_active":true,
   "delivery_template":"Key for {order_number}"},
  {"id":3,"name":"Last copy","price":"100","currency":"XTR","stock_count":1,"is_active":true},
  {"id":4,"name":"Retired","price":"1","currency":"USD","stock_count":null,"is_active":false}
]`

// fakeGateway trusts callbacks whose "sig" is "ok".
type fakeGateway struct {
	mu         sync.Mutex
	invoiceErr error
	invoices   int
}

type fakeCallback struct {
	EventID  string `json:"event_id"`
	OrderID  string `json:"order_id"`
	Kind     string `json:"kind"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Sig      string `json:"sig"`
}

func (g *fakeGateway) Name() string { return testGateway }

func (g *fakeGateway) CreateInvoice(_ context.Context, o *order.Order, _ *catalog.Product) (shared.InvoiceRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.invoiceErr != nil {
		return shared.InvoiceRef{}, g.invoiceErr
	}
	g.invoices++
	return shared.InvoiceRef{Ref: "inv_" + o.Number, URL: "https://pay.example/" + o.Number}, nil
}

func (g *fakeGateway) VerifyCallback(_ context.Context, raw []byte, _ http.Header) (*payment.VerifiedEvent, error) {
	var cb fakeCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedPayload, err)
	}
	if cb.Sig != "ok" {
		return nil, payment.ErrSignatureInvalid
	}
	id, err := uuid.Parse(cb.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrMalformedPayload, err)
	}
	ev := &payment.VerifiedEvent{
		Gateway:   testGateway,
		EventID:   cb.EventID,
		OrderID:   id,
		Kind:      payment.Kind(cb.Kind),
		RawStatus: cb.Kind,
		Currency:  cb.Currency,
	}
	if cb.Amount != "" {
		if ev.Amount, err = decimal.NewFromString(cb.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrMalformedPayload, err)
		}
	}
	return ev, nil
}

func callback(t *testing.T, eventID string, orderID uuid.UUID, kind payment.Kind) []byte {
	t.Helper()
	raw, err := json.Marshal(fakeCallback{EventID: eventID, OrderID: orderID.String(), Kind: string(kind), Sig: "ok"})
	require.NoError(t, err)
	return raw
}

func paidCallback(t *testing.T, eventID string, orderID uuid.UUID, amount, currency string) []byte {
	t.Helper()
	raw, err := json.Marshal(fakeCallback{
		EventID:  eventID,
		OrderID:  orderID.String(),
		Kind:     string(payment.KindPaid),
		Amount:   amount,
		Currency: currency,
		Sig:      "ok",
	})
	require.NoError(t, err)
	return raw
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []shared.DeliveryMessage
	err  error
}

func (s *recordingSink) Deliver(_ context.Context, msg shared.DeliveryMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSink) delivered() []shared.DeliveryMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shared.DeliveryMessage(nil), s.msgs...)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]payment.CachedOutcome
}

func (c *mapCache) Get(_ context.Context, gw, id string) (*payment.CachedOutcome, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[gw+"/"+id]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *mapCache) Put(_ context.Context, gw, id string, v payment.CachedOutcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[gw+"/"+id] = v
	return nil
}

type fixture struct {
	t          *testing.T
	cfg        config.Config
	store      *memory.Store
	clock      *clock.MockClock
	gateway    *fakeGateway
	sink       *recordingSink
	cache      *mapCache
	allocator  *commands.Allocator
	machine    *commands.StateMachine
	purchase   *commands.PurchaseService
	ingestor   *commands.Ingestor
	dispatcher *commands.Dispatcher
	rewards    *commands.RewardEngine
	users      *commands.UserService
	sweeper    *commands.Sweeper
	reconciler *commands.Reconciler
	jobs       *commands.JobRunner
	admin      *commands.AdminService
}

func newFixture(t *testing.T, opts ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.NewTestConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &fixture{
		t:       t,
		cfg:     cfg,
		store:   memory.NewStore(),
		clock:   clock.NewMockClock(baseTime),
		gateway: &fakeGateway{},
		sink:    &recordingSink{},
		cache:   &mapCache{m: map[string]payment.CachedOutcome{}},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.Nop{}
	cat, err := catalogfile.Parse([]byte(testCatalog))
	require.NoError(t, err)
	// Stars without a secret accepts any well-formed callback, as it does by default.
	registry := gateway.NewRegistry(f.gateway, gateway.NewStars(""))

	f.allocator = commands.NewAllocator(cfg, f.clock, m, logger)
	f.machine = commands.NewStateMachine(cfg, f.store, f.allocator, f.clock, m, logger)
	f.purchase = commands.NewPurchaseService(cfg, f.store, f.allocator, f.machine, cat, registry, f.clock, logger)
	f.ingestor = commands.NewIngestor(cfg, f.store, registry, f.machine, f.cache, f.clock, m, logger)
	f.dispatcher = commands.NewDispatcher(f.machine, cat, f.sink, logger)
	f.rewards, err = commands.NewRewardEngine(cfg, f.store, f.clock, logger)
	require.NoError(t, err)
	f.users = commands.NewUserService(f.store, f.clock, logger)
	f.sweeper = commands.NewSweeper(cfg, f.store, f.machine, f.clock, m, logger)
	f.reconciler = commands.NewReconciler(cfg, f.store, f.ingestor, f.clock, logger)
	f.jobs = commands.NewJobRunner(cfg, f.store, f.dispatcher, f.rewards, f.clock, m, logger)
	f.admin = commands.NewAdminService(f.machine, f.dispatcher, f.reconciler, f.sweeper, f.jobs, logger)

	products, err := cat.Products(context.Background())
	require.NoError(t, err)
	err = f.store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		for _, p := range products {
			if p.Unlimited() {
				continue
			}
			if _, err := tx.Stock().Seed(ctx, p.ID, *p.StockCount, baseTime); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) register(id int64, referrerID *int64) {
	f.t.Helper()
	_, err := f.users.Register(context.Background(), id, "", referrerID)
	require.NoError(f.t, err)
}

func (f *fixture) buy(buyerID, productID int64, qty int) *order.Order {
	f.t.Helper()
	res, err := f.purchase.Purchase(context.Background(), commands.PurchaseRequest{
		BuyerID:   buyerID,
		ProductID: productID,
		Quantity:  qty,
		Gateway:   testGateway,
	})
	require.NoError(f.t, err)
	return res.Order
}

func (f *fixture) pay(o *order.Order, eventID string) *commands.IngestResult {
	f.t.Helper()
	res, err := f.ingestor.Ingest(context.Background(), testGateway, callback(f.t, eventID, o.ID, payment.KindPaid), http.Header{})
	require.NoError(f.t, err)
	return res
}

func (f *fixture) order(id uuid.UUID) *order.Order {
	f.t.Helper()
	o, err := f.machine.Get(context.Background(), id)
	require.NoError(f.t, err)
	return o
}

func (f *fixture) stock(productID int64) (available, sold int) {
	f.t.Helper()
	var avail, s int
	err := f.store.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		st, err := tx.Stock().Get(ctx, productID)
		if err != nil {
			return err
		}
		avail, s = st.Available, st.Sold
		return nil
	})
	require.NoError(f.t, err)
	return avail, s
}

func ptr[T any](v T) *T { return &v }

// isErr matches marks as well as wrapped causes.
func isErr(t *testing.T, err, target error) bool {
	t.Helper()
	return assert.Truef(t, errs.Is(err, target), "expected %v, got %v", target, err)
}
