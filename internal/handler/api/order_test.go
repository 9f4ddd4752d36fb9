//go:build unit

package api_test

import (
	"context"
	"net/http"
	"testing"

	"digital-store/internal/handler/api"
	reqdto "digital-store/internal/handler/dto/request"
	resdto "digital-store/internal/handler/dto/response"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/testutil"
	"digital-store/internal/testutil/httptest"
	"digital-store/internal/usecase/commands"
	commandsmock "digital-store/internal/usecase/commands/mock"
	"digital-store/internal/usecase/queries"
	queriesmock "digital-store/internal/usecase/queries/mock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type OrderHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockOrderCommands
	mockQueries  *queriesmock.MockOrderQueries
	handler      *api.OrderHandler
}

func (s *OrderHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockOrderCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockOrderQueries(s.mockCtrl)
	s.handler = api.NewOrderHandler(s.mockCommands, s.mockQueries)

	s.router.POST("/api/orders", s.handler.Purchase)
	s.router.GET("/api/orders/:id", s.handler.Get)
	s.router.POST("/api/orders/:id/cancel", s.handler.Cancel)
}

func (s *OrderHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}

type testCaseOrder struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

func (s *OrderHandlerTestSuite) TestPurchase() {
	url := "/api/orders"
	reqBody := reqdto.PurchaseRequest{BuyerID: 42, ProductID: 2, Quantity: 2, Gateway: "cryptomus"}
	o := newTestOrder(s.T(), 42)

	s.Run("success: returns 201 with the order and invoice", func() {
		s.mockCommands.EXPECT().Purchase(gomock.Any(), commands.PurchaseRequest{
			BuyerID: 42, ProductID: 2, Quantity: 2, Gateway: "cryptomus",
		}).Return(&commands.PurchaseResult{Order: o, InvoiceURL: "https://pay.example/inv"}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")

		var body resdto.PurchaseResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(o.ID, body.Order.ID)
		s.Equal("PENDING", body.Order.Status)
		s.True(body.Order.Total.Equal(o.Total))
		s.Equal("https://pay.example/inv", body.InvoiceURL)
		s.Equal(o.InvoiceRef, body.InvoiceRef)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Location": "/api/orders/" + o.ID.String()})
	})

	s.Run("success: gateway name is normalised", func() {
		s.mockCommands.EXPECT().Purchase(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r commands.PurchaseRequest) (*commands.PurchaseResult, error) {
				s.Equal("telegram_stars", r.Gateway)
				return &commands.PurchaseResult{Order: o}, nil
			}).Times(1)

		body := testutil.DtoMap(s.T(), reqBody, testutil.Field("gateway", " Telegram_Stars "))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []testCaseOrder{
			{name: "missing field: buyer_id", mutate: testutil.Field("buyer_id", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: product_id", mutate: testutil.Field("product_id", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: gateway", mutate: testutil.Field("gateway", nil), expectCode: http.StatusBadRequest},
			{name: "quantity boundary invalid (0)", mutate: testutil.Field("quantity", 0), expectCode: http.StatusBadRequest},
			{name: "quantity boundary invalid (-1)", mutate: testutil.Field("quantity", -1), expectCode: http.StatusBadRequest},
			{name: "quantity boundary invalid (1001)", mutate: testutil.Field("quantity", 1001), expectCode: http.StatusBadRequest},
			{name: "quantity wrong type", mutate: testutil.Field("quantity", "two"), expectCode: http.StatusBadRequest},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				body := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
			})
		}
	})

	s.Run("error: purchase failures map onto status codes", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
			expectErr  string
		}{
			{name: "insufficient stock", err: errs.Mark(errs.New("x"), commands.ErrInsufficientStock), expectCode: http.StatusConflict, expectErr: "insufficient_stock"},
			{name: "inactive product", err: errs.Mark(errs.New("x"), commands.ErrProductInactive), expectCode: http.StatusUnprocessableEntity, expectErr: "product_inactive"},
			{name: "contention", err: errs.Mark(errs.New("x"), commands.ErrContention), expectCode: http.StatusServiceUnavailable, expectErr: "retry"},
			{name: "unknown product", err: errs.Mark(errs.New("x"), commands.ErrProductNotFound), expectCode: http.StatusNotFound, expectErr: "product_not_found"},
			{name: "unregistered buyer", err: errs.Mark(errs.New("x"), commands.ErrUserNotFound), expectCode: http.StatusNotFound, expectErr: "buyer_not_found"},
			{name: "banned buyer", err: errs.Mark(errs.New("x"), commands.ErrBuyerBanned), expectCode: http.StatusForbidden, expectErr: "buyer_banned"},
			{name: "disabled gateway", err: errs.Mark(errs.New("x"), commands.ErrUnknownGateway), expectCode: http.StatusBadRequest, expectErr: "unknown_gateway"},
			{name: "gateway down", err: errs.Mark(errs.New("x"), commands.ErrInvoiceFailed), expectCode: http.StatusBadGateway, expectErr: "invoice_failed"},
			{name: "unexpected", err: errs.New("boom"), expectCode: http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Purchase(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectErr)
			})
		}
	})
}

func (s *OrderHandlerTestSuite) TestCancel() {
	o := newTestOrder(s.T(), 42)
	url := "/api/orders/" + o.ID.String() + "/cancel"

	s.Run("success: returns the cancelled order", func() {
		cancelled := *o
		cancelled.Status = "CANCELLED"
		s.mockCommands.EXPECT().Cancel(gomock.Any(), o.ID, int64(42)).Return(&cancelled, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqdto.CancelOrderRequest{BuyerID: 42}, "")

		var body resdto.OrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("CANCELLED", body.Status)
	})

	s.Run("error: another buyer's order looks missing", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), o.ID, int64(7)).
			Return(nil, errs.Mark(errs.New("x"), commands.ErrNotOrderOwner)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqdto.CancelOrderRequest{BuyerID: 7}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "order_not_found")
	})

	s.Run("error: paid order cannot be cancelled", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), o.ID, int64(42)).
			Return(nil, errs.Mark(errs.New("x"), commands.ErrInvalidTransition)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqdto.CancelOrderRequest{BuyerID: 42}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "invalid_transition")
	})

	s.Run("error: 400 for a malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/orders/nope/cancel", reqdto.CancelOrderRequest{BuyerID: 42}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})
}

func (s *OrderHandlerTestSuite) TestGet() {
	o := newTestOrder(s.T(), 42)
	view := queries.NewOrderView(o)
	url := "/api/orders/" + o.ID.String()

	s.Run("success: returns the order", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), o.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?buyer_id=42", nil, "")

		var body resdto.OrderResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(o.Number, body.Number)
	})

	s.Run("error: 404 when the buyer does not own the order", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), o.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?buyer_id=7", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "")
	})

	s.Run("error: 404 for an unknown order", func() {
		missing := uuid.New()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), missing).
			Return(nil, errs.Mark(errs.New("x"), queries.ErrOrderNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders/"+missing.String(), nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "order_not_found")
	})
}
