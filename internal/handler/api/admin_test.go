//go:build unit

package api_test

import (
	"context"
	"net/http"
	"testing"

	"digital-store/internal/domain/job"
	"digital-store/internal/handler/api"
	reqdto "digital-store/internal/handler/dto/request"
	resdto "digital-store/internal/handler/dto/response"
	"digital-store/internal/pkg/errs"
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

type AdminHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	mockCtrl  *gomock.Controller
	mockAdmin *commandsmock.MockAdminCommands
	mockUsers *commandsmock.MockUserCommands
	mockQuery *queriesmock.MockOrderQueries
	handler   *api.AdminHandler
}

func (s *AdminHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockAdmin = commandsmock.NewMockAdminCommands(s.mockCtrl)
	s.mockUsers = commandsmock.NewMockUserCommands(s.mockCtrl)
	s.mockQuery = queriesmock.NewMockOrderQueries(s.mockCtrl)
	s.handler = api.NewAdminHandler(s.mockAdmin, s.mockUsers, s.mockQuery)

	// auth is covered by the middleware tests
	g := s.router.Group("/api/admin")
	g.GET("/orders", s.handler.ListOrders)
	g.GET("/orders/stats", s.handler.Stats)
	g.GET("/orders/:id", s.handler.GetOrder)
	g.GET("/orders/:id/rewards", s.handler.Rewards)
	g.POST("/orders/:id/expire", s.handler.ForceExpire)
	g.POST("/orders/:id/release", s.handler.ForceRelease)
	g.POST("/orders/:id/redispatch", s.handler.Redispatch)
	g.POST("/orders/:id/refund", s.handler.Refund)
	g.POST("/orders/:id/retry-jobs", s.handler.RetryJobs)
	g.GET("/payment-events", s.handler.PaymentEvents)
	g.POST("/reconcile", s.handler.Reconcile)
	g.POST("/sweep", s.handler.Sweep)
	g.POST("/users/:id/ban", s.handler.SetBanned)
}

func (s *AdminHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}

func (s *AdminHandlerTestSuite) TestListOrders() {
	o := newTestOrder(s.T(), 42)

	s.Run("success: status filter and paging are passed through", func() {
		s.mockQuery.EXPECT().List(gomock.Any(), "PENDING", 10, 20).
			Return([]*queries.OrderView{queries.NewOrderView(o)}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/orders?status=PENDING&limit=10&offset=20", nil, "")

		var body resdto.OrderListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Len(body.Orders, 1)
		s.Equal(10, body.Limit)
		s.Equal(20, body.Offset)
	})

	s.Run("success: oversized limit is clamped", func() {
		s.mockQuery.EXPECT().List(gomock.Any(), "", queries.MaxListLimit, 0).Return(nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/orders?limit=5000", nil, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 for an unknown status", func() {
		s.mockQuery.EXPECT().List(gomock.Any(), "SHIPPED", gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(errs.New("x"), queries.ErrInvalidStatus)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/orders?status=SHIPPED", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid_status")
	})

	s.Run("error: 400 for a negative offset", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/orders?offset=-1", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})
}

func (s *AdminHandlerTestSuite) TestStats() {
	s.mockQuery.EXPECT().Stats(gomock.Any()).
		Return(&queries.OrderStats{ByStatus: map[string]int64{"PAID": 3, "PENDING": 1}, Total: 4}, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/orders/stats", nil, "")

	var body queries.OrderStats
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Equal(int64(4), body.Total)
	s.Equal(int64(3), body.ByStatus["PAID"])
}

func (s *AdminHandlerTestSuite) TestTransitions() {
	o := newTestOrder(s.T(), 42)
	base := "/api/admin/orders/" + o.ID.String()

	type expectFn func(id any) *gomock.Call
	actions := map[string]expectFn{
		"/expire":     func(id any) *gomock.Call { return s.mockAdmin.EXPECT().ForceExpire(gomock.Any(), id) },
		"/release":    func(id any) *gomock.Call { return s.mockAdmin.EXPECT().ForceRelease(gomock.Any(), id) },
		"/redispatch": func(id any) *gomock.Call { return s.mockAdmin.EXPECT().Redispatch(gomock.Any(), id) },
		"/refund":     func(id any) *gomock.Call { return s.mockAdmin.EXPECT().Refund(gomock.Any(), id) },
	}

	for path, expect := range actions {
		s.Run("success: "+path, func() {
			expect(o.ID).Return(o, nil).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, base+path, nil, "")

			var body resdto.OrderResponse
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
			s.Equal(o.ID, body.ID)
		})
	}

	cases := []struct {
		name       string
		path       string
		err        error
		expectCode int
		expectErr  string
	}{
		{name: "refund of a pending order", path: "/refund", err: errs.Mark(errs.New("x"), commands.ErrInvalidTransition), expectCode: http.StatusConflict, expectErr: "invalid_transition"},
		{name: "release of a paid order", path: "/release", err: errs.Mark(errs.New("x"), commands.ErrReservationCommitted), expectCode: http.StatusConflict, expectErr: "reservation_committed"},
		{name: "redispatch of an unpaid order", path: "/redispatch", err: errs.Mark(errs.New("x"), commands.ErrOrderNotPaid), expectCode: http.StatusConflict, expectErr: "order_not_paid"},
		{name: "lost version race", path: "/expire", err: errs.Mark(errs.New("x"), commands.ErrConflict), expectCode: http.StatusConflict, expectErr: "version_conflict"},
		{name: "unknown order", path: "/expire", err: errs.Mark(errs.New("x"), commands.ErrOrderNotFound), expectCode: http.StatusNotFound, expectErr: "order_not_found"},
	}
	for _, tc := range cases {
		s.Run("error: "+tc.name, func() {
			actions[tc.path](o.ID).Return(nil, tc.err).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, base+tc.path, nil, "")
			httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, tc.expectErr)
		})
	}

	s.Run("error: 400 for a malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/orders/123/expire", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})
}

func (s *AdminHandlerTestSuite) TestRetryJobs() {
	id := uuid.New()
	s.mockAdmin.EXPECT().RetryJobs(gomock.Any(), id).
		Return([]job.Kind{job.KindDelivery, job.KindReferralRewards}, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/orders/"+id.String()+"/retry-jobs", nil, "")

	var body resdto.RetryJobsResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Equal([]string{"delivery", "referral_rewards"}, body.Requeued)
}

func (s *AdminHandlerTestSuite) TestRewards() {
	id := uuid.New()
	s.mockQuery.EXPECT().Rewards(gomock.Any(), id).
		Return([]*queries.RewardView{{ReferrerID: 1, ReferredID: 2, Level: 1}}, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/orders/"+id.String()+"/rewards", nil, "")

	var body resdto.RewardListResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Len(body.Rewards, 1)
}

func (s *AdminHandlerTestSuite) TestPaymentEvents() {
	s.Run("success: outcome filter reaches the query", func() {
		s.mockQuery.EXPECT().PaymentEvents(gomock.Any(), "invalid_transition", queries.DefaultListLimit, 0).
			Return([]*queries.PaymentEventView{{Gateway: "cryptomus", EventID: "e1", Outcome: "invalid_transition"}}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/payment-events?outcome=invalid_transition", nil, "")

		var body resdto.PaymentEventListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body.Events, 1)
		s.Equal("e1", body.Events[0].EventID)
	})

	s.Run("error: 400 for an unknown outcome", func() {
		s.mockQuery.EXPECT().PaymentEvents(gomock.Any(), "lost", gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(errs.New("x"), queries.ErrInvalidOutcome)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/admin/payment-events?outcome=lost", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid_outcome")
	})
}

func (s *AdminHandlerTestSuite) TestRecoveryRuns() {
	s.Run("reconcile", func() {
		s.mockAdmin.EXPECT().Reconcile(gomock.Any()).
			Return(commands.ReconcileReport{Scanned: 3, Replayed: 2, Failed: 1}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/reconcile", nil, "")

		var body resdto.ReconcileResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(resdto.ReconcileResponse{Scanned: 3, Replayed: 2, Failed: 1}, body)
	})

	s.Run("sweep", func() {
		s.mockAdmin.EXPECT().Sweep(gomock.Any()).Return(4, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/sweep", nil, "")

		var body resdto.SweepResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(4, body.Expired)
	})

	s.Run("sweep failure", func() {
		s.mockAdmin.EXPECT().Sweep(gomock.Any()).Return(0, context.Canceled).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/sweep", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "")
	})
}

func (s *AdminHandlerTestSuite) TestSetBanned() {
	banned := true

	s.Run("success: 204", func() {
		s.mockUsers.EXPECT().SetBanned(gomock.Any(), int64(42), true).Return(nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/users/42/ban", reqdto.SetBannedRequest{Banned: &banned}, "")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("error: 404 for an unknown user", func() {
		s.mockUsers.EXPECT().SetBanned(gomock.Any(), int64(43), true).
			Return(errs.Mark(errs.New("x"), commands.ErrUserNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/users/43/ban", reqdto.SetBannedRequest{Banned: &banned}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "user_not_found")
	})

	s.Run("error: 400 without the flag", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/users/42/ban", map[string]any{}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: 400 for a non numeric id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/admin/users/bob/ban", reqdto.SetBannedRequest{Banned: &banned}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})
}
