package api

import (
	"context"
	"net/http"
	"strconv"

	"digital-store/internal/domain/order"
	reqdto "digital-store/internal/handler/dto/request"
	resdto "digital-store/internal/handler/dto/response"
	"digital-store/internal/handler/httperr"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	cmds  commands.AdminCommands
	users commands.UserCommands
	q     queries.OrderQueries
}

func NewAdminHandler(cmds commands.AdminCommands, users commands.UserCommands, q queries.OrderQueries) *AdminHandler {
	return &AdminHandler{cmds: cmds, users: users, q: q}
}

// @Summary List orders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status" Enums(PENDING, PAID, EXPIRED, CANCELLED, REFUNDED)
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} resdto.OrderListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /api/admin/orders [get]
func (h *AdminHandler) ListOrders(c *gin.Context) {
	var query reqdto.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	limit := queries.ClampLimit(query.Limit)
	views, err := h.q.List(c.Request.Context(), query.Status, limit, query.Offset)
	if err != nil {
		httperr.AbortWithRules(c, err, queryRules, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, resdto.OrderListResponse{Orders: views, Limit: limit, Offset: query.Offset})
}

// @Summary Order counts per status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} queries.OrderStats
// @Failure 401 {object} httperr.Response
// @Router /api/admin/orders/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.q.Stats(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load stats", nil)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Get order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 404 {object} httperr.Response
// @Router /api/admin/orders/{id} [get]
func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithRules(c, err, queryRules, "Failed to load order")
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Referral rewards credited for an order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.RewardListResponse
// @Router /api/admin/orders/{id}/rewards [get]
func (h *AdminHandler) Rewards(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	rewards, err := h.q.Rewards(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load rewards", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.RewardListResponse{Rewards: rewards})
}

// @Summary Force expire
// @Description Expires a PENDING order now and releases its reservation
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/admin/orders/{id}/expire [post]
func (h *AdminHandler) ForceExpire(c *gin.Context) {
	h.transition(c, h.cmds.ForceExpire, "Force expire failed")
}

// @Summary Force release
// @Description Releases the reservation of a dead order; a second release credits nothing
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/admin/orders/{id}/release [post]
func (h *AdminHandler) ForceRelease(c *gin.Context) {
	h.transition(c, h.cmds.ForceRelease, "Force release failed")
}

// @Summary Redispatch delivery
// @Description Hands a PAID order to the delivery collaborator again
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/admin/orders/{id}/redispatch [post]
func (h *AdminHandler) Redispatch(c *gin.Context) {
	h.transition(c, h.cmds.Redispatch, "Redispatch failed")
}

// @Summary Refund
// @Description Marks a PAID order as REFUNDED; money movement happens at the gateway
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/admin/orders/{id}/refund [post]
func (h *AdminHandler) Refund(c *gin.Context) {
	h.transition(c, h.cmds.Refund, "Refund failed")
}

// @Summary Retry failed jobs
// @Description Requeues the failed post-payment jobs of an order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.RetryJobsResponse
// @Failure 404 {object} httperr.Response
// @Router /api/admin/orders/{id}/retry-jobs [post]
func (h *AdminHandler) RetryJobs(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	kinds, err := h.cmds.RetryJobs(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithRules(c, err, transitionRules, "Retry failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromJobKinds(kinds))
}

// @Summary List payment events
// @Description Lists recorded gateway events, e.g. outcome=invalid_transition for payments that need an operator
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param outcome query string false "Outcome" Enums(received, applied, ignored, invalid_transition, order_not_found, gateway_mismatch, amount_mismatch)
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} resdto.PaymentEventListResponse
// @Failure 400 {object} httperr.Response
// @Router /api/admin/payment-events [get]
func (h *AdminHandler) PaymentEvents(c *gin.Context) {
	var query reqdto.ListPaymentEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	limit := queries.ClampLimit(query.Limit)
	events, err := h.q.PaymentEvents(c.Request.Context(), query.Outcome, limit, query.Offset)
	if err != nil {
		httperr.AbortWithRules(c, err, queryRules, "Failed to list payment events")
		return
	}
	c.JSON(http.StatusOK, resdto.PaymentEventListResponse{Events: events, Limit: limit, Offset: query.Offset})
}

// @Summary Reconcile
// @Description Replays payment events stuck in received
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.ReconcileResponse
// @Router /api/admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.cmds.Reconcile(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Reconcile failed", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReconcileReport(report))
}

// @Summary Sweep
// @Description Runs one expiry sweep now
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.SweepResponse
// @Router /api/admin/sweep [post]
func (h *AdminHandler) Sweep(c *gin.Context) {
	n, err := h.cmds.Sweep(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Sweep failed", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.SweepResponse{Expired: n})
}

// @Summary Ban or unban a buyer
// @Tags admin
// @Accept json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body reqdto.SetBannedRequest true "Ban flag"
// @Success 204 "No Content"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/admin/users/{id}/ban [post]
func (h *AdminHandler) SetBanned(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		if err == nil {
			err = commands.ErrInvalidInput
		}
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	var req reqdto.SetBannedRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}
	if err := h.users.SetBanned(c.Request.Context(), userID, *req.Banned); err != nil {
		httperr.AbortWithRules(c, err, userRules, "Ban update failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*order.Order, error), failMsg string) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	o, err := fn(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithRules(c, err, transitionRules, failMsg)
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrder(o))
}

func orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}
