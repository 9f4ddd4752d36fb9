package api

import (
	"net/http"
	"strconv"

	reqdto "digital-store/internal/handler/dto/request"
	resdto "digital-store/internal/handler/dto/response"
	"digital-store/internal/handler/httperr"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	cmds commands.OrderCommands
	q    queries.OrderQueries
}

func NewOrderHandler(cmds commands.OrderCommands, q queries.OrderQueries) *OrderHandler {
	return &OrderHandler{cmds: cmds, q: q}
}

// @Summary Create order
// @Description Reserves stock, creates a PENDING order and issues an invoice at the chosen gateway
// @Tags orders
// @Accept json
// @Produce json
// @Param request body reqdto.PurchaseRequest true "Purchase intent"
// @Success 201 {object} resdto.PurchaseResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/orders [post]
func (h *OrderHandler) Purchase(c *gin.Context) {
	var req reqdto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.Purchase(c.Request.Context(), req.ToCommand())
	if err != nil {
		httperr.AbortWithRules(c, err, purchaseRules, "Purchase failed")
		return
	}
	c.Header("Location", "/api/orders/"+result.Order.ID.String())
	c.JSON(http.StatusCreated, resdto.FromPurchaseResult(result))
}

// @Summary Cancel order
// @Description Cancels the buyer's own PENDING order and returns its stock
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body reqdto.CancelOrderRequest true "Buyer"
// @Success 200 {object} resdto.OrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	var req reqdto.CancelOrderRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}
	o, err := h.cmds.Cancel(c.Request.Context(), id, req.BuyerID)
	if err != nil {
		httperr.AbortWithRules(c, err, transitionRules, "Cancel failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromOrder(o))
}

// @Summary Get order
// @Description Get an order by ID. With buyer_id set, orders of other buyers are reported as missing.
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Param buyer_id query int false "Buyer ID"
// @Success 200 {object} resdto.OrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	var buyerID int64
	if raw := c.Query("buyer_id"); raw != "" {
		buyerID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid buyer_id", nil)
			return
		}
	}
	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithRules(c, err, queryRules, "Failed to load order")
		return
	}
	if buyerID != 0 && view.BuyerID != buyerID {
		httperr.AbortWithError(c, http.StatusNotFound, commands.ErrNotOrderOwner, "Order not found", nil)
		return
	}
	c.JSON(http.StatusOK, view)
}
