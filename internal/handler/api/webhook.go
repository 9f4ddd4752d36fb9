package api

import (
	"errors"
	"io"
	"net/http"

	resdto "digital-store/internal/handler/dto/response"
	"digital-store/internal/handler/httperr"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	cmds commands.WebhookCommands
}

func NewWebhookHandler(cmds commands.WebhookCommands) *WebhookHandler {
	return &WebhookHandler{cmds: cmds}
}

// @Summary Payment gateway callback
// @Description Authenticates a gateway notification, records it once and applies it to its order.
// @Description Duplicates answer 200 with the recorded outcome so the gateway stops redelivering.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param gateway path string true "Gateway name" Enums(telegram_stars, cryptomus)
// @Success 200 {object} resdto.WebhookResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 413 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /api/webhooks/{gateway} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.AbortWithError(c, http.StatusRequestEntityTooLarge, err, "Payload too large", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Unreadable body", nil)
		return
	}

	gateway := c.Param("gateway")
	result, err := h.cmds.Ingest(c.Request.Context(), gateway, raw, c.Request.Header)
	// recorded for the operator; a retry from the gateway would change nothing
	if err != nil && result != nil && errs.IsAny(err, commands.ErrInvalidTransition, commands.ErrPaymentMismatch) {
		resp := resdto.FromIngestResult(result)
		resp.Warning = webhookWarning(err)
		c.JSON(http.StatusOK, resp)
		return
	}
	if err != nil {
		httperr.AbortWithRules(c, err, webhookRules, "Webhook processing failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromIngestResult(result))
}

func webhookWarning(err error) string {
	if errs.Is(err, commands.ErrPaymentMismatch) {
		return "payment does not match the order; recorded for manual reconciliation"
	}
	return "order can no longer accept this payment; recorded for manual reconciliation"
}
