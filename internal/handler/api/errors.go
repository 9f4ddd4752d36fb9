package api

import (
	"context"
	"net/http"

	"digital-store/internal/handler/httperr"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/queries"
)

// Rules are checked in order; the first match wins.

var webhookRules = []httperr.Rule{
	{Target: commands.ErrUnknownGateway, Status: http.StatusNotFound, Code: "unknown_gateway", Message: "Unknown payment gateway"},
	{Target: commands.ErrAuthenticationFailed, Status: http.StatusUnauthorized, Code: "authentication_failed", Message: "Callback authentication failed"},
	{Target: commands.ErrMalformedPayload, Status: http.StatusBadRequest, Code: "malformed_payload", Message: "Malformed callback payload"},
	{Target: commands.ErrConflict, Status: http.StatusServiceUnavailable, Code: "retry", Message: "Order busy, retry later"},
	{Target: context.DeadlineExceeded, Status: http.StatusServiceUnavailable, Code: "retry", Message: "Timed out, retry later"},
}

var purchaseRules = []httperr.Rule{
	{Target: commands.ErrInvalidQuantity, Status: http.StatusBadRequest, Code: "invalid_quantity", Message: "Invalid quantity"},
	{Target: commands.ErrInvalidInput, Status: http.StatusBadRequest, Code: "invalid_input", Message: "Invalid request"},
	{Target: commands.ErrUnknownGateway, Status: http.StatusBadRequest, Code: "unknown_gateway", Message: "Unsupported payment gateway"},
	{Target: commands.ErrProductNotFound, Status: http.StatusNotFound, Code: "product_not_found", Message: "Product not found"},
	{Target: commands.ErrUserNotFound, Status: http.StatusNotFound, Code: "buyer_not_found", Message: "Buyer not registered"},
	{Target: commands.ErrBuyerBanned, Status: http.StatusForbidden, Code: "buyer_banned", Message: "Buyer is banned"},
	{Target: commands.ErrProductInactive, Status: http.StatusUnprocessableEntity, Code: "product_inactive", Message: "Product is not on sale"},
	{Target: commands.ErrInsufficientStock, Status: http.StatusConflict, Code: "insufficient_stock", Message: "Insufficient stock"},
	{Target: commands.ErrContention, Status: http.StatusServiceUnavailable, Code: "retry", Message: "Stock busy, retry later"},
	{Target: commands.ErrInvoiceFailed, Status: http.StatusBadGateway, Code: "invoice_failed", Message: "Payment gateway unavailable"},
	{Target: context.DeadlineExceeded, Status: http.StatusServiceUnavailable, Code: "retry", Message: "Timed out, retry later"},
}

// transitionRules cover every command that ends in the state machine.
var transitionRules = []httperr.Rule{
	{Target: commands.ErrOrderNotFound, Status: http.StatusNotFound, Code: "order_not_found", Message: "Order not found"},
	{Target: commands.ErrNotOrderOwner, Status: http.StatusNotFound, Code: "order_not_found", Message: "Order not found"},
	{Target: commands.ErrInvalidTransition, Status: http.StatusConflict, Code: "invalid_transition", Message: "Order cannot make this transition"},
	{Target: commands.ErrReservationCommitted, Status: http.StatusConflict, Code: "reservation_committed", Message: "Reservation already committed"},
	{Target: commands.ErrOrderNotPaid, Status: http.StatusConflict, Code: "order_not_paid", Message: "Order is not paid"},
	{Target: commands.ErrConflict, Status: http.StatusConflict, Code: "version_conflict", Message: "Order changed concurrently, retry"},
	{Target: commands.ErrProductNotFound, Status: http.StatusUnprocessableEntity, Code: "product_not_found", Message: "Product no longer in catalog"},
	{Target: commands.ErrContention, Status: http.StatusServiceUnavailable, Code: "retry", Message: "Stock busy, retry later"},
}

var userRules = []httperr.Rule{
	{Target: commands.ErrInvalidInput, Status: http.StatusBadRequest, Code: "invalid_input", Message: "Invalid user data"},
	{Target: commands.ErrSelfReferral, Status: http.StatusBadRequest, Code: "self_referral", Message: "A user cannot refer themselves"},
	{Target: commands.ErrUserNotFound, Status: http.StatusNotFound, Code: "user_not_found", Message: "User not found"},
	{Target: commands.ErrReferralCycle, Status: http.StatusConflict, Code: "referral_cycle", Message: "Referral would create a cycle"},
	{Target: commands.ErrAlreadyReferred, Status: http.StatusConflict, Code: "already_referred", Message: "User already has a referrer"},
}

var queryRules = []httperr.Rule{
	{Target: queries.ErrOrderNotFound, Status: http.StatusNotFound, Code: "order_not_found", Message: "Order not found"},
	{Target: queries.ErrInvalidStatus, Status: http.StatusBadRequest, Code: "invalid_status", Message: "Unknown order status"},
	{Target: queries.ErrInvalidOutcome, Status: http.StatusBadRequest, Code: "invalid_outcome", Message: "Unknown event outcome"},
}
