package commands

import (
	"digital-store/internal/infra"
	"digital-store/internal/pkg/errs"
)

// Error taxonomy shared by every command. Callers match with errs.Is because
// most of these are attached with errs.Mark.
var (
	ErrAuthenticationFailed = errs.New("webhook authentication failed")
	ErrMalformedPayload     = errs.New("malformed webhook payload")
	ErrUnknownGateway       = errs.New("unknown payment gateway")
	ErrInsufficientStock    = errs.New("insufficient stock")
	ErrContention           = errs.New("stock counter contention")
	ErrConflict             = errs.New("order version conflict")
	ErrInvalidTransition    = errs.New("invalid order transition")
	ErrPaymentMismatch      = errs.New("payment does not match order")
	ErrInvalidQuantity      = errs.New("invalid quantity")
	ErrInvalidInput         = errs.New("invalid input")
	ErrProductNotFound      = errs.New("product not found")
	ErrProductInactive      = errs.New("product inactive")
	ErrOrderNotFound        = errs.New("order not found")
	ErrOrderNotPaid         = errs.New("order not paid")
	ErrNotOrderOwner        = errs.New("order belongs to another buyer")
	ErrReservationCommitted = errs.New("reservation already committed")
	ErrInvoiceFailed        = errs.New("invoice creation failed")
	ErrUserNotFound         = errs.New("user not found")
	ErrBuyerBanned          = errs.New("buyer banned")
	ErrSelfReferral         = errs.New("self referral")
	ErrReferralCycle        = errs.New("referral cycle")
	ErrAlreadyReferred      = errs.New("user already referred")
	ErrInvalidCredentials   = errs.New("invalid credentials")
	ErrTokenGeneration      = errs.New("token generation failed")
)

// orderErr maps a repository error on an order lookup or write onto the taxonomy.
func orderErr(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case infra.IsNotFound(err):
		return errs.Mark(errs.Wrap(err, msg), ErrOrderNotFound)
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(errs.Wrap(err, msg), ErrConflict)
	default:
		return errs.Wrap(err, msg)
	}
}
