package commands

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"digital-store/internal/domain/order"
	"digital-store/internal/domain/payment"
	"digital-store/internal/infra"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

type IngestResult struct {
	Gateway      string
	EventID      string
	OrderID      uuid.UUID
	Outcome      payment.Outcome
	ResultStatus string
	// Duplicate is set when this delivery was not the one that reached the state machine.
	Duplicate bool
}

//go:generate mockgen -source=ingestor.go -destination=mock/ingestor.go -package=commandsmock

type WebhookCommands interface {
	Ingest(ctx context.Context, gateway string, raw []byte, headers http.Header) (*IngestResult, error)
}

// Ingestor authenticates gateway callbacks, records each (gateway, event id)
// once and feeds it to the state machine at most once.
type Ingestor struct {
	uow      shared.UnitOfWork
	registry shared.GatewayRegistry
	machine  *StateMachine
	cache    shared.OutcomeCache
	clock    clock.Clock
	metrics  shared.Metrics
	logger   *slog.Logger
	timeout  time.Duration
	attempts int
}

func NewIngestor(
	cfg config.Config,
	uow shared.UnitOfWork,
	registry shared.GatewayRegistry,
	machine *StateMachine,
	cache shared.OutcomeCache,
	clk clock.Clock,
	metrics shared.Metrics,
	logger *slog.Logger,
) *Ingestor {
	attempts := cfg.Store.AdvanceAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Ingestor{
		uow:      uow,
		registry: registry,
		machine:  machine,
		cache:    cache,
		clock:    clk,
		metrics:  metrics,
		logger:   logger,
		timeout:  cfg.Store.WebhookTimeout,
		attempts: attempts,
	}
}

// Ingest returns a result together with an error when the event was recorded
// but left money unaccounted for: ErrInvalidTransition for a payment on an
// order that can no longer take it, ErrPaymentMismatch for a callback from the
// wrong gateway or a payment short of the total. The error is for the
// operator, not a retry signal.
func (i *Ingestor) Ingest(ctx context.Context, gatewayName string, raw []byte, headers http.Header) (*IngestResult, error) {
	gw, ok := i.registry.Get(gatewayName)
	if !ok {
		return nil, errs.Mark(errs.Newf("gateway %q is not enabled", gatewayName), ErrUnknownGateway)
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	verified, err := gw.VerifyCallback(ctx, raw, headers)
	if err != nil {
		i.metrics.WebhookProcessed(gatewayName, "rejected")
		if errs.Is(err, payment.ErrMalformedPayload) {
			i.logger.Warn("malformed webhook payload", "gateway", gatewayName, "error", err.Error())
			return nil, errs.Mark(err, ErrMalformedPayload)
		}
		i.logger.Warn("webhook authentication failed", "gateway", gatewayName, "error", err.Error())
		return nil, errs.Mark(err, ErrAuthenticationFailed)
	}

	if cached, hit := i.cached(ctx, verified.Gateway, verified.EventID); hit {
		i.metrics.WebhookProcessed(gatewayName, "duplicate")
		return &IngestResult{
			Gateway:      verified.Gateway,
			EventID:      verified.EventID,
			OrderID:      cached.OrderID,
			Outcome:      cached.Outcome,
			ResultStatus: cached.ResultStatus,
			Duplicate:    true,
		}, nil
	}

	event := payment.NewEvent(verified, raw, i.clock.Now())
	if err := i.record(ctx, event); err != nil {
		return nil, err
	}

	return i.finish(ctx, event.Gateway, event.EventID)
}

// Replay pushes an already recorded event through the state machine. A final
// event comes back as a duplicate.
func (i *Ingestor) Replay(ctx context.Context, gateway, eventID string) (*IngestResult, error) {
	return i.finish(ctx, gateway, eventID)
}

func (i *Ingestor) finish(ctx context.Context, gateway, eventID string) (*IngestResult, error) {
	res, err := i.process(ctx, gateway, eventID)
	if err != nil {
		i.metrics.WebhookProcessed(gateway, "error")
		return nil, err
	}

	if res.Duplicate {
		i.metrics.WebhookProcessed(gateway, "duplicate")
	} else {
		i.metrics.WebhookProcessed(gateway, string(res.Outcome))
	}
	i.remember(ctx, res)

	if !res.Outcome.NeedsOperator() || res.Duplicate {
		return res, nil
	}
	i.logger.Warn("payment event not applied, manual reconciliation required",
		"gateway", gateway,
		"event_id", eventID,
		"order_id", res.OrderID,
		"order_status", res.ResultStatus,
		"outcome", res.Outcome)
	mark := ErrPaymentMismatch
	if res.Outcome == payment.OutcomeInvalidTransition {
		mark = ErrInvalidTransition
	}
	return res, errs.Mark(
		errs.Newf("event %s/%s ended %s on %s order %s", gateway, eventID, res.Outcome, res.ResultStatus, res.OrderID),
		mark,
	)
}

// record stores the event before anything acts on it, so a crash after this
// point leaves a received row for the reconciler.
func (i *Ingestor) record(ctx context.Context, event *payment.Event) error {
	return i.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		inserted, err := tx.PaymentEvents().Insert(ctx, event)
		if err != nil {
			return errs.Wrap(err, "insert payment event")
		}
		if inserted {
			return nil
		}
		existing, err := tx.PaymentEvents().Get(ctx, event.Gateway, event.EventID)
		if err != nil {
			return errs.Wrap(err, "get payment event")
		}
		if existing.PayloadHash != event.PayloadHash {
			i.logger.Warn("redelivered event payload differs from the recorded one",
				"gateway", event.Gateway,
				"event_id", event.EventID)
		}
		return nil
	})
}

func (i *Ingestor) process(ctx context.Context, gateway, eventID string) (*IngestResult, error) {
	var lastErr error
	for attempt := 1; attempt <= i.attempts; attempt++ {
		res, err := shared.WithinResult(ctx, i.uow, func(ctx context.Context, tx shared.Tx) (*IngestResult, error) {
			return i.processTx(ctx, tx, gateway, eventID)
		})
		if err == nil {
			return res, nil
		}
		if !errs.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
		i.logger.Debug("order moved while applying payment event, retrying",
			"gateway", gateway, "event_id", eventID, "attempt", attempt)
	}
	return nil, lastErr
}

// processTx holds the event row lock for the whole transaction. A concurrent
// delivery of the same event waits here and then finds a final outcome.
func (i *Ingestor) processTx(ctx context.Context, tx shared.Tx, gateway, eventID string) (*IngestResult, error) {
	event, err := tx.PaymentEvents().ClaimReceived(ctx, gateway, eventID)
	if infra.IsNotFound(err) {
		final, err := tx.PaymentEvents().Get(ctx, gateway, eventID)
		if err != nil {
			return nil, errs.Wrap(err, "get payment event")
		}
		return resultOf(final, true), nil
	}
	if err != nil {
		return nil, errs.Wrap(err, "claim payment event")
	}

	outcome, status, err := i.apply(ctx, tx, event)
	if err != nil {
		return nil, err
	}

	if err := tx.PaymentEvents().Complete(ctx, gateway, eventID, outcome, status, i.clock.Now()); err != nil {
		return nil, errs.Wrap(err, "complete payment event")
	}
	event.Outcome = outcome
	event.ResultStatus = status
	return resultOf(event, false), nil
}

func (i *Ingestor) apply(ctx context.Context, tx shared.Tx, event *payment.Event) (payment.Outcome, string, error) {
	o, err := tx.Orders().Get(ctx, event.OrderID)
	if infra.IsNotFound(err) {
		i.logger.Warn("payment event for unknown order", "gateway", event.Gateway, "event_id", event.EventID, "order_id", event.OrderID)
		return payment.OutcomeOrderNotFound, "", nil
	}
	if err != nil {
		return "", "", errs.Wrap(err, "get order")
	}

	// Orders are only settled by the gateway they were invoiced on; another
	// gateway's signature says nothing about this order.
	if event.Gateway != o.Gateway {
		i.logger.Warn("payment event from a gateway the order was not invoiced on",
			"gateway", event.Gateway,
			"event_id", event.EventID,
			"order_id", o.ID,
			"order_gateway", o.Gateway)
		return payment.OutcomeGatewayMismatch, o.Status.String(), nil
	}

	ev, actionable := event.Kind.OrderEvent()
	if !actionable || alreadySettled(o, event.Kind) {
		return payment.OutcomeIgnored, o.Status.String(), nil
	}

	if event.Kind == payment.KindPaid && shortPaid(o, event) {
		i.logger.Warn("paid amount does not cover the order",
			"order_id", o.ID,
			"gateway", event.Gateway,
			"event_id", event.EventID,
			"amount", event.Amount.String(),
			"currency", event.Currency,
			"total", o.Total.String(),
			"order_currency", o.Currency)
		return payment.OutcomeAmountMismatch, o.Status.String(), nil
	}

	advanced, err := i.machine.AdvanceTx(ctx, tx, o.ID, ev, o.Version)
	if errs.Is(err, ErrInvalidTransition) {
		return payment.OutcomeInvalidTransition, o.Status.String(), nil
	}
	if err != nil {
		return "", "", err
	}
	return payment.OutcomeApplied, advanced.Status.String(), nil
}

// alreadySettled covers the events that repeat what already happened: a
// second payment notice for a paid order, or a failure notice for an order
// that is no longer pending. Only a payment for a dead order needs an operator.
func alreadySettled(o *order.Order, kind payment.Kind) bool {
	switch kind {
	case payment.KindPaid:
		return o.Status == order.StatusPaid || o.Status == order.StatusRefunded
	case payment.KindFailed:
		return o.Status != order.StatusPending
	default:
		return false
	}
}

// shortPaid is true for a payment in another currency or below the total.
// A callback that reports neither amount nor currency is trusted on status.
func shortPaid(o *order.Order, event *payment.Event) bool {
	if event.Currency != "" && event.Currency != o.Currency {
		return true
	}
	if event.Currency == "" && event.Amount.IsZero() {
		return false
	}
	return event.Amount.LessThan(o.Total)
}

func (i *Ingestor) cached(ctx context.Context, gateway, eventID string) (*payment.CachedOutcome, bool) {
	cached, hit, err := i.cache.Get(ctx, gateway, eventID)
	if err != nil {
		i.logger.Warn("outcome cache lookup failed", "gateway", gateway, "event_id", eventID, "error", err.Error())
		return nil, false
	}
	if !hit || !cached.Outcome.IsFinal() {
		return nil, false
	}
	return cached, true
}

func (i *Ingestor) remember(ctx context.Context, res *IngestResult) {
	if !res.Outcome.IsFinal() {
		return
	}
	err := i.cache.Put(ctx, res.Gateway, res.EventID, payment.CachedOutcome{
		OrderID:      res.OrderID,
		Outcome:      res.Outcome,
		ResultStatus: res.ResultStatus,
	})
	if err != nil {
		i.logger.Warn("outcome cache write failed", "gateway", res.Gateway, "event_id", res.EventID, "error", err.Error())
	}
}

func resultOf(e *payment.Event, duplicate bool) *IngestResult {
	return &IngestResult{
		Gateway:      e.Gateway,
		EventID:      e.EventID,
		OrderID:      e.OrderID,
		Outcome:      e.Outcome,
		ResultStatus: e.ResultStatus,
		Duplicate:    duplicate,
	}
}
