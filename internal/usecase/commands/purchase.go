package commands

import (
	"context"
	"log/slog"
	"time"

	"digital-store/internal/domain/catalog"
	"digital-store/internal/domain/inventory"
	"digital-store/internal/domain/order"
	"digital-store/internal/infra"
	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

type PurchaseRequest struct {
	BuyerID   int64
	ProductID int64
	Quantity  int
	Gateway   string
}

type PurchaseResult struct {
	Order      *order.Order
	InvoiceURL string
}

//go:generate mockgen -source=purchase.go -destination=mock/purchase.go -package=commandsmock

type OrderCommands interface {
	Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)
	Cancel(ctx context.Context, orderID uuid.UUID, buyerID int64) (*order.Order, error)
}

// PurchaseService turns a purchase intent into a PENDING order with stock held
// and an invoice issued.
type PurchaseService struct {
	uow            shared.UnitOfWork
	allocator      *Allocator
	machine        *StateMachine
	catalog        shared.Catalog
	registry       shared.GatewayRegistry
	clock          clock.Clock
	logger         *slog.Logger
	orderTTL       time.Duration
	gatewayTimeout time.Duration
	attempts       int
}

func NewPurchaseService(
	cfg config.Config,
	uow shared.UnitOfWork,
	allocator *Allocator,
	machine *StateMachine,
	catalog shared.Catalog,
	registry shared.GatewayRegistry,
	clk clock.Clock,
	logger *slog.Logger,
) *PurchaseService {
	return &PurchaseService{
		uow:            uow,
		allocator:      allocator,
		machine:        machine,
		catalog:        catalog,
		registry:       registry,
		clock:          clk,
		logger:         logger,
		orderTTL:       cfg.Store.OrderTTL,
		gatewayTimeout: cfg.Store.GatewayTimeout,
		attempts:       max(cfg.Store.AdvanceAttempts, 1),
	}
}

func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if req.Quantity <= 0 {
		return nil, errs.Mark(errs.Newf("quantity %d", req.Quantity), ErrInvalidQuantity)
	}
	gw, ok := s.registry.Get(req.Gateway)
	if !ok {
		return nil, errs.Mark(errs.Newf("gateway %q is not enabled", req.Gateway), ErrUnknownGateway)
	}
	product, err := s.catalog.Product(ctx, req.ProductID)
	if err != nil {
		if errs.Is(err, catalog.ErrProductNotFound) {
			return nil, errs.Mark(err, ErrProductNotFound)
		}
		return nil, errs.Wrap(err, "catalog lookup")
	}
	if !product.IsActive {
		return nil, errs.Mark(errs.Newf("product %d is not on sale", product.ID), ErrProductInactive)
	}

	o, err := s.createOrder(ctx, req, product)
	if err != nil {
		return nil, err
	}

	invoice, err := s.createInvoice(ctx, gw, o, product)
	if err != nil {
		s.logger.Error("invoice creation failed, cancelling order",
			"order_id", o.ID,
			"gateway", gw.Name(),
			"error", err.Error())
		if _, cancelErr := s.machine.Advance(context.WithoutCancel(ctx), o.ID, order.EventCancel, o.Version); cancelErr != nil {
			s.logger.Error("failed to cancel order after invoice failure", "order_id", o.ID, "error", cancelErr.Error())
		}
		return nil, errs.Mark(err, ErrInvoiceFailed)
	}

	o, err = s.attachInvoice(ctx, o.ID, invoice.Ref)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", o.ID,
		"order_number", o.Number,
		"buyer_id", o.BuyerID,
		"product_id", o.ProductID,
		"quantity", o.Quantity,
		"gateway", o.Gateway)
	return &PurchaseResult{Order: o, InvoiceURL: invoice.URL}, nil
}

// createOrder writes the order and its reservation in one transaction, so
// a PENDING order always has its units held.
func (s *PurchaseService) createOrder(ctx context.Context, req PurchaseRequest, product *catalog.Product) (*order.Order, error) {
	return shared.WithinResult(ctx, s.uow, func(ctx context.Context, tx shared.Tx) (*order.Order, error) {
		buyer, err := tx.Users().Get(ctx, req.BuyerID)
		if err != nil {
			if infra.IsNotFound(err) {
				return nil, errs.Mark(errs.Newf("buyer %d is not registered", req.BuyerID), ErrUserNotFound)
			}
			return nil, errs.Wrap(err, "get buyer")
		}
		if !buyer.CanPurchase() {
			return nil, errs.Mark(errs.Newf("buyer %d is banned", req.BuyerID), ErrBuyerBanned)
		}

		o, err := order.New(order.NewParams{
			BuyerID:   req.BuyerID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
			Currency:  product.Currency,
			Gateway:   req.Gateway,
		}, s.clock.Now(), s.orderTTL)
		if err != nil {
			return nil, errs.Mark(err, ErrInvalidInput)
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return nil, errs.Wrap(err, "create order")
		}

		err = s.allocator.Reserve(ctx, tx, inventory.Token{
			OrderID:   o.ID,
			ProductID: product.ID,
			Quantity:  req.Quantity,
			Unlimited: product.Unlimited(),
		})
		if err != nil {
			return nil, err
		}
		return o, nil
	})
}

func (s *PurchaseService) createInvoice(ctx context.Context, gw shared.Gateway, o *order.Order, product *catalog.Product) (shared.InvoiceRef, error) {
	if s.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.gatewayTimeout)
		defer cancel()
	}
	return gw.CreateInvoice(ctx, o, product)
}

// attachInvoice stores the invoice reference. A webhook may already have
// moved the order, so it retries on version conflicts.
func (s *PurchaseService) attachInvoice(ctx context.Context, orderID uuid.UUID, ref string) (*order.Order, error) {
	var lastErr error
	for range s.attempts {
		o, err := shared.WithinResult(ctx, s.uow, func(ctx context.Context, tx shared.Tx) (*order.Order, error) {
			o, err := tx.Orders().Get(ctx, orderID)
			if err != nil {
				return nil, orderErr(err, "get order")
			}
			o.InvoiceRef = ref
			o.UpdatedAt = s.clock.Now()
			if err := tx.Orders().Update(ctx, o, o.Version); err != nil {
				return nil, orderErr(err, "store invoice reference")
			}
			return o, nil
		})
		if err == nil {
			return o, nil
		}
		if !errs.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Cancel lets the buyer abandon their own PENDING order.
func (s *PurchaseService) Cancel(ctx context.Context, orderID uuid.UUID, buyerID int64) (*order.Order, error) {
	return s.machine.AdvanceLatest(ctx, orderID, order.EventCancel, func(o *order.Order) error {
		if !o.IsOwnedBy(buyerID) {
			return errs.Mark(errs.Newf("order %s is not owned by %d", orderID, buyerID), ErrNotOrderOwner)
		}
		return nil
	})
}
