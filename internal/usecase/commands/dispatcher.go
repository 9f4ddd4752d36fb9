package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/domain/order"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"

	"github.com/google/uuid"
)

// Dispatcher hands paid orders to the delivery collaborator and records the
// delivered flag afterwards. The collaborator deduplicates on order id, so a
// crash between hand-off and flag only costs a repeated hand-off.
type Dispatcher struct {
	machine *StateMachine
	catalog shared.Catalog
	sink    shared.DeliverySink
	logger  *slog.Logger
}

func NewDispatcher(machine *StateMachine, catalog shared.Catalog, sink shared.DeliverySink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{machine: machine, catalog: catalog, sink: sink, logger: logger}
}

// Dispatch is the delivery job handler. Orders that are already delivered or
// are no longer PAID are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, orderID uuid.UUID) error {
	o, err := d.machine.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != order.StatusPaid {
		d.logger.Info("delivery skipped, order not paid", "order_id", orderID, "status", o.Status)
		return nil
	}
	if o.Delivered {
		return nil
	}
	return d.deliver(ctx, o)
}

// Redispatch repeats the hand-off for a PAID order even when it is already
// marked delivered.
func (d *Dispatcher) Redispatch(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := d.machine.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPaid {
		return nil, errs.Mark(errs.Newf("order %s is %s", orderID, o.Status), ErrOrderNotPaid)
	}
	if err := d.deliver(ctx, o); err != nil {
		return nil, err
	}
	return d.machine.Get(ctx, orderID)
}

func (d *Dispatcher) deliver(ctx context.Context, o *order.Order) error {
	product, err := d.catalog.Product(ctx, o.ProductID)
	if err != nil {
		return errs.Mark(errs.Wrapf(err, "product %d for order %s", o.ProductID, o.ID), ErrProductNotFound)
	}

	msg := shared.DeliveryMessage{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		BuyerID:     o.BuyerID,
		ProductID:   o.ProductID,
		Quantity:    o.Quantity,
		Payload:     product.RenderDelivery(o.Number, o.Quantity, o.BuyerID),
	}
	if err := d.sink.Deliver(ctx, msg); err != nil {
		return errs.Wrapf(err, "deliver order %s", o.ID)
	}

	_, err = d.machine.AdvanceLatest(ctx, o.ID, order.EventDelivered, func(current *order.Order) error {
		if current.Delivered {
			return errAlreadyDone
		}
		return nil
	})
	if err != nil && !errs.Is(err, errAlreadyDone) {
		return errs.Wrapf(err, "mark order %s delivered", o.ID)
	}
	d.logger.Info("order delivered", "order_id", o.ID, "buyer_id", o.BuyerID, "product_id", o.ProductID)
	return nil
}

// errAlreadyDone stops a retry loop whose goal another writer already reached.
var errAlreadyDone = errs.New("already done")
