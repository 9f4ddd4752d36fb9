package repository

import (
	"context"
	"time"

	"digital-store/internal/domain/order"
	"digital-store/internal/infra"
	"digital-store/internal/infra/db"
	"digital-store/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, number, buyer_id, product_id, quantity, unit_price::text, total::text,
	currency, status, gateway, invoice_ref, delivered, delivered_at, paid_at,
	created_at, expires_at, updated_at, version`

type OrderRepository struct {
	db db.DBTX
}

func NewOrderRepository(db db.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (id, number, buyer_id, product_id, quantity, unit_price, total,
			currency, status, gateway, invoice_ref, delivered, delivered_at, paid_at,
			created_at, expires_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		o.ID, o.Number, o.BuyerID, o.ProductID, o.Quantity,
		pgconv.DecimalToText(o.UnitPrice), pgconv.DecimalToText(o.Total),
		o.Currency, string(o.Status), o.Gateway, pgconv.StringToPgtype(o.InvoiceRef), o.Delivered,
		pgconv.TimePtrToPgtype(o.DeliveredAt), pgconv.TimePtrToPgtype(o.PaidAt),
		o.CreatedAt, o.ExpiresAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create order", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get order", err)
	}
	return o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *order.Order, expectedVersion int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET
			status = $3, invoice_ref = $4, delivered = $5, delivered_at = $6,
			paid_at = $7, updated_at = $8, version = version + 1
		WHERE id = $1 AND version = $2`,
		o.ID, expectedVersion, string(o.Status), pgconv.StringToPgtype(o.InvoiceRef), o.Delivered,
		pgconv.TimePtrToPgtype(o.DeliveredAt), pgconv.TimePtrToPgtype(o.PaidAt), o.UpdatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update order", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
			return infra.WrapRepoErr("failed to check order", err)
		}
		if !exists {
			return infra.NewRepoErr(infra.KindNotFound, "order not found")
		}
		return infra.NewRepoErr(infra.KindConflict, "order version changed")
	}
	o.Version = expectedVersion + 1
	return nil
}

// An empty status lists every order.
func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status, limit, offset int) ([]*order.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list orders", err)
	}
	out, err := collect(rows, scanOrder)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan orders", err)
	}
	return out, nil
}

func (r *OrderRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*order.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = 'PENDING' AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list expired orders", err)
	}
	out, err := collect(rows, scanOrder)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan expired orders", err)
	}
	return out, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to count orders", err)
	}
	defer rows.Close()

	counts := make(map[order.Status]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, infra.WrapRepoErr("failed to scan order counts", err)
		}
		counts[order.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to count orders", err)
	}
	return counts, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o                   order.Order
		unitPrice, total    string
		status              string
		invoiceRef          pgtype.Text
		deliveredAt, paidAt pgtype.Timestamptz
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.BuyerID, &o.ProductID, &o.Quantity, &unitPrice, &total,
		&o.Currency, &status, &o.Gateway, &invoiceRef, &o.Delivered, &deliveredAt, &paidAt,
		&o.CreatedAt, &o.ExpiresAt, &o.UpdatedAt, &o.Version,
	)
	if err != nil {
		return nil, err
	}
	if o.UnitPrice, err = pgconv.DecimalFromText(unitPrice); err != nil {
		return nil, err
	}
	if o.Total, err = pgconv.DecimalFromText(total); err != nil {
		return nil, err
	}
	if o.Status, err = order.ParseStatus(status); err != nil {
		return nil, err
	}
	o.InvoiceRef = pgconv.StringFromPgtype(invoiceRef)
	o.DeliveredAt = pgconv.TimePtrFromPgtype(deliveredAt)
	o.PaidAt = pgconv.TimePtrFromPgtype(paidAt)
	o.CreatedAt = o.CreatedAt.UTC()
	o.ExpiresAt = o.ExpiresAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}
