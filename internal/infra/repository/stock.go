package repository

import (
	"context"
	"time"

	"digital-store/internal/domain/inventory"
	"digital-store/internal/infra"
	"digital-store/internal/infra/db"
)

type StockRepository struct {
	db db.DBTX
}

func NewStockRepository(db db.DBTX) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) Get(ctx context.Context, productID int64) (*inventory.Stock, error) {
	var s inventory.Stock
	err := r.db.QueryRow(ctx, `
		SELECT product_id, total, available, sold, version, updated_at
		FROM product_stock WHERE product_id = $1`, productID,
	).Scan(&s.ProductID, &s.Total, &s.Available, &s.Sold, &s.Version, &s.UpdatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get stock", err)
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *StockRepository) CompareAndSwap(ctx context.Context, s *inventory.Stock, expectedVersion int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE product_stock
		SET available = $3, sold = $4, updated_at = $5, version = version + 1
		WHERE product_id = $1 AND version = $2`,
		s.ProductID, expectedVersion, s.Available, s.Sold, s.UpdatedAt,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	s.Version = expectedVersion + 1
	return true, nil
}

func (r *StockRepository) Seed(ctx context.Context, productID int64, total int, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO product_stock (product_id, total, available, sold, version, updated_at)
		VALUES ($1, $2, $2, 0, 1, $3)
		ON CONFLICT (product_id) DO NOTHING`, productID, total, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to seed stock", err)
	}
	return tag.RowsAffected() == 1, nil
}
