package commands

import (
	"context"
	"log/slog"

	"digital-store/internal/pkg/clock"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/usecase/shared"
)

// StockSeeder creates the counter row of every finite-stock catalog product.
// Counters that already exist keep their live values.
type StockSeeder struct {
	uow     shared.UnitOfWork
	catalog shared.Catalog
	clock   clock.Clock
	logger  *slog.Logger
}

func NewStockSeeder(uow shared.UnitOfWork, catalog shared.Catalog, clk clock.Clock, logger *slog.Logger) *StockSeeder {
	return &StockSeeder{uow: uow, catalog: catalog, clock: clk, logger: logger}
}

// Seed reports how many counters were newly inserted.
func (s *StockSeeder) Seed(ctx context.Context) (int, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return 0, errs.Wrap(err, "load catalog")
	}

	now := s.clock.Now()
	return shared.WithinResult(ctx, s.uow, func(ctx context.Context, tx shared.Tx) (int, error) {
		seeded := 0
		for _, p := range products {
			if p.Unlimited() {
				continue
			}
			ok, err := tx.Stock().Seed(ctx, p.ID, *p.StockCount, now)
			if err != nil {
				return 0, errs.Wrapf(err, "seed stock for product %d", p.ID)
			}
			if ok {
				seeded++
				s.logger.Info("stock counter seeded", "product_id", p.ID, "total", *p.StockCount)
			}
		}
		return seeded, nil
	})
}
