package components

import (
	"context"
	"log/slog"

	"digital-store/internal/infra/catalog"
	"digital-store/internal/pkg/config"
	"digital-store/internal/usecase/commands"
	"digital-store/internal/usecase/shared"

	"go.uber.org/fx"
)

// PersistenceModule adds the file catalog on top of the store chosen by
// bootstrap.DBModule and seeds finite stock counters on start.
var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewCatalog,
		commands.NewStockSeeder,
	),
	fx.Invoke(seedStock),
)

func NewCatalog(cfg config.Config, logger *slog.Logger) (shared.Catalog, error) {
	cat, err := catalog.LoadFile(cfg.Store.CatalogPath)
	if err != nil {
		return nil, err
	}
	products, err := cat.Products(context.Background())
	if err != nil {
		return nil, err
	}
	logger.Info("商品カタログを読み込みました", "path", cfg.Store.CatalogPath, "products", len(products))
	return cat, nil
}

func seedStock(lc fx.Lifecycle, seeder *commands.StockSeeder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := seeder.Seed(ctx)
			return err
		},
	})
}
