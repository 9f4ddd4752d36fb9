package components

import (
	"log/slog"
	"net/http"

	"digital-store/internal/infra/gateway"
	"digital-store/internal/pkg/config"
	"digital-store/internal/usecase/shared"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		NewGatewayRegistry,
	),
)

// NewGatewayRegistry registers only the enabled gateways; webhooks and
// purchases naming any other gateway are rejected as unknown.
func NewGatewayRegistry(cfg config.Config, logger *slog.Logger) shared.GatewayRegistry {
	var gws []shared.Gateway
	if cfg.Stars.Enabled {
		gws = append(gws, gateway.NewStars(cfg.Stars.WebhookSecret))
	}
	if cfg.Cryptomus.Enabled {
		client := &http.Client{Timeout: cfg.Store.GatewayTimeout}
		gws = append(gws, gateway.NewCryptomus(cfg.Cryptomus, client))
	}

	registry := gateway.NewRegistry(gws...)
	if len(gws) == 0 {
		logger.Warn("有効な決済ゲートウェイがありません")
	} else {
		logger.Info("決済ゲートウェイを登録しました", "gateways", registry.Names())
	}
	return registry
}
