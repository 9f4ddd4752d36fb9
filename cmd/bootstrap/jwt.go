package bootstrap

import (
	"digital-store/internal/pkg/config"
	"digital-store/internal/pkg/jwt"

	"go.uber.org/fx"
)

var JWTModule = fx.Module("jwt",
	fx.Provide(
		NewJWTService,
	),
)

func NewJWTService(cfg config.Config) (*jwt.Service, error) {
	ttl, err := cfg.Admin.TokenTTL()
	if err != nil {
		return nil, err
	}
	return jwt.NewService(cfg.Admin.JWTSecret, ttl), nil
}
