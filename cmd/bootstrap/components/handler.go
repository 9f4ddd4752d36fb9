package components

import (
	"digital-store/internal/handler"
	"digital-store/internal/handler/api"
	"digital-store/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewWebhookHandler,
		api.NewOrderHandler,
		api.NewUserHandler,
		api.NewAuthHandler,
		api.NewAdminHandler,
		handler.NewHandlers,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
