package handler

import (
	"net/http"

	"digital-store/internal/handler/api"
	"digital-store/internal/handler/middleware"
	"digital-store/internal/infra/metrics"
	"digital-store/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Webhook *api.WebhookHandler
	Order   *api.OrderHandler
	User    *api.UserHandler
	Auth    *api.AuthHandler
	Admin   *api.AdminHandler
}

func NewHandlers(
	webhook *api.WebhookHandler,
	order *api.OrderHandler,
	user *api.UserHandler,
	auth *api.AuthHandler,
	admin *api.AdminHandler,
) Handlers {
	return Handlers{Webhook: webhook, Order: order, User: user, Auth: auth, Admin: admin}
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, h, authMiddleware, gatherer)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware, gatherer prometheus.Gatherer) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/webhooks/:gateway", Handler: h.Webhook.Receive},
			{Method: http.MethodPost, Path: "/users", Handler: h.User.Register},
		})

		orders := apiGroup.Group("/orders")
		{
			addRoutes(orders, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Order.Purchase},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Order.Get},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: h.Order.Cancel},
			})
		}

		admin := apiGroup.Group("/admin")
		{
			addRoutes(admin, []route{
				{Method: http.MethodPost, Path: "/login", Handler: h.Auth.Login},
			})

			protected := admin.Group("")
			protected.Use(authMiddleware.RequireAdmin())
			addRoutes(protected, []route{
				{Method: http.MethodGet, Path: "/orders", Handler: h.Admin.ListOrders},
				{Method: http.MethodGet, Path: "/orders/stats", Handler: h.Admin.Stats},
				{Method: http.MethodGet, Path: "/orders/:id", Handler: h.Admin.GetOrder},
				{Method: http.MethodGet, Path: "/orders/:id/rewards", Handler: h.Admin.Rewards},
				{Method: http.MethodPost, Path: "/orders/:id/expire", Handler: h.Admin.ForceExpire},
				{Method: http.MethodPost, Path: "/orders/:id/release", Handler: h.Admin.ForceRelease},
				{Method: http.MethodPost, Path: "/orders/:id/redispatch", Handler: h.Admin.Redispatch},
				{Method: http.MethodPost, Path: "/orders/:id/refund", Handler: h.Admin.Refund},
				{Method: http.MethodPost, Path: "/orders/:id/retry-jobs", Handler: h.Admin.RetryJobs},
				{Method: http.MethodGet, Path: "/payment-events", Handler: h.Admin.PaymentEvents},
				{Method: http.MethodPost, Path: "/reconcile", Handler: h.Admin.Reconcile},
				{Method: http.MethodPost, Path: "/sweep", Handler: h.Admin.Sweep},
				{Method: http.MethodPost, Path: "/users/:id/ban", Handler: h.Admin.SetBanned},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
