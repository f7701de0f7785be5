package router // package router registers the HTTP routes of the bot

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-bot/internal/config"
	"github.com/iliyamo/ticket-bot/internal/handler"
	"github.com/iliyamo/ticket-bot/internal/middleware"
	"github.com/iliyamo/ticket-bot/internal/utils"
)

// RegisterRoutes registers the unauthenticated routes: the liveness probe
// and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterWebhook mounts the Telegram webhook receiver.  The secret is
// part of the path.
func RegisterWebhook(e *echo.Echo, w *handler.WebhookHandler) {
	e.POST("/telegram/:secret", w.Receive)
}

// RegisterOps mounts the ops API under /v1/ops.  Every route requires an
// operator bearer token and is rate limited per operator and route.
func RegisterOps(e *echo.Echo, h *handler.OpsHandler, jwtSecret string, isOperator func(int64) bool, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/ops")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleOperator))
	g.Use(middleware.RequireOperator(isOperator))
	g.Use(middleware.NewTokenBucket(rl, rdb))

	g.GET("/reservations", h.ListReservations)
	g.GET("/summary", h.Summary)
	g.POST("/broadcast", h.Broadcast)
}
