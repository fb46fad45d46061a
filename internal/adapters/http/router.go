package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/questline/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Quest progression
	v1.Post("/users/:id/location", timeout.NewWithContext(ReportLocationHandler(deps), 15*time.Second))
	v1.Put("/users/:id/route", timeout.NewWithContext(AssignRouteHandler(deps), 15*time.Second))
	v1.Post("/users/:id/route/generate", timeout.NewWithContext(GenerateRouteHandler(deps), 90*time.Second))
	v1.Get("/users/:id/status", timeout.NewWithContext(RouteStatusHandler(deps), 15*time.Second))

	// User directory
	v1.Post("/users/:id/register", timeout.NewWithContext(RegisterUserHandler(deps), 15*time.Second))
	v1.Get("/users/:id/profile", timeout.NewWithContext(GetProfileHandler(deps), 15*time.Second))
	v1.Put("/users/:id/interests", timeout.NewWithContext(UpdateInterestsHandler(deps), 15*time.Second))
	v1.Get("/interests/suggest", timeout.NewWithContext(SuggestInterestsHandler(deps), 90*time.Second))

	// Reward catalog
	v1.Get("/shop/items", timeout.NewWithContext(ListShopItemsHandler(deps), 15*time.Second))
	v1.Get("/shop/items/:id", timeout.NewWithContext(GetShopItemHandler(deps), 15*time.Second))
	v1.Post("/shop/items", timeout.NewWithContext(CreateShopItemHandler(deps), 15*time.Second))
	v1.Put("/shop/items/:id", timeout.NewWithContext(UpdateShopItemHandler(deps), 15*time.Second))
	v1.Delete("/shop/items/:id", timeout.NewWithContext(DeleteShopItemHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// WebSocket. The event relay needs a live NATS connection; without one
	// there is nothing to stream, so reject before upgrading.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return newError(c, 503, "events_unavailable", "event stream is not available")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
