package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/tracer-protocol/ome/src/handlers"
	"github.com/tracer-protocol/ome/src/middleware"
)

// SetupRoutes wires the control plane's routes per spec.md §6, kept in
// the teacher's shape of a service-availability gate, request logger,
// and an optional rate limiter group (src/routes/routes.go).
func SetupRoutes(app *fiber.App, orderHandler *handlers.OrderHandler) {
	rateLimitDisabled := os.Getenv("OME_RATE_LIMIT_DISABLED") == "1"

	serviceAvailability := middleware.DefaultServiceAvailability()
	app.Use(serviceAvailability.Middleware())
	app.Use(middleware.RequestLogger())

	book := app.Group("/book")

	if !rateLimitDisabled {
		rateLimiter := middleware.DefaultRateLimiterFromEnv()
		book.Use(rateLimiter.Middleware())
	}

	book.Get("/", orderHandler.ListMarkets)
	book.Post("/", orderHandler.CreateMarket)
	book.Get("/:market", orderHandler.GetBook)
	book.Post("/:market/order", orderHandler.CreateOrder)
	book.Get("/:market/order", orderHandler.ListOrders)
	book.Get("/:market/order/:order_id", orderHandler.GetOrder)
	book.Delete("/:market/order/:order_id", orderHandler.CancelOrder)

	app.Get("/health", orderHandler.HealthCheck)
	app.Get("/metrics", orderHandler.Metrics)
}
