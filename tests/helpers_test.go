package tests

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tracer-protocol/ome/src/engine"
	"github.com/tracer-protocol/ome/src/errs"
	"github.com/tracer-protocol/ome/src/execution"
	"github.com/tracer-protocol/ome/src/handlers"
	"github.com/tracer-protocol/ome/src/routes"
)

const (
	testMarket  = "0x0000000000000000000000000000000000000001"
	testTrader  = "0x0000000000000000000000000000000000000002"
	testTrader2 = "0x0000000000000000000000000000000000000003"
)

// setupTestServer builds a fiber app wired against a fresh registry and
// a no-op execution sink pointed at a URL nothing listens on — matched
// batches are simply dropped after exhausting retries, which is fine
// for control-plane tests that only assert on the HTTP response. The
// registry is pre-populated with testMarket since order submission no
// longer creates markets implicitly.
func setupTestServer() *fiber.App {
	registry := engine.NewRegistry()
	registry.CreateMarket(engine.HexToAddress(testMarket))

	sink := execution.New("http://127.0.0.1:0/unreachable", 16, execution.RetryPolicy{
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
	})
	orderHandler := handlers.NewOrderHandler(registry, sink)

	app := fiber.New(fiber.Config{
		ErrorHandler: testErrorHandler,
	})
	routes.SetupRoutes(app, orderHandler)
	return app
}

func testErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := errs.As(err); ok {
		code = e.HTTPStatus()
	} else if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func futureExpiration() string {
	return strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
}

func orderBody(trader, side, price, amount string) map[string]interface{} {
	return map[string]interface{}{
		"address":     trader,
		"side":        side,
		"price":       price,
		"amount":      amount,
		"expiration":  futureExpiration(),
		"signed_data": "0x" + zeros(130),
	}
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
