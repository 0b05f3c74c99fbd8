package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/tracer-protocol/ome/src/config"
	"github.com/tracer-protocol/ome/src/discovery"
	"github.com/tracer-protocol/ome/src/engine"
	"github.com/tracer-protocol/ome/src/errs"
	"github.com/tracer-protocol/ome/src/execution"
	"github.com/tracer-protocol/ome/src/handlers"
	"github.com/tracer-protocol/ome/src/logger"
	"github.com/tracer-protocol/ome/src/routes"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()

	log.Info().Msg("Initializing Order Matching Engine")

	cfg := config.Load()

	registry := engine.NewRegistry()
	seedMarkets(registry, cfg, log)

	sink := execution.New(cfg.ExecutionerURL, cfg.ExecutionQueueSize, execution.DefaultRetryPolicy)

	orderHandler := handlers.NewOrderHandler(registry, sink)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := errs.As(err); ok {
				code = e.HTTPStatus()
			} else if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Access-Control-Allow-Origin",
		AllowMethods: "GET,POST,PUT,DELETE",
	}))
	routes.SetupRoutes(app, orderHandler)

	serverError := make(chan error, 1)

	go func() {
		var err error
		if cfg.ForceNoTLS {
			err = app.Listen(cfg.ListenAddress + ":" + cfg.Port)
		} else {
			err = app.ListenTLS(cfg.ListenAddress+":"+cfg.Port, cfg.CertificatePath, cfg.PrivateKeyPath)
		}
		if err != nil {
			// edge case: ignore shutdown errors, only report real errors
			if err.Error() != "server is shutting down" {
				serverError <- err
			}
		}
	}()

	select {
	case err := <-serverError:
		log.Fatal().
			Err(err).
			Str("address", cfg.ListenAddress).
			Str("port", cfg.Port).
			Msg("Server failed to start")
	default:
		log.Info().
			Str("address", cfg.ListenAddress).
			Str("port", cfg.Port).
			Bool("tls", !cfg.ForceNoTLS).
			Msg("Order Matching Engine started")

		log.Info().
			Strs("endpoints", []string{
				"GET    /book",
				"POST   /book",
				"GET    /book/:market",
				"POST   /book/:market/order",
				"GET    /book/:market/order",
				"GET    /book/:market/order/:order_id",
				"DELETE /book/:market/order/:order_id",
				"GET    /health",
				"GET    /metrics",
			}).
			Msg("API endpoints registered")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info().Msg("Received shutdown signal, shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Dur("timeout", cfg.ShutdownTimeout).Msg("Timeout exceeded, shutting down...")
		} else {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	} else {
		log.Info().Msg("Shutdown complete")
	}

	sink.Close()
	dump(registry, cfg.Dumpfile, log)
	logger.CloseLogger()
}

// seedMarkets reconciles the registry against the external collaborators
// described in spec.md §5.5, mirroring the market/book restoration
// sequence in original_source/src/main.rs: fetch known markets, then
// each market's external book, and seed the registry before serving
// any traffic. Unlike the original, a discovery failure is logged and
// skipped rather than panicking the process — an engine with no seeded
// markets still serves order submission and market creation once it is
// up. Uses Registry.BookOrCreate rather than CreateMarket here since
// seeding a market the registry already knows about is the expected
// steady state, not the AlreadyExists error CreateMarket reserves for
// the control plane's POST /book.
func seedMarkets(registry *engine.Registry, cfg config.Config, log zerolog.Logger) {
	client := discovery.New(cfg.KnownMarketsURL, cfg.ExternalBookURL)

	markets, err := client.KnownMarkets()
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch known markets, starting with an empty registry")
		return
	}

	for _, market := range markets {
		registry.BookOrCreate(market)

		orders, err := client.ExternalBook(market)
		if err != nil {
			log.Warn().Err(err).Str("market", market.Hex()).Msg("failed to fetch external book for market")
			continue
		}
		registry.Seed(market, orders)
	}
}

// dumpfileEntry is one market's resting orders in the operator-facing
// shutdown dump. This is a write-only diagnostic, not a recovery path:
// spec.md's non-goals explicitly exclude persistence and restart
// recovery, so nothing ever reads this file back in.
type dumpfileEntry struct {
	Market string             `json:"market"`
	Bids   []engine.WireOrder `json:"bids"`
	Asks   []engine.WireOrder `json:"asks"`
}

func dump(registry *engine.Registry, path string, log zerolog.Logger) {
	if path == "" {
		return
	}

	var entries []dumpfileEntry
	for _, market := range registry.ListMarkets() {
		book, ok := registry.Book(market)
		if !ok {
			continue
		}
		snap := book.Snapshot()
		entry := dumpfileEntry{Market: market.Hex()}
		for _, lvl := range snap.Bids {
			for _, o := range lvl.Orders {
				entry.Bids = append(entry.Bids, o.ToWire())
			}
		}
		for _, lvl := range snap.Asks {
			for _, o := range lvl.Orders {
				entry.Asks = append(entry.Asks, o.ToWire())
			}
		}
		entries = append(entries, entry)
	}

	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("failed to encode shutdown dump")
		return
	}

	if err := os.WriteFile(path, payload, 0644); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to write shutdown dump")
		return
	}
	log.Info().Str("path", path).Int("markets", len(entries)).Msg("wrote shutdown dump")
}
