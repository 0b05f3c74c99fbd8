// Package handlers implements the control plane's HTTP handlers,
// generalizing the teacher's OrderHandler (src/handlers/order_handler.go)
// from a single flat order book to the multi-market registry, signed
// 256-bit orders, and execution hand-off described in spec.md §4, §5, §6.
package handlers

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tracer-protocol/ome/src/engine"
	"github.com/tracer-protocol/ome/src/errs"
	"github.com/tracer-protocol/ome/src/execution"
	"github.com/tracer-protocol/ome/src/fixedint"
	"github.com/tracer-protocol/ome/src/models"
)

// OrderHandler serves the control plane's /book routes against a
// Registry, forwarding matched pairs to an execution.Sink.
type OrderHandler struct {
	Registry  *engine.Registry
	Sink      *execution.Sink
	StartTime time.Time

	ordersReceived  int64
	ordersMatched   int64
	ordersCancelled int64
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(registry *engine.Registry, sink *execution.Sink) *OrderHandler {
	return &OrderHandler{
		Registry:  registry,
		Sink:      sink,
		StartTime: time.Now(),
	}
}

// ListMarkets handles GET /book.
func (h *OrderHandler) ListMarkets(c *fiber.Ctx) error {
	markets := h.Registry.ListMarkets()
	out := make([]string, 0, len(markets))
	for _, m := range markets {
		out = append(out, m.Hex())
	}
	return c.Status(fiber.StatusOK).JSON(models.MarketListResponse{Markets: out})
}

// CreateMarket handles POST /book.
func (h *OrderHandler) CreateMarket(c *fiber.Ctx) error {
	var req models.CreateMarketRequest
	if err := c.BodyParser(&req); err != nil {
		return errs.New(errs.InvalidOrder, "malformed request body")
	}
	if !engine.IsHexAddress(req.Market) {
		return errs.New(errs.InvalidOrder, "invalid market address")
	}
	if _, err := h.Registry.CreateMarket(engine.HexToAddress(req.Market)); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(models.MarketListResponse{Markets: []string{req.Market}})
}

// GetBook handles GET /book/{market}.
func (h *OrderHandler) GetBook(c *fiber.Ctx) error {
	market, err := parseMarket(c)
	if err != nil {
		return err
	}

	book, ok := h.Registry.Book(market)
	if !ok {
		return errs.New(errs.NotFound, "market not found")
	}

	snap := book.Snapshot()

	resp := models.BookResponse{
		Market:  market.Hex(),
		LTP:     snap.LTP.String(),
		Crossed: snap.Crossed,
		Depth:   models.DepthView{Bid: snap.Depth.Bid, Ask: snap.Depth.Ask},
	}
	for _, lvl := range snap.Bids {
		resp.Bids = append(resp.Bids, levelView(lvl))
	}
	for _, lvl := range snap.Asks {
		resp.Asks = append(resp.Asks, levelView(lvl))
	}
	if bid, ok := book.BestBid(); ok {
		resp.BestBid = bid.String()
	}
	if ask, ok := book.BestAsk(); ok {
		resp.BestAsk = ask.String()
	}
	if !snap.Spread.IsZero() {
		resp.Spread = snap.Spread.String()
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func levelView(lvl engine.LevelView) models.LevelView {
	total := lvl.Orders[0].AmountLeft
	for _, o := range lvl.Orders[1:] {
		sum, err := total.Add(o.AmountLeft)
		if err == nil {
			total = sum
		}
	}
	return models.LevelView{
		Price:      lvl.Price.String(),
		OrderCount: len(lvl.Orders),
		Amount:     total.String(),
	}
}

// ListOrders handles GET /book/{market}/order.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	market, err := parseMarket(c)
	if err != nil {
		return err
	}
	book, ok := h.Registry.Book(market)
	if !ok {
		return errs.New(errs.NotFound, "market not found")
	}

	orders := book.AllOrders()
	out := make([]engine.WireOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ToWire())
	}
	return c.Status(fiber.StatusOK).JSON(models.OrderListResponse{Orders: out})
}

// GetOrder handles GET /book/{market}/order/{order_id}.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	market, err := parseMarket(c)
	if err != nil {
		return err
	}
	book, ok := h.Registry.Book(market)
	if !ok {
		return errs.New(errs.NotFound, "market not found")
	}

	orderID, err := parseOrderID(c)
	if err != nil {
		return err
	}

	order, err := book.GetOrder(orderID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(order.ToWire())
}

// CreateOrder handles POST /book/{market}/order: validates, submits to
// the book, and forwards any resulting matches to the execution sink.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	market, err := parseMarket(c)
	if err != nil {
		return err
	}

	var req models.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return errs.New(errs.InvalidOrder, "malformed request body")
	}

	submitReq, err := toSubmitRequest(market, req)
	if err != nil {
		return err
	}

	book, ok := h.Registry.Book(market)
	if !ok {
		return errs.New(errs.NotFound, "market not found")
	}

	atomic.AddInt64(&h.ordersReceived, 1)

	classification, pairs, order, err := book.Submit(submitReq)
	if err != nil {
		log.Warn().Err(err).Str("market", market.Hex()).Str("ip", c.IP()).Msg("order admission failed")
		return err
	}

	if len(pairs) > 0 {
		atomic.AddInt64(&h.ordersMatched, 1)
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		if err := h.Sink.Enqueue(ctx, execution.Batch{Market: market, Pairs: pairs}); err != nil {
			log.Error().Err(err).Str("market", market.Hex()).Msg("failed to enqueue matched pairs for execution")
		}
	}

	log.Info().
		Str("order_id", order.ID.Hex()).
		Str("market", market.Hex()).
		Str("classification", classification.String()).
		Int("matches", len(pairs)).
		Msg("order processed")

	matches := make([]models.MatchView, 0, len(pairs))
	for _, p := range pairs {
		matches = append(matches, models.NewMatchView(p))
	}

	resp := models.SubmitResult{
		Order:          order.ToWire(),
		Classification: classification.String(),
		Matches:        matches,
	}

	status := fiber.StatusCreated
	if classification == engine.FullMatch {
		status = fiber.StatusOK
	} else if classification == engine.PartialMatch {
		status = fiber.StatusAccepted
	}

	return c.Status(status).JSON(resp)
}

// CancelOrder handles DELETE /book/{market}/order/{order_id}.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	market, err := parseMarket(c)
	if err != nil {
		return err
	}
	book, ok := h.Registry.Book(market)
	if !ok {
		return errs.New(errs.NotFound, "market not found")
	}

	orderID, err := parseOrderID(c)
	if err != nil {
		return err
	}

	cancelledAt, err := book.Cancel(orderID)
	if err != nil {
		return err
	}

	atomic.AddInt64(&h.ordersCancelled, 1)
	log.Info().Str("order_id", orderID.Hex()).Str("market", market.Hex()).Str("ip", c.IP()).Msg("order cancelled")

	return c.Status(fiber.StatusOK).JSON(models.CancelResult{
		OrderID:     orderID.Hex(),
		CancelledAt: strconv.FormatInt(cancelledAt.Unix(), 10),
	})
}

// HealthCheck handles GET /health.
func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:          "healthy",
		UptimeSeconds:   int64(time.Since(h.StartTime).Seconds()),
		OrdersProcessed: atomic.LoadInt64(&h.ordersReceived),
	})
}

// Metrics handles GET /metrics.
func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	var resting int64
	for _, m := range h.Registry.ListMarkets() {
		if book, ok := h.Registry.Book(m); ok {
			d := book.Snapshot().Depth
			resting += int64(d.Bid + d.Ask)
		}
	}

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersReceived:  atomic.LoadInt64(&h.ordersReceived),
		OrdersMatched:   atomic.LoadInt64(&h.ordersMatched),
		OrdersCancelled: atomic.LoadInt64(&h.ordersCancelled),
		OrdersResting:   resting,
	})
}

func parseMarket(c *fiber.Ctx) (engine.Address, error) {
	raw := c.Params("market")
	if !engine.IsHexAddress(raw) {
		return engine.Address{}, errs.New(errs.InvalidOrder, "invalid market address")
	}
	return engine.HexToAddress(raw), nil
}

func parseOrderID(c *fiber.Ctx) (engine.OrderId, error) {
	raw := c.Params("order_id")
	if len(raw) != 66 || raw[:2] != "0x" {
		return engine.OrderId{}, errs.New(errs.InvalidOrder, "invalid order id")
	}
	return engine.HexToOrderId(raw), nil
}

func toSubmitRequest(market engine.Address, req models.CreateOrderRequest) (engine.SubmitRequest, error) {
	if !engine.IsHexAddress(req.Address) {
		return engine.SubmitRequest{}, errs.New(errs.InvalidOrder, "invalid trader address")
	}
	side, ok := engine.ParseSide(req.Side)
	if !ok {
		return engine.SubmitRequest{}, errs.New(errs.InvalidOrder, "invalid side")
	}

	price, err := fixedint.ParseDecimal(req.Price)
	if err != nil {
		return engine.SubmitRequest{}, err
	}
	amount, err := fixedint.ParseDecimal(req.Amount)
	if err != nil {
		return engine.SubmitRequest{}, err
	}

	expSeconds, err := strconv.ParseInt(req.Expiration, 10, 64)
	if err != nil {
		return engine.SubmitRequest{}, errs.New(errs.InvalidOrder, "invalid expiration")
	}

	signed, err := engine.ParseSignedData(req.SignedData)
	if err != nil {
		return engine.SubmitRequest{}, err
	}

	return engine.SubmitRequest{
		Trader:     engine.HexToAddress(req.Address),
		Market:     market,
		Side:       side,
		Price:      price,
		Amount:     amount,
		Expiration: time.Unix(expSeconds, 0).UTC(),
		SignedData: signed,
	}, nil
}
