// Package models defines the control plane's request/response bodies,
// generalizing the teacher's flat SubmitOrderRequest/Response shapes
// (src/models/models.go) to the order-book domain described in
// spec.md §6. 256-bit quantities and addresses use the canonical
// decimal-string / 0x-hex wire encoding (see src/engine/wire.go).
package models

import "github.com/tracer-protocol/ome/src/engine"

// CreateOrderRequest is the POST /book/{market}/order body: an order
// without id/created/amount_left, which the book assigns on admission.
type CreateOrderRequest struct {
	Address    string `json:"address"`
	Side       string `json:"side"`
	Price      string `json:"price"`
	Amount     string `json:"amount"`
	Expiration string `json:"expiration"`
	SignedData string `json:"signed_data"`
}

// SubmitResult is the response to a successful order submission.
type SubmitResult struct {
	Order          engine.WireOrder `json:"order"`
	Classification string           `json:"classification"`
	Matches        []MatchView      `json:"matches"`
}

// MatchView is one matched (maker, taker, price, amount) pair, rendered
// for the control plane response.
type MatchView struct {
	MakerID string `json:"maker_id"`
	TakerID string `json:"taker_id"`
	Price   string `json:"price"`
	Amount  string `json:"amount"`
}

func NewMatchView(p engine.MatchPair) MatchView {
	return MatchView{
		MakerID: p.Maker.ID.Hex(),
		TakerID: p.Taker.ID.Hex(),
		Price:   p.Price.String(),
		Amount:  p.Amount.String(),
	}
}

// CancelResult is the response to a successful order cancellation.
type CancelResult struct {
	OrderID    string `json:"order_id"`
	CancelledAt string `json:"cancelled_at"`
}

// LevelView is one aggregated price level in a book snapshot response.
type LevelView struct {
	Price      string `json:"price"`
	OrderCount int    `json:"order_count"`
	Amount     string `json:"amount"`
}

// BookResponse is the GET /book/{market} response: the full book
// snapshot with derived aggregates from spec.md §3.
type BookResponse struct {
	Market  string      `json:"market"`
	Bids    []LevelView `json:"bids"`
	Asks    []LevelView `json:"asks"`
	LTP     string      `json:"last_traded_price"`
	BestBid string      `json:"best_bid,omitempty"`
	BestAsk string      `json:"best_ask,omitempty"`
	Spread  string      `json:"spread,omitempty"`
	Crossed bool        `json:"crossed"`
	Depth   DepthView   `json:"depth"`
}

// DepthView reports resting order counts per side.
type DepthView struct {
	Bid int `json:"bid"`
	Ask int `json:"ask"`
}

// MarketListResponse is the GET /book response: every known market.
type MarketListResponse struct {
	Markets []string `json:"markets"`
}

// CreateMarketRequest is the POST /book body.
type CreateMarketRequest struct {
	Market string `json:"market"`
}

// OrderListResponse is the GET /book/{market}/order response: every
// resting order in the book.
type OrderListResponse struct {
	Orders []engine.WireOrder `json:"orders"`
}

// ErrorResponse is the uniform error body returned by the fiber error
// handler for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness and basic throughput counters.
type HealthResponse struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	OrdersProcessed int64  `json:"orders_processed"`
}

// MetricsResponse reports the engine's admission-side counters. Per
// spec.md's non-goals, no latency histograms or throughput estimates
// are exposed — only plain counters, grounded in the teacher's
// OrdersReceived/OrdersMatched/OrdersCancelled fields
// (src/handlers/order_handler.go) minus the percentile/latency
// machinery that doesn't belong to this domain's ambient stack.
type MetricsResponse struct {
	OrdersReceived  int64 `json:"orders_received"`
	OrdersMatched   int64 `json:"orders_matched"`
	OrdersCancelled int64 `json:"orders_cancelled"`
	OrdersResting   int64 `json:"orders_resting"`
}
