// Package discovery seeds the registry at startup by querying two
// external collaborators: a known-markets endpoint and a per-market
// external book endpoint. Grounded on
// original_source/src/rpc.rs's get_known_markets/get_external_book
// (reqwest + serde) and the seeding sequence in original_source/src/main.rs,
// translated to net/http + encoding/json.
package discovery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tracer-protocol/ome/src/engine"
	"github.com/tracer-protocol/ome/src/errs"
	"github.com/tracer-protocol/ome/src/logger"
)

// externalBook is the wire shape of one market's book as served by the
// external book endpoint: the resting orders on each side, already in
// price-time priority order.
type externalBook struct {
	Bids []engine.WireOrder `json:"bids"`
	Asks []engine.WireOrder `json:"asks"`
}

type knownMarketsResponse struct {
	Message string   `json:"message"`
	Data    []string `json:"data"`
}

type externalBookResponse struct {
	Message string       `json:"message"`
	Data    externalBook `json:"data"`
}

// Client fetches known markets and external books at startup.
type Client struct {
	httpClient      *http.Client
	knownMarketsURL string
	externalBookURL string
}

// New constructs a discovery Client. Either URL may be empty, in which
// case the corresponding fetch is skipped — with no known-markets URL
// the engine starts with no markets, and markets are then created only
// through POST /book (order submission to an unknown market is a 404).
func New(knownMarketsURL, externalBookURL string) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		knownMarketsURL: knownMarketsURL,
		externalBookURL: externalBookURL,
	}
}

// KnownMarkets fetches the list of market addresses the rest of the
// protocol expects this engine to serve.
func (c *Client) KnownMarkets() ([]engine.Address, error) {
	if c.knownMarketsURL == "" {
		return nil, nil
	}

	logger.Logger.Info().Str("url", c.knownMarketsURL).Msg("fetching known markets")

	resp, err := c.httpClient.Get(c.knownMarketsURL)
	if err != nil {
		return nil, errs.New(errs.Upstream, fmt.Sprintf("known markets request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.Upstream, fmt.Sprintf("known markets endpoint returned %d", resp.StatusCode))
	}

	var parsed knownMarketsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.New(errs.Upstream, "malformed known markets response")
	}

	markets := make([]engine.Address, 0, len(parsed.Data))
	for _, raw := range parsed.Data {
		if !engine.IsHexAddress(raw) {
			logger.Logger.Warn().Str("market", raw).Msg("skipping malformed market address")
			continue
		}
		markets = append(markets, engine.HexToAddress(raw))
	}

	logger.Logger.Info().Int("count", len(markets)).Msg("discovered known markets")
	return markets, nil
}

// ExternalBook fetches the resting orders for one market from the
// external book source, converting each wire order into an
// engine.Order ready for Registry.Seed.
func (c *Client) ExternalBook(market engine.Address) ([]*engine.Order, error) {
	if c.externalBookURL == "" {
		return nil, nil
	}

	url := c.externalBookURL + market.Hex()
	logger.Logger.Info().Str("url", url).Msg("fetching external book")

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, errs.New(errs.Upstream, fmt.Sprintf("external book request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.Upstream, fmt.Sprintf("external book endpoint returned %d", resp.StatusCode))
	}

	var parsed externalBookResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.New(errs.Upstream, "malformed external book response")
	}

	var orders []*engine.Order
	for _, side := range [][]engine.WireOrder{parsed.Data.Bids, parsed.Data.Asks} {
		for _, w := range side {
			o, err := engine.OrderFromWire(w)
			if err != nil {
				logger.Logger.Warn().Err(err).Str("order_id", w.ID).Msg("skipping malformed external order")
				continue
			}
			orders = append(orders, o)
		}
	}

	logger.Logger.Info().Str("market", market.Hex()).Int("orders", len(orders)).Msg("seeded external book")
	return orders, nil
}
