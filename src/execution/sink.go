// Package execution delivers matched order pairs to the downstream
// Executioner service, the external collaborator described in
// spec.md §5. It is grounded on original_source/src/rpc.rs's
// reqwest-based HTTP calls, translated to the standard library's
// net/http.Client — no HTTP client library appears anywhere in the
// example corpus, so the client itself is the one deliberate
// stdlib-only piece here (see DESIGN.md).
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tracer-protocol/ome/src/engine"
	"github.com/tracer-protocol/ome/src/logger"
)

// Batch is one book's matched pairs from a single Book.Submit call,
// delivered to the Executioner as a unit to preserve per-book FIFO
// ordering (spec.md §5.2). Cross-book ordering is not guaranteed.
type Batch struct {
	Market engine.Address
	Pairs  []engine.MatchPair
}

// wireSubmission is the POST /submit body spec.md §6's "Execution API"
// specifies: parallel makers/takers lists of full Order objects, using
// the same canonical WireOrder encoding as the control plane. Index i
// of Makers was matched against index i of Takers. The per-pair fill
// amount and price (MatchPair.Amount and Price) are not included in the
// body, and an order's amount minus amount_left is its total filled
// quantity, not the quantity of this pair.
type wireSubmission struct {
	Makers []engine.WireOrder `json:"makers"`
	Takers []engine.WireOrder `json:"takers"`
}

func toWire(b Batch) wireSubmission {
	out := wireSubmission{
		Makers: make([]engine.WireOrder, 0, len(b.Pairs)),
		Takers: make([]engine.WireOrder, 0, len(b.Pairs)),
	}
	for _, p := range b.Pairs {
		out.Makers = append(out.Makers, p.Maker.ToWire())
		out.Takers = append(out.Takers, p.Taker.ToWire())
	}
	return out
}

// RetryPolicy bounds the exponential backoff applied to transient
// delivery failures (network errors, timeouts, and 5xx responses).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches spec.md §5.3's "bounded exponential
// backoff" requirement without naming specific numbers.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 6,
	BaseDelay:   200 * time.Millisecond,
	MaxDelay:    10 * time.Second,
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// Sink is an asynchronous, single-consumer delivery pipeline to the
// Executioner. Enqueue blocks when the internal queue is full,
// providing the backpressure spec.md §5.4 requires rather than
// dropping or buffering unboundedly.
type Sink struct {
	url    string
	client *http.Client
	policy RetryPolicy
	queue  chan Batch
	done   chan struct{}
}

// New constructs a Sink and starts its consumer goroutine. queueSize
// bounds the number of in-flight batches before Enqueue blocks.
// executionerAddress is the Executioner's base address; per spec.md
// §4.6/§6, deliveries are POSTed to executionerAddress + "/submit".
func New(executionerAddress string, queueSize int, policy RetryPolicy) *Sink {
	s := &Sink{
		url:    strings.TrimRight(executionerAddress, "/") + "/submit",
		client: &http.Client{Timeout: 10 * time.Second},
		policy: policy,
		queue:  make(chan Batch, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Enqueue submits a batch for delivery, blocking if the queue is full.
// A nil or empty batch is a no-op: books that didn't match anything
// have nothing to forward.
func (s *Sink) Enqueue(ctx context.Context, b Batch) error {
	if len(b.Pairs) == 0 {
		return nil
	}
	select {
	case s.queue <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new batches and waits for the queue to drain.
func (s *Sink) Close() {
	close(s.queue)
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)
	for batch := range s.queue {
		s.deliver(batch)
	}
}

func (s *Sink) deliver(b Batch) {
	payload, err := json.Marshal(toWire(b))
	if err != nil {
		logger.Logger.Error().Err(err).Str("market", b.Market.Hex()).Msg("failed to encode batch for executioner")
		return
	}

	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		status, err := s.post(payload)
		if err == nil && status < 300 {
			return
		}
		if err == nil && status >= 400 && status < 500 {
			// permanent rejection: the Executioner will never accept this
			// batch as-is. Drop and log rather than retry forever.
			logger.Logger.Error().
				Int("status", status).
				Str("market", b.Market.Hex()).
				Msg("executioner rejected batch, dropping")
			return
		}

		logger.Logger.Warn().
			Err(err).
			Int("status", status).
			Int("attempt", attempt+1).
			Str("market", b.Market.Hex()).
			Msg("executioner delivery failed, retrying")

		time.Sleep(s.policy.delay(attempt))
	}

	logger.Logger.Error().
		Str("market", b.Market.Hex()).
		Int("matches", len(b.Pairs)).
		Msg("executioner delivery exhausted retries, dropping batch")
}

func (s *Sink) post(payload []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build executioner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
