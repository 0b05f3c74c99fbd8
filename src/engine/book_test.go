package engine

import (
	"testing"
	"time"

	"github.com/tracer-protocol/ome/src/errs"
	"github.com/tracer-protocol/ome/src/fixedint"
)

var (
	testMarket  = Address{0x01}
	testTrader1 = Address{0x02}
	testTrader2 = Address{0x03}
)

func price(s string) fixedint.Uint256 {
	v, err := fixedint.ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

func submitReq(trader Address, side Side, p, amount string) SubmitRequest {
	return SubmitRequest{
		Trader:     trader,
		Market:     testMarket,
		Side:       side,
		Price:      price(p),
		Amount:     price(amount),
		Expiration: time.Now().Add(time.Hour),
	}
}

func TestSubmitRestsWhenNoCross(t *testing.T) {
	b := NewBook(testMarket)

	class, pairs, order, err := b.Submit(submitReq(testTrader1, Bid, "100", "10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class != Add {
		t.Errorf("expected Add, got %v", class)
	}
	if len(pairs) != 0 {
		t.Errorf("expected no matches, got %d", len(pairs))
	}
	if order.AmountLeft.Cmp(price("10")) != 0 {
		t.Errorf("expected amount left 10, got %s", order.AmountLeft)
	}

	bestBid, ok := b.BestBid()
	if !ok || bestBid.Cmp(price("100")) != 0 {
		t.Errorf("expected best bid 100, got %s (ok=%v)", bestBid, ok)
	}
}

func TestSubmitFullMatch(t *testing.T) {
	b := NewBook(testMarket)

	if _, _, _, err := b.Submit(submitReq(testTrader1, Ask, "100", "10")); err != nil {
		t.Fatalf("seed ask failed: %v", err)
	}

	class, pairs, order, err := b.Submit(submitReq(testTrader2, Bid, "100", "10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class != FullMatch {
		t.Errorf("expected FullMatch, got %v", class)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 match pair, got %d", len(pairs))
	}
	if !order.AmountLeft.IsZero() {
		t.Errorf("expected aggressor fully filled, left=%s", order.AmountLeft)
	}
	if pairs[0].Price.Cmp(price("100")) != 0 {
		t.Errorf("expected fill at maker price 100, got %s", pairs[0].Price)
	}

	if _, ok := b.BestAsk(); ok {
		t.Error("expected no resting ask after full match")
	}
}

func TestSubmitPartialMatch(t *testing.T) {
	b := NewBook(testMarket)

	if _, _, _, err := b.Submit(submitReq(testTrader1, Ask, "100", "5")); err != nil {
		t.Fatalf("seed ask failed: %v", err)
	}

	class, pairs, order, err := b.Submit(submitReq(testTrader2, Bid, "100", "10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class != PartialMatch {
		t.Errorf("expected PartialMatch, got %v", class)
	}
	if len(pairs) != 1 || pairs[0].Amount.Cmp(price("5")) != 0 {
		t.Fatalf("expected one fill of 5, got %+v", pairs)
	}
	if order.AmountLeft.Cmp(price("5")) != 0 {
		t.Errorf("expected aggressor residual 5, got %s", order.AmountLeft)
	}

	bestBid, ok := b.BestBid()
	if !ok || bestBid.Cmp(price("100")) != 0 {
		t.Errorf("expected residual to rest as best bid at 100, got %s (ok=%v)", bestBid, ok)
	}
}

func TestSubmitWalksMultipleLevels(t *testing.T) {
	b := NewBook(testMarket)

	mustSubmit(t, b, submitReq(testTrader1, Ask, "100", "5"))
	mustSubmit(t, b, submitReq(testTrader1, Ask, "101", "5"))
	mustSubmit(t, b, submitReq(testTrader1, Ask, "102", "5"))

	_, pairs, order, err := b.Submit(submitReq(testTrader2, Bid, "102", "12"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 fills across levels, got %d", len(pairs))
	}
	if !order.AmountLeft.IsZero() {
		t.Errorf("expected full fill, left=%s", order.AmountLeft)
	}
	for i, want := range []string{"100", "101", "102"} {
		if pairs[i].Price.Cmp(price(want)) != 0 {
			t.Errorf("pair %d: expected price %s, got %s", i, want, pairs[i].Price)
		}
	}
}

func TestSubmitRejectsWrongMarket(t *testing.T) {
	b := NewBook(testMarket)
	req := submitReq(testTrader1, Bid, "100", "10")
	req.Market = Address{0xff}

	_, _, _, err := b.Submit(req)
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.InvalidOrder {
		t.Fatalf("expected InvalidOrder, got %v", err)
	}
}

func TestSubmitRejectsZeroPriceOrAmount(t *testing.T) {
	b := NewBook(testMarket)

	req := submitReq(testTrader1, Bid, "0", "10")
	if _, _, _, err := b.Submit(req); err == nil {
		t.Error("expected error for zero price")
	}

	req = submitReq(testTrader1, Bid, "100", "0")
	if _, _, _, err := b.Submit(req); err == nil {
		t.Error("expected error for zero amount")
	}
}

func TestSubmitRejectsPastExpiration(t *testing.T) {
	b := NewBook(testMarket)
	req := submitReq(testTrader1, Bid, "100", "10")
	req.Expiration = time.Now().Add(-time.Hour)

	_, _, _, err := b.Submit(req)
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.InvalidOrder {
		t.Fatalf("expected InvalidOrder, got %v", err)
	}
}

func TestSubmitRejectsDuplicateOrder(t *testing.T) {
	b := NewBook(testMarket)
	req := submitReq(testTrader1, Bid, "100", "10")
	req.Expiration = time.Now().Add(time.Hour).Truncate(time.Second)

	_, _, _, err := b.Submit(req)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, _, _, err = b.Submit(req)
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.DuplicateOrder {
		t.Fatalf("expected DuplicateOrder on identical resubmission, got %v", err)
	}
}

func TestExpiredRestingOrderIsReapedDuringMatch(t *testing.T) {
	b := NewBook(testMarket)

	expiringReq := submitReq(testTrader1, Ask, "100", "5")
	expiringReq.Expiration = time.Now().Add(50 * time.Millisecond)
	mustSubmit(t, b, expiringReq)

	live := mustSubmit(t, b, submitReq(testTrader1, Ask, "100", "5"))

	// The book's clock has second resolution, so wait until the first
	// whole second after the expiration has begun.
	time.Sleep(time.Until(expiringReq.Expiration.Truncate(time.Second).Add(time.Second)) + 50*time.Millisecond)

	class, pairs, order, err := b.Submit(submitReq(testTrader2, Bid, "100", "5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class != FullMatch {
		t.Errorf("expected FullMatch against the non-expired resting order, got %v", class)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one fill (expired order skipped), got %d", len(pairs))
	}
	if pairs[0].Maker.ID != live.ID {
		t.Error("expected the fill against the non-expired resting order")
	}
	if !order.AmountLeft.IsZero() {
		t.Errorf("expected aggressor fully filled, left=%s", order.AmountLeft)
	}
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	b := NewBook(testMarket)
	_, _, order, err := b.Submit(submitReq(testTrader1, Bid, "100", "10"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := b.Cancel(order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := b.GetOrder(order.ID); err == nil {
		t.Error("expected order to be gone after cancel")
	}
	if _, ok := b.BestBid(); ok {
		t.Error("expected no best bid after cancelling the only resting order")
	}
}

func TestCancelUnknownOrderFails(t *testing.T) {
	b := NewBook(testMarket)
	_, err := b.Cancel(OrderId{0xde, 0xad})
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestBookNeverCrossedAtRest(t *testing.T) {
	b := NewBook(testMarket)
	mustSubmit(t, b, submitReq(testTrader1, Bid, "99", "10"))
	mustSubmit(t, b, submitReq(testTrader1, Ask, "101", "10"))

	snap := b.Snapshot()
	if snap.Crossed {
		t.Error("book must never report crossed at rest")
	}
	bestBid, _ := b.BestBid()
	bestAsk, _ := b.BestAsk()
	if bestBid.Cmp(bestAsk) >= 0 {
		t.Errorf("best bid %s must be strictly below best ask %s at rest", bestBid, bestAsk)
	}
}

func TestSnapshotDepthAndSpread(t *testing.T) {
	b := NewBook(testMarket)
	mustSubmit(t, b, submitReq(testTrader1, Bid, "99", "10"))
	mustSubmit(t, b, submitReq(testTrader1, Bid, "98", "10"))
	mustSubmit(t, b, submitReq(testTrader1, Ask, "101", "10"))

	snap := b.Snapshot()
	if snap.Depth.Bid != 2 {
		t.Errorf("expected bid depth 2, got %d", snap.Depth.Bid)
	}
	if snap.Depth.Ask != 1 {
		t.Errorf("expected ask depth 1, got %d", snap.Depth.Ask)
	}
	if snap.Spread.String() != "2" {
		t.Errorf("expected spread 2 (101-99), got %s", snap.Spread.String())
	}
	if len(snap.Bids) != 2 || len(snap.Asks) != 1 {
		t.Errorf("expected 2 bid levels and 1 ask level, got %d/%d", len(snap.Bids), len(snap.Asks))
	}
}

func TestPriceTimePriorityWithinLevel(t *testing.T) {
	b := NewBook(testMarket)
	_, _, first, err := b.Submit(submitReq(testTrader1, Ask, "100", "5"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	second := submitReq(testTrader2, Ask, "100", "5")
	second.Expiration = first.Expiration.Add(time.Second)
	_, _, _, err = b.Submit(second)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, pairs, _, err := b.Submit(submitReq(testTrader1, Bid, "100", "5"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected one fill, got %d", len(pairs))
	}
	if pairs[0].Maker.ID != first.ID {
		t.Error("expected the first-in order at the level to fill first")
	}
}

func mustSubmit(t *testing.T, b *Book, req SubmitRequest) *Order {
	t.Helper()
	_, _, order, err := b.Submit(req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return order
}
