package engine

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/tracer-protocol/ome/src/errs"
	"github.com/tracer-protocol/ome/src/fixedint"
)

// bidItem and askItem give the btree its traversal order: bids descend
// from highest price (Bids.Min() yields the best bid), asks ascend from
// lowest price (Asks.Min() yields the best ask) — exactly the
// PriceLevelItem / PriceLevelItemAscending split the teacher uses in
// src/engine/orderbook.go, generalized from int64 cents to
// fixedint.Uint256.
type bidItem struct{ level *PriceLevel }

func (b *bidItem) Less(than btree.Item) bool {
	other := than.(*bidItem)
	return b.level.Price.Cmp(other.level.Price) > 0
}

type askItem struct{ level *PriceLevel }

func (a *askItem) Less(than btree.Item) bool {
	other := than.(*askItem)
	return a.level.Price.Cmp(other.level.Price) < 0
}

// bookLocation is the non-owning back-reference stored in Book.index.
type bookLocation struct {
	Side  Side
	Price fixedint.Uint256
}

// Depth counts resting orders per side (not price levels), per
// spec.md invariant 3.
type Depth struct {
	Bid int
	Ask int
}

// Book holds one market's resting orders and derived aggregates. All
// mutation happens under mu, matching the teacher's per-OrderBook
// sync.RWMutex discipline (src/engine/orderbook.go).
type Book struct {
	Market Address

	bids *btree.BTree
	asks *btree.BTree

	index map[OrderId]bookLocation

	ltp     fixedint.Uint256
	depth   Depth
	bestBid *fixedint.Uint256
	bestAsk *fixedint.Uint256

	mu sync.RWMutex
}

// NewBook constructs an empty book for the given market.
func NewBook(market Address) *Book {
	return &Book{
		Market: market,
		bids:   btree.New(32),
		asks:   btree.New(32),
		index:  make(map[OrderId]bookLocation),
	}
}

func (b *Book) treeFor(side Side) *btree.BTree {
	if side == Bid {
		return b.bids
	}
	return b.asks
}

func wrapItem(side Side, level *PriceLevel) btree.Item {
	if side == Bid {
		return &bidItem{level: level}
	}
	return &askItem{level: level}
}

func levelFromItem(side Side, item btree.Item) *PriceLevel {
	if side == Bid {
		return item.(*bidItem).level
	}
	return item.(*askItem).level
}

// levelFor finds the level at a price on a side, creating it (and
// inserting it into the btree) if create is true and it doesn't exist.
func (b *Book) levelFor(side Side, price fixedint.Uint256, create bool) *PriceLevel {
	tree := b.treeFor(side)
	probe := NewPriceLevel(price, side)
	existing := tree.Get(wrapItem(side, probe))
	if existing != nil {
		return levelFromItem(side, existing)
	}
	if !create {
		return nil
	}
	tree.ReplaceOrInsert(wrapItem(side, probe))
	return probe
}

func (b *Book) deleteLevel(side Side, price fixedint.Uint256) {
	tree := b.treeFor(side)
	tree.Delete(wrapItem(side, NewPriceLevel(price, side)))
}

func (b *Book) recomputeBest(side Side) {
	tree := b.treeFor(side)
	item := tree.Min()
	if item == nil {
		if side == Bid {
			b.bestBid = nil
		} else {
			b.bestAsk = nil
		}
		return
	}
	price := levelFromItem(side, item).Price
	if side == Bid {
		b.bestBid = &price
	} else {
		b.bestAsk = &price
	}
}

func (b *Book) incDepth(side Side) {
	if side == Bid {
		b.depth.Bid++
	} else {
		b.depth.Ask++
	}
}

func (b *Book) decDepth(side Side) {
	if side == Bid {
		b.depth.Bid--
	} else {
		b.depth.Ask--
	}
}

// crosses reports whether an aggressor of the given side, at the given
// price, crosses a resting level at bestPrice.
func crosses(side Side, aggressorPrice, bestPrice fixedint.Uint256) bool {
	if side == Bid {
		return aggressorPrice.Cmp(bestPrice) >= 0
	}
	return aggressorPrice.Cmp(bestPrice) <= 0
}

// SubmitRequest carries the admission parameters of an incoming order.
// The book assigns ID and Created; AmountLeft starts equal to Amount.
type SubmitRequest struct {
	Trader     Address
	Market     Address
	Side       Side
	Price      fixedint.Uint256
	Amount     fixedint.Uint256
	Expiration time.Time
	SignedData SignedData
}

// Submit runs admission validation and, if it passes, the matching
// algorithm described in spec.md §4.2. It returns the classification of
// the result, the accumulated match pairs (for hand-off to the
// ExecutionSink by the caller), and the resulting order (useful to the
// control plane for its response body).
func (b *Book) Submit(req SubmitRequest) (Classification, []MatchPair, *Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)

	if req.Market != b.Market {
		return 0, nil, nil, errs.New(errs.InvalidOrder, "order market does not match this book")
	}
	if req.Price.IsZero() {
		return 0, nil, nil, errs.New(errs.InvalidOrder, "price must be positive")
	}
	if req.Amount.IsZero() {
		return 0, nil, nil, errs.New(errs.InvalidOrder, "amount must be positive")
	}
	if !req.Expiration.After(now) {
		return 0, nil, nil, errs.New(errs.InvalidOrder, "expiration must be in the future")
	}

	order := NewOrder(req.Trader, req.Market, req.Side, req.Price, req.Amount, req.Expiration, now, req.SignedData)

	if _, exists := b.index[order.ID]; exists {
		return 0, nil, nil, errs.New(errs.DuplicateOrder, "duplicate order id")
	}

	pairs, err := b.match(order, now)
	if err != nil {
		return 0, nil, nil, err
	}

	if order.AmountLeft.IsZero() {
		return FullMatch, pairs, order, nil
	}

	b.rest(order)

	if len(pairs) == 0 {
		return Add, pairs, order, nil
	}
	return PartialMatch, pairs, order, nil
}

// match walks the opposing side's price levels, filling the aggressor
// against resting orders at the maker's price until either the
// aggressor is filled or no more crossing liquidity remains. Expired
// resting orders are reaped lazily on touch without consuming
// aggressor quantity, per spec.md §4.2 step 3.
func (b *Book) match(aggressor *Order, now time.Time) ([]MatchPair, error) {
	opposite := aggressor.Side.Opposite()
	var pairs []MatchPair

	for !aggressor.AmountLeft.IsZero() {
		tree := b.treeFor(opposite)
		item := tree.Min()
		if item == nil {
			break
		}
		level := levelFromItem(opposite, item)

		if !crosses(aggressor.Side, aggressor.Price, level.Price) {
			break
		}

		resting := level.PeekHead()
		if resting == nil {
			// invariant violation: no empty level should ever be observable
			return nil, errs.New(errs.Internal, "encountered empty price level during matching")
		}

		if resting.Expired(now) {
			level.PopHead()
			delete(b.index, resting.ID)
			b.decDepth(opposite)
			if level.Len() == 0 {
				b.deleteLevel(opposite, level.Price)
				b.recomputeBest(opposite)
			}
			continue
		}

		fill := fixedint.Min(aggressor.AmountLeft, resting.AmountLeft)

		newAggLeft, err := aggressor.AmountLeft.Sub(fill)
		if err != nil {
			return nil, err
		}
		newRestLeft, err := resting.AmountLeft.Sub(fill)
		if err != nil {
			return nil, err
		}
		aggressor.AmountLeft = newAggLeft
		resting.AmountLeft = newRestLeft
		b.ltp = resting.Price

		pairs = append(pairs, MatchPair{
			Maker:  resting,
			Taker:  aggressor,
			Price:  resting.Price,
			Amount: fill,
		})

		if resting.AmountLeft.IsZero() {
			level.PopHead()
			delete(b.index, resting.ID)
			b.decDepth(opposite)
			if level.Len() == 0 {
				b.deleteLevel(opposite, level.Price)
				b.recomputeBest(opposite)
			}
		}
	}

	return pairs, nil
}

// rest places the residual aggressor at the tail of its own side's
// price level, creating the level if this is the first order at that
// price.
func (b *Book) rest(order *Order) {
	level := b.levelFor(order.Side, order.Price, true)
	level.Append(order)
	b.index[order.ID] = bookLocation{Side: order.Side, Price: order.Price}
	b.incDepth(order.Side)

	if order.Side == Bid {
		if b.bestBid == nil || order.Price.Cmp(*b.bestBid) > 0 {
			p := order.Price
			b.bestBid = &p
		}
	} else {
		if b.bestAsk == nil || order.Price.Cmp(*b.bestAsk) < 0 {
			p := order.Price
			b.bestAsk = &p
		}
	}
}

// Cancel excises a resting order by ID, returning the wall-clock time
// of cancellation.
func (b *Book) Cancel(id OrderId) (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	loc, ok := b.index[id]
	if !ok {
		return time.Time{}, errs.New(errs.NotFound, "order not found")
	}

	level := b.levelFor(loc.Side, loc.Price, false)
	if level == nil {
		return time.Time{}, errs.New(errs.Internal, "index referenced a missing price level")
	}

	if _, ok := level.Remove(id); !ok {
		return time.Time{}, errs.New(errs.Internal, "index and level disagree about order location")
	}
	delete(b.index, id)
	b.decDepth(loc.Side)

	wasBest := false
	if loc.Side == Bid && b.bestBid != nil && b.bestBid.Cmp(loc.Price) == 0 {
		wasBest = true
	}
	if loc.Side == Ask && b.bestAsk != nil && b.bestAsk.Cmp(loc.Price) == 0 {
		wasBest = true
	}

	if level.Len() == 0 {
		b.deleteLevel(loc.Side, loc.Price)
	}
	if wasBest {
		b.recomputeBest(loc.Side)
	}

	return time.Now().UTC(), nil
}

// GetOrder returns the resting order with the given ID.
func (b *Book) GetOrder(id OrderId) (*Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	loc, ok := b.index[id]
	if !ok {
		return nil, errs.New(errs.NotFound, "order not found")
	}
	level := b.levelFor(loc.Side, loc.Price, false)
	if level == nil {
		return nil, errs.New(errs.Internal, "index referenced a missing price level")
	}
	for _, o := range level.Orders() {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, errs.New(errs.Internal, "index and level disagree about order location")
}

// AllOrders returns every resting order in the book, bids then asks,
// each side in price-time priority order.
func (b *Book) AllOrders() []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*Order
	b.bids.Ascend(func(item btree.Item) bool {
		out = append(out, item.(*bidItem).level.Orders()...)
		return true
	})
	b.asks.Ascend(func(item btree.Item) bool {
		out = append(out, item.(*askItem).level.Orders()...)
		return true
	})
	return out
}

// Snapshot is the pure-read aggregate view described in spec.md §4.4.
type Snapshot struct {
	Market  Address
	Bids    []LevelView
	Asks    []LevelView
	LTP     fixedint.Uint256
	Depth   Depth
	Crossed bool
	Spread  fixedint.Int256
}

// LevelView is one price level's public view: price plus the orders
// resting at it.
type LevelView struct {
	Price  fixedint.Uint256
	Orders []*Order
}

// Snapshot returns the book's current state. It never mutates the book.
func (b *Book) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Market: b.Market,
		LTP:    b.ltp,
		Depth:  b.depth,
		// crossed is a transient diagnostic during matching only; by
		// invariant 4 the book is always uncrossed at rest.
		Crossed: false,
	}

	b.bids.Ascend(func(item btree.Item) bool {
		level := item.(*bidItem).level
		snap.Bids = append(snap.Bids, LevelView{Price: level.Price, Orders: level.Orders()})
		return true
	})
	b.asks.Ascend(func(item btree.Item) bool {
		level := item.(*askItem).level
		snap.Asks = append(snap.Asks, LevelView{Price: level.Price, Orders: level.Orders()})
		return true
	})

	if b.bestBid != nil && b.bestAsk != nil {
		if spread, err := fixedint.SubSigned(*b.bestAsk, *b.bestBid); err == nil {
			snap.Spread = spread
		}
	}

	return snap
}

// BestBid returns the current best bid price, if any.
func (b *Book) BestBid() (fixedint.Uint256, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bestBid == nil {
		return fixedint.Uint256{}, false
	}
	return *b.bestBid, true
}

// BestAsk returns the current best ask price, if any.
func (b *Book) BestAsk() (fixedint.Uint256, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bestAsk == nil {
		return fixedint.Uint256{}, false
	}
	return *b.bestAsk, true
}

// seedResting inserts an already-resting order directly into the book
// without running the matching algorithm, used by src/discovery when
// reconciling with an external authoritative book source at startup.
// The caller is responsible for ensuring the seeded population
// satisfies spec.md §3's invariants (no crossed book, positive amounts).
func (b *Book) seedResting(order *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	level := b.levelFor(order.Side, order.Price, true)
	level.Append(order)
	b.index[order.ID] = bookLocation{Side: order.Side, Price: order.Price}
	b.incDepth(order.Side)

	if order.Side == Bid {
		if b.bestBid == nil || order.Price.Cmp(*b.bestBid) > 0 {
			p := order.Price
			b.bestBid = &p
		}
	} else {
		if b.bestAsk == nil || order.Price.Cmp(*b.bestAsk) < 0 {
			p := order.Price
			b.bestAsk = &p
		}
	}
}
