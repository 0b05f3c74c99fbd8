package engine

import (
	"sync"

	"github.com/tracer-protocol/ome/src/errs"
)

// Registry holds one Book per market. Its own mutex guards only map
// membership (creating/destroying markets); once a *Book is obtained,
// callers take that book's own lock, so independent markets mutate
// fully in parallel — the same split the teacher applies between its
// Matcher.mu (registry-level) and OrderBook.mu (per-book) in
// src/engine/matcher.go.
type Registry struct {
	mu    sync.RWMutex
	books map[Address]*Book
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{books: make(map[Address]*Book)}
}

// CreateMarket registers a new, empty book for the market. Creating a
// market that already exists is an error, per spec.md §4.5's
// create_market(addr) contract and §8's round-trip property ("create
// again fails").
func (r *Registry) CreateMarket(market Address) (*Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[market]; ok {
		return nil, errs.New(errs.AlreadyExists, "market already exists")
	}
	b := NewBook(market)
	r.books[market] = b
	return b, nil
}

// getOrCreate returns the book for a market, creating it first if
// necessary, without the AlreadyExists failure CreateMarket raises.
// Used internally by BookOrCreate and Seed, where an already-registered
// market is the expected steady state, not an error.
func (r *Registry) getOrCreate(market Address) *Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[market]; ok {
		return b
	}
	b := NewBook(market)
	r.books[market] = b
	return b
}

// DestroyMarket removes a market's book entirely.
func (r *Registry) DestroyMarket(market Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[market]; !ok {
		return errs.New(errs.NotFound, "market not found")
	}
	delete(r.books, market)
	return nil
}

// ListMarkets returns every known market address.
func (r *Registry) ListMarkets() []Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Address, 0, len(r.books))
	for m := range r.books {
		out = append(out, m)
	}
	return out
}

// Book returns the book for a market, or nil if none exists.
func (r *Registry) Book(market Address) (*Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[market]
	return b, ok
}

// BookOrCreate returns the book for a market, creating it first if
// necessary. Used by Seed when discovery reports a market the registry
// hasn't seen yet; order submission (src/handlers.CreateOrder) must not
// call this — spec.md §6 requires POST /book/{market}/order to 404 on
// an unknown market rather than create it implicitly.
func (r *Registry) BookOrCreate(market Address) *Book {
	return r.getOrCreate(market)
}

// Seed inserts a batch of already-resting orders directly into a
// market's book, bypassing the matching algorithm. Used by
// src/discovery to reconcile with an external book source at startup.
func (r *Registry) Seed(market Address, orders []*Order) {
	b := r.BookOrCreate(market)
	for _, o := range orders {
		b.seedResting(o)
	}
}
