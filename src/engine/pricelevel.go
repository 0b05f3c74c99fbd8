package engine

import "github.com/tracer-protocol/ome/src/fixedint"

// PriceLevel is a FIFO queue of resting orders at a single (side, price).
// Iteration order is head-to-tail = oldest-to-newest, matching the
// teacher's PriceLevel.Orders slice (src/engine/order.go in the
// pre-rewrite tree) with an added id->index map, so Remove(id) finds an
// order's position in O(1) instead of the teacher's linear scan
// (src/engine/orderbook.go RemoveOrder). Every removal, including
// PopHead, still compacts the slice and renumbers the map, which is
// O(n) in the level's size — levels in practice are shallow, per
// spec.md §4.1.
type PriceLevel struct {
	Price  fixedint.Uint256
	Side   Side
	orders []*Order
	index  map[OrderId]int
}

// NewPriceLevel constructs an empty level at the given price and side.
func NewPriceLevel(price fixedint.Uint256, side Side) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Side:   side,
		orders: make([]*Order, 0, 4),
		index:  make(map[OrderId]int),
	}
}

// Len returns the number of resting orders in the level.
func (l *PriceLevel) Len() int {
	return len(l.orders)
}

// Append adds an order to the tail of the queue.
func (l *PriceLevel) Append(o *Order) {
	l.index[o.ID] = len(l.orders)
	l.orders = append(l.orders, o)
}

// PeekHead returns the oldest resting order without removing it.
func (l *PriceLevel) PeekHead() *Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// PopHead removes and returns the oldest resting order.
func (l *PriceLevel) PopHead() *Order {
	if len(l.orders) == 0 {
		return nil
	}
	o := l.orders[0]
	l.removeAt(0)
	return o
}

// Remove excises the order with the given ID from anywhere in the
// queue, preserving FIFO order of the remaining orders.
func (l *PriceLevel) Remove(id OrderId) (*Order, bool) {
	idx, ok := l.index[id]
	if !ok {
		return nil, false
	}
	o := l.orders[idx]
	l.removeAt(idx)
	return o, true
}

func (l *PriceLevel) removeAt(idx int) {
	removed := l.orders[idx]
	l.orders = append(l.orders[:idx], l.orders[idx+1:]...)
	delete(l.index, removed.ID)
	for id, i := range l.index {
		if i > idx {
			l.index[id] = i - 1
		}
	}
}

// Orders returns the resting orders in FIFO order. The returned slice
// must not be mutated by the caller.
func (l *PriceLevel) Orders() []*Order {
	return l.orders
}
