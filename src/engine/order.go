package engine

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tracer-protocol/ome/src/fixedint"
)

// Side enumerates which side of the market an order rests on.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

// Opposite returns the side an aggressor of this side matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// ParseSide parses the wire representation of a side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "Bid", "bid", "BID":
		return Bid, true
	case "Ask", "ask", "ASK":
		return Ask, true
	default:
		return 0, false
	}
}

// OrderId is a 32-byte digest uniquely identifying an order.
type OrderId = common.Hash

// Address is a 20-byte opaque identifier for a trader or market.
type Address = common.Address

// SignedData is the trader's signature over the order, accepted as
// opaque bytes — the engine never verifies it cryptographically.
type SignedData [65]byte

// Order is immutable except for AmountLeft, which only ever decreases.
type Order struct {
	ID         OrderId
	Trader     Address
	Market     Address
	Side       Side
	Price      fixedint.Uint256
	Amount     fixedint.Uint256 // original quantity, never mutated
	AmountLeft fixedint.Uint256 // remaining quantity, monotonically decreasing
	Expiration time.Time
	Created    time.Time
	SignedData SignedData
}

// computeID derives the order's identity deterministically from its
// admission parameters, the same way original_source/src/order.rs's
// order_id function binds trader+market+side+price+amount+expiration+
// created into a single digest — here via Keccak-256 over the
// concatenation of each field's fixed-width encoding rather than ABI
// encoding (no ethabi-equivalent package exists in the example corpus).
func computeID(trader, market Address, side Side, price, amount fixedint.Uint256, expiration, created time.Time) OrderId {
	var sideByte [1]byte
	if side == Ask {
		sideByte[0] = 1
	}
	priceBytes := price.Bytes32()
	amountBytes := amount.Bytes32()

	var expBytes, createdBytes [8]byte
	putUint64(expBytes[:], uint64(expiration.Unix()))
	putUint64(createdBytes[:], uint64(created.Unix()))

	return crypto.Keccak256Hash(
		trader.Bytes(),
		market.Bytes(),
		sideByte[:],
		priceBytes[:],
		amountBytes[:],
		expBytes[:],
		createdBytes[:],
	)
}

func putUint64(dst []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// NewOrder constructs a new Order, assigning its ID and initializing
// AmountLeft to Amount. created is supplied by the caller: Book.Submit
// passes its admission time truncated to the second, so orders admitted
// within the same second share a Created stamp. FIFO order within a
// price level comes from the level's append order, not from Created.
func NewOrder(trader, market Address, side Side, price, amount fixedint.Uint256, expiration, created time.Time, signed SignedData) *Order {
	return &Order{
		ID:         computeID(trader, market, side, price, amount, expiration, created),
		Trader:     trader,
		Market:     market,
		Side:       side,
		Price:      price,
		Amount:     amount,
		AmountLeft: amount,
		Expiration: expiration,
		Created:    created,
		SignedData: signed,
	}
}

// Expired reports whether the order's expiration is at or before now.
func (o *Order) Expired(now time.Time) bool {
	return !o.Expiration.After(now)
}

// MatchPair is one matched (maker, taker, price, amount) tuple produced
// by the matching loop. Fills always execute at the maker's price.
type MatchPair struct {
	Maker  *Order
	Taker  *Order
	Price  fixedint.Uint256
	Amount fixedint.Uint256
}

// Classification is the outcome of Book.Submit.
type Classification int

const (
	Add Classification = iota
	PartialMatch
	FullMatch
)

func (c Classification) String() string {
	switch c {
	case Add:
		return "Add"
	case PartialMatch:
		return "PartialMatch"
	case FullMatch:
		return "FullMatch"
	default:
		return "Unknown"
	}
}
