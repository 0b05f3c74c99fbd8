package engine

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tracer-protocol/ome/src/errs"
	"github.com/tracer-protocol/ome/src/fixedint"
)

// WireOrder is the canonical external JSON encoding of an Order,
// chosen per spec.md §6: addresses as 0x-prefixed hex, 256-bit
// quantities as decimal strings, timestamps as unix-second strings.
// This is the shape accepted and returned by the control plane and by
// the external book discovery endpoint.
type WireOrder struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Market     string `json:"market"`
	Side       string `json:"side"`
	Price      string `json:"price"`
	Amount     string `json:"amount"`
	AmountLeft string `json:"amount_left"`
	Expiration string `json:"expiration"`
	Created    string `json:"created"`
	SignedData string `json:"signed_data"`
}

// ToWire renders an Order in the canonical wire encoding.
func (o *Order) ToWire() WireOrder {
	return WireOrder{
		ID:         o.ID.Hex(),
		Address:    o.Trader.Hex(),
		Market:     o.Market.Hex(),
		Side:       o.Side.String(),
		Price:      o.Price.String(),
		Amount:     o.Amount.String(),
		AmountLeft: o.AmountLeft.String(),
		Expiration: strconv.FormatInt(o.Expiration.Unix(), 10),
		Created:    strconv.FormatInt(o.Created.Unix(), 10),
		SignedData: "0x" + hex.EncodeToString(o.SignedData[:]),
	}
}

// IsHexAddress reports whether s is a well-formed 0x-prefixed address.
func IsHexAddress(s string) bool {
	return common.IsHexAddress(s)
}

// HexToAddress parses a 0x-prefixed address, per go-ethereum's lenient
// (non-error-returning) convention — callers that need validation
// should check IsHexAddress first.
func HexToAddress(s string) Address {
	return common.HexToAddress(s)
}

// HexToOrderId parses a 0x-prefixed 32-byte order ID.
func HexToOrderId(s string) OrderId {
	return common.HexToHash(s)
}

// ParseSignedData parses the 0x-prefixed hex encoding of a trader's
// signature over an order.
func ParseSignedData(s string) (SignedData, error) {
	return parseSignedData(s)
}

// OrderFromWire reconstructs a fully-formed Order (including
// AmountLeft, distinct from Amount) from its wire encoding. Used by
// src/discovery when seeding an externally-sourced book, where the
// order's identity and remaining quantity are given rather than
// derived. Unlike admission through Book.Submit, the ID is taken as
// given and not recomputed — the external book is an authoritative
// source, not a fresh submission.
func OrderFromWire(w WireOrder) (*Order, error) {
	if !common.IsHexAddress(w.Address) {
		return nil, errs.New(errs.InvalidOrder, "invalid trader address")
	}
	if !common.IsHexAddress(w.Market) {
		return nil, errs.New(errs.InvalidOrder, "invalid market address")
	}
	side, ok := ParseSide(w.Side)
	if !ok {
		return nil, errs.New(errs.InvalidOrder, "invalid side")
	}
	price, err := fixedint.ParseDecimal(w.Price)
	if err != nil {
		return nil, err
	}
	amount, err := fixedint.ParseDecimal(w.Amount)
	if err != nil {
		return nil, err
	}
	amountLeft, err := fixedint.ParseDecimal(w.AmountLeft)
	if err != nil {
		return nil, err
	}
	expiration, err := parseUnixSeconds(w.Expiration)
	if err != nil {
		return nil, err
	}
	created, err := parseUnixSeconds(w.Created)
	if err != nil {
		return nil, err
	}
	signed, err := parseSignedData(w.SignedData)
	if err != nil {
		return nil, err
	}

	id := common.HexToHash(w.ID)

	return &Order{
		ID:         id,
		Trader:     common.HexToAddress(w.Address),
		Market:     common.HexToAddress(w.Market),
		Side:       side,
		Price:      price,
		Amount:     amount,
		AmountLeft: amountLeft,
		Expiration: expiration,
		Created:    created,
		SignedData: signed,
	}, nil
}

func parseUnixSeconds(s string) (time.Time, error) {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, errs.New(errs.InvalidOrder, "invalid unix timestamp: "+s)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func parseSignedData(s string) (SignedData, error) {
	var out SignedData
	trimmed := strings.TrimPrefix(s, "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != len(out) {
		return out, errs.New(errs.InvalidOrder, "invalid signed_data")
	}
	copy(out[:], decoded)
	return out, nil
}
