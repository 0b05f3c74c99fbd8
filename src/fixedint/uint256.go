// Package fixedint implements checked arithmetic on 256-bit integers,
// the unit of account for every price and amount in the matching
// engine. No floating point is used anywhere in the core.
package fixedint

import (
	"github.com/holiman/uint256"

	"github.com/tracer-protocol/ome/src/errs"
)

// Uint256 is an unsigned 256-bit integer. It wraps holiman/uint256.Int
// rather than math/big.Int because the engine's hot path (price
// comparison and amount decrement inside the matching loop) benefits
// from uint256's fixed-width, allocation-free representation.
type Uint256 struct {
	v uint256.Int
}

// Zero is the additive identity.
var Zero = Uint256{}

// NewUint64 constructs a Uint256 from a machine word.
func NewUint64(v uint64) Uint256 {
	return Uint256{v: *uint256.NewInt(v)}
}

// ParseDecimal parses a base-10 string, the wire encoding used for all
// 256-bit quantities per the control-plane JSON schema.
func ParseDecimal(s string) (Uint256, error) {
	var z uint256.Int
	if err := z.SetFromDecimal(s); err != nil {
		return Uint256{}, errs.New(errs.InvalidOrder, "invalid decimal integer: "+s)
	}
	return Uint256{v: z}, nil
}

// String renders the value as a base-10 string.
func (u Uint256) String() string {
	return u.v.Dec()
}

// IsZero reports whether the value is zero.
func (u Uint256) IsZero() bool {
	return u.v.IsZero()
}

// Cmp returns -1, 0, or 1 comparing u to other.
func (u Uint256) Cmp(other Uint256) int {
	return u.v.Cmp(&other.v)
}

// Add returns u+other, or an Internal error on overflow.
func (u Uint256) Add(other Uint256) (Uint256, error) {
	var z uint256.Int
	_, overflow := z.AddOverflow(&u.v, &other.v)
	if overflow {
		return Uint256{}, errs.New(errs.Internal, "256-bit addition overflow")
	}
	return Uint256{v: z}, nil
}

// Sub returns u-other, or an Internal error on underflow.
func (u Uint256) Sub(other Uint256) (Uint256, error) {
	var z uint256.Int
	_, underflow := z.SubOverflow(&u.v, &other.v)
	if underflow {
		return Uint256{}, errs.New(errs.Internal, "256-bit subtraction underflow")
	}
	return Uint256{v: z}, nil
}

// Min returns the smaller of u and other.
func Min(a, b Uint256) Uint256 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Bytes32 returns the big-endian 32-byte representation, used when the
// value is mixed into the Keccak digest that forms an order's ID.
func (u Uint256) Bytes32() [32]byte {
	return u.v.Bytes32()
}

// MarshalJSON renders the value as a quoted decimal string, per the
// control-plane's "256-bit integers are decimal strings" rule.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.v.Dec() + `"`), nil
}

// UnmarshalJSON parses a quoted decimal string.
func (u *Uint256) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	var z uint256.Int
	if err := z.SetFromDecimal(s); err != nil {
		return errs.New(errs.InvalidOrder, "invalid decimal integer: "+s)
	}
	u.v = z
	return nil
}
