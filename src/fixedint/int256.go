package fixedint

import (
	"math/big"

	"github.com/tracer-protocol/ome/src/errs"
)

// Int256 is a signed 256-bit integer, used only for the book's spread
// (best_ask - best_bid), which can be negative during a transient
// cross. No third-party signed-256 type exists anywhere in the example
// corpus (holiman/uint256 is unsigned-only), so this wraps the standard
// library's math/big.Int and enforces the 256-bit range by hand — see
// DESIGN.md for the justification.
type Int256 struct {
	v big.Int
}

var (
	int256Min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	int256Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
)

// ZeroInt256 is the additive identity.
var ZeroInt256 = Int256{}

// FromUint256 widens an unsigned 256-bit value into a signed one.
func FromUint256(u Uint256) Int256 {
	var z Int256
	z.v.SetBytes(u.v.Bytes())
	return z
}

// SubSigned computes a-b over the signed 256-bit range, as used for
// spread = best_ask - best_bid.
func SubSigned(a, b Uint256) (Int256, error) {
	var z big.Int
	z.Sub(new(big.Int).SetBytes(a.v.Bytes()), new(big.Int).SetBytes(b.v.Bytes()))
	if z.Cmp(int256Min) < 0 || z.Cmp(int256Max) > 0 {
		return Int256{}, errs.New(errs.Internal, "signed 256-bit value out of range")
	}
	return Int256{v: z}, nil
}

// String renders the value as a base-10 string, sign included.
func (i Int256) String() string {
	return i.v.String()
}

// IsZero reports whether the value is zero.
func (i Int256) IsZero() bool {
	return i.v.Sign() == 0
}

// MarshalJSON renders the value as a quoted decimal string.
func (i Int256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.v.String() + `"`), nil
}
