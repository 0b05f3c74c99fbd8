package fixedint

import (
	"encoding/json"
	"testing"

	"github.com/tracer-protocol/ome/src/errs"
)

func TestParseDecimalRoundTrip(t *testing.T) {
	v, err := ParseDecimal("123456789012345678901234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.String() != "123456789012345678901234567890" {
		t.Errorf("expected round-trip string, got %s", v.String())
	}
}

func TestParseDecimalRejectsGarbage(t *testing.T) {
	_, err := ParseDecimal("not-a-number")
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.InvalidOrder {
		t.Fatalf("expected InvalidOrder, got %v", err)
	}
}

func TestAddOverflowDetected(t *testing.T) {
	maxUint256, err := ParseDecimal("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = maxUint256.Add(NewUint64(1))
	if err == nil {
		t.Fatal("expected overflow error adding 1 to max uint256")
	}
}

func TestSubUnderflowDetected(t *testing.T) {
	_, err := NewUint64(5).Sub(NewUint64(10))
	if err == nil {
		t.Fatal("expected underflow error")
	}
}

func TestSubHappyPath(t *testing.T) {
	v, err := NewUint64(10).Sub(NewUint64(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Cmp(NewUint64(6)) != 0 {
		t.Errorf("expected 6, got %s", v)
	}
}

func TestMin(t *testing.T) {
	a := NewUint64(5)
	b := NewUint64(9)
	if Min(a, b).Cmp(a) != 0 {
		t.Error("expected Min(5,9) == 5")
	}
	if Min(b, a).Cmp(a) != 0 {
		t.Error("expected Min(9,5) == 5")
	}
}

func TestCmp(t *testing.T) {
	if NewUint64(1).Cmp(NewUint64(2)) >= 0 {
		t.Error("expected 1 < 2")
	}
	if NewUint64(2).Cmp(NewUint64(2)) != 0 {
		t.Error("expected 2 == 2")
	}
	if NewUint64(3).Cmp(NewUint64(2)) <= 0 {
		t.Error("expected 3 > 2")
	}
}

func TestUint256JSONRoundTrip(t *testing.T) {
	v := NewUint64(42)
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"42"` {
		t.Errorf(`expected "42", got %s`, data)
	}

	var out Uint256
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Cmp(v) != 0 {
		t.Errorf("expected round-trip equality, got %s", out)
	}
}

func TestIsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Error("expected Zero.IsZero()")
	}
	if NewUint64(1).IsZero() {
		t.Error("expected non-zero value to report IsZero() == false")
	}
}
