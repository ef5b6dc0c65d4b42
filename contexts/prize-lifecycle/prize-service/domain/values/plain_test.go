package values

import (
	"crypto/rand"
	"errors"
	"math"
	"testing"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"

	"golang.org/x/crypto/nacl/box"
)

func TestPlainArithmetic(t *testing.T) {
	sum, err := Plain(7).Add(Plain(5))
	if err != nil || sum != Plain(12) {
		t.Fatalf("add failed: %v %v", sum, err)
	}
	diff, err := Plain(7).Sub(Plain(5))
	if err != nil || diff != Plain(2) {
		t.Fatalf("sub failed: %v %v", diff, err)
	}
	scaled, err := Plain(8100).Scale(3)
	if err != nil || scaled != Plain(24300) {
		t.Fatalf("scale failed: %v %v", scaled, err)
	}
	share, err := Plain(1_000_000).MulDiv(Plain(8100), Plain(16100))
	if err != nil || share != Plain(503105) {
		t.Fatalf("muldiv failed: %v %v", share, err)
	}
	zero, err := Plain(10).MulDiv(Plain(3), Plain(0))
	if err != nil || !zero.IsZero() {
		t.Fatalf("muldiv by zero should be zero, got %v %v", zero, err)
	}
}

func TestPlainMulDivUsesWideIntermediate(t *testing.T) {
	got, err := Plain(math.MaxUint64).MulDiv(Plain(3), Plain(4))
	if err != nil {
		t.Fatalf("muldiv failed: %v", err)
	}
	want := Plain(math.MaxUint64 / 4 * 3)
	if cmp, _ := got.Compare(want); cmp < 0 {
		t.Fatalf("expected at least %v, got %v", want, got)
	}
}

func TestPlainOverflowIsReported(t *testing.T) {
	cases := map[string]func() (Value, error){
		"add":    func() (Value, error) { return Plain(math.MaxUint64).Add(Plain(1)) },
		"sub":    func() (Value, error) { return Plain(1).Sub(Plain(2)) },
		"scale":  func() (Value, error) { return Plain(math.MaxUint64).Scale(2) },
		"muldiv": func() (Value, error) { return Plain(math.MaxUint64).MulDiv(Plain(4), Plain(2)) },
	}
	for name, run := range cases {
		if _, err := run(); !errors.Is(err, domainerrors.ErrArithmeticOverflow) {
			t.Fatalf("%s: expected overflow, got %v", name, err)
		}
	}
}

func TestSchemeDecode(t *testing.T) {
	scheme := PlainScheme{}
	value, err := scheme.Decode(" 42 ")
	if err != nil || value != Plain(42) {
		t.Fatalf("decode failed: %v %v", value, err)
	}
	empty, err := scheme.Decode("")
	if err != nil || !empty.IsZero() {
		t.Fatalf("empty decode should be zero: %v %v", empty, err)
	}
	if _, err := scheme.Decode("-1"); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	encoded, err := scheme.Encode(Plain(9))
	if err != nil || encoded != "9" {
		t.Fatalf("encode failed: %q %v", encoded, err)
	}
}

func TestSealOpensOnlyForRecipient(t *testing.T) {
	publicKey, privateKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	sealed, err := Plain(503105).Seal(Recipient{Address: "0xa", PublicKey: *publicKey})
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if sealed.Recipient != "0xa" || sealed.Scheme != PlainSchemeName {
		t.Fatalf("unexpected sealed header: %+v", sealed)
	}
	opened, err := UnsealPlain(sealed, publicKey, privateKey)
	if err != nil || opened != Plain(503105) {
		t.Fatalf("unseal failed: %v %v", opened, err)
	}

	otherPublic, otherPrivate, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}
	if _, err := UnsealPlain(sealed, otherPublic, otherPrivate); !errors.Is(err, domainerrors.ErrInvalidPermit) {
		t.Fatalf("expected foreign key to fail, got %v", err)
	}
	if _, err := Plain(1).Seal(Recipient{Address: "0xa"}); !errors.Is(err, domainerrors.ErrInvalidPermit) {
		t.Fatalf("expected missing key to fail, got %v", err)
	}
}

func TestSumAndEqual(t *testing.T) {
	total, err := Sum(PlainScheme{}, Plain(1), Plain(2), Plain(3))
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	equal, err := Equal(total, Plain(6))
	if err != nil || !equal {
		t.Fatalf("expected 6, got %v", total)
	}
}
