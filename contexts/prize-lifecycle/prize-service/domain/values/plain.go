package values

import (
	"crypto/rand"
	"encoding/binary"
	"math/bits"
	"strconv"
	"strings"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"

	"golang.org/x/crypto/nacl/box"
)

const PlainSchemeName = "plain"

// Plain is the plaintext Value implementation.
type Plain uint64

func (p Plain) Add(other Value) (Value, error) {
	o, err := asPlain(other)
	if err != nil {
		return nil, err
	}
	sum, carry := bits.Add64(uint64(p), uint64(o), 0)
	if carry != 0 {
		return nil, domainerrors.New(domainerrors.ErrArithmeticOverflow, "op", "add", "left", uint64(p), "right", uint64(o))
	}
	return Plain(sum), nil
}

func (p Plain) Sub(other Value) (Value, error) {
	o, err := asPlain(other)
	if err != nil {
		return nil, err
	}
	if o > p {
		return nil, domainerrors.New(domainerrors.ErrArithmeticOverflow, "op", "sub", "left", uint64(p), "right", uint64(o))
	}
	return p - o, nil
}

func (p Plain) Mul(other Value) (Value, error) {
	o, err := asPlain(other)
	if err != nil {
		return nil, err
	}
	return p.Scale(uint64(o))
}

func (p Plain) Scale(weight uint64) (Value, error) {
	hi, lo := bits.Mul64(uint64(p), weight)
	if hi != 0 {
		return nil, domainerrors.New(domainerrors.ErrArithmeticOverflow, "op", "mul", "left", uint64(p), "right", weight)
	}
	return Plain(lo), nil
}

func (p Plain) MulDiv(num Value, den Value) (Value, error) {
	n, err := asPlain(num)
	if err != nil {
		return nil, err
	}
	d, err := asPlain(den)
	if err != nil {
		return nil, err
	}
	if d == 0 {
		return Plain(0), nil
	}
	hi, lo := bits.Mul64(uint64(p), uint64(n))
	if hi >= uint64(d) {
		return nil, domainerrors.New(domainerrors.ErrArithmeticOverflow, "op", "muldiv", "value", uint64(p), "num", uint64(n), "den", uint64(d))
	}
	quo, _ := bits.Div64(hi, lo, uint64(d))
	return Plain(quo), nil
}

func (p Plain) Compare(other Value) (int, error) {
	o, err := asPlain(other)
	if err != nil {
		return 0, err
	}
	switch {
	case p < o:
		return -1, nil
	case p > o:
		return 1, nil
	default:
		return 0, nil
	}
}

func (p Plain) IsZero() bool {
	return p == 0
}

// Seal encrypts the big-endian integer to the recipient's X25519 key with an
// anonymous NaCl box.
func (p Plain) Seal(recipient Recipient) (Sealed, error) {
	if strings.TrimSpace(recipient.Address) == "" || recipient.PublicKey == ([32]byte{}) {
		return Sealed{}, domainerrors.ErrInvalidPermit
	}
	var message [8]byte
	binary.BigEndian.PutUint64(message[:], uint64(p))
	ciphertext, err := box.SealAnonymous(nil, message[:], &recipient.PublicKey, rand.Reader)
	if err != nil {
		return Sealed{}, err
	}
	return Sealed{
		Recipient:  strings.TrimSpace(recipient.Address),
		Scheme:     PlainSchemeName,
		Ciphertext: ciphertext,
	}, nil
}

func (p Plain) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// Uint64 exposes the plaintext for adapters that need it.
func (p Plain) Uint64() uint64 {
	return uint64(p)
}

// UnsealPlain opens a value sealed by Plain.Seal.
func UnsealPlain(sealed Sealed, publicKey *[32]byte, privateKey *[32]byte) (Plain, error) {
	message, ok := box.OpenAnonymous(nil, sealed.Ciphertext, publicKey, privateKey)
	if !ok || len(message) != 8 {
		return 0, domainerrors.ErrInvalidPermit
	}
	return Plain(binary.BigEndian.Uint64(message)), nil
}

func asPlain(v Value) (Plain, error) {
	switch typed := v.(type) {
	case Plain:
		return typed, nil
	case nil:
		return 0, nil
	default:
		return 0, domainerrors.New(domainerrors.ErrSchemeMismatch, "expected", PlainSchemeName)
	}
}

// PlainScheme builds Plain values.
type PlainScheme struct{}

func (PlainScheme) Name() string {
	return PlainSchemeName
}

func (PlainScheme) Zero() Value {
	return Plain(0)
}

func (PlainScheme) FromUint64(v uint64) (Value, error) {
	return Plain(v), nil
}

func (PlainScheme) Encode(v Value) (string, error) {
	p, err := asPlain(v)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

func (PlainScheme) Decode(raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Plain(0), nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, domainerrors.New(domainerrors.ErrInvalidInput, "value", raw)
	}
	return Plain(parsed), nil
}
