// Package values models the opaque integers a prize computes with. Scores,
// pools and rewards only flow through the Value interface so the lifecycle and
// allocation code never depend on whether the plaintext is visible.
package values

// Value is an immutable non-negative integer. Implementations may keep the
// plaintext hidden; every operation returns a new Value.
type Value interface {
	Add(other Value) (Value, error)
	Sub(other Value) (Value, error)
	Mul(other Value) (Value, error)
	// Scale multiplies by a small public weight.
	Scale(weight uint64) (Value, error)
	// MulDiv returns v*num/den rounded down, or zero when den is zero.
	MulDiv(num Value, den Value) (Value, error)
	Compare(other Value) (int, error)
	IsZero() bool
	// Seal discloses the value to a single recipient.
	Seal(recipient Recipient) (Sealed, error)
	String() string
}

// Recipient is the holder of a sealing permit.
type Recipient struct {
	Address   string
	PublicKey [32]byte
}

// Sealed is a value readable only by its recipient.
type Sealed struct {
	Recipient  string `json:"recipient"`
	Scheme     string `json:"scheme"`
	Ciphertext []byte `json:"ciphertext"`
}

// Scheme constructs and encodes values of one representation.
type Scheme interface {
	Name() string
	Zero() Value
	FromUint64(v uint64) (Value, error)
	Encode(v Value) (string, error)
	Decode(raw string) (Value, error)
}

// Sum adds items left to right starting from scheme zero.
func Sum(scheme Scheme, items ...Value) (Value, error) {
	total := scheme.Zero()
	for _, item := range items {
		next, err := total.Add(item)
		if err != nil {
			return nil, err
		}
		total = next
	}
	return total, nil
}

// Equal reports whether a and b hold the same integer.
func Equal(a Value, b Value) (bool, error) {
	cmp, err := a.Compare(b)
	if err != nil {
		return false, err
	}
	return cmp == 0, nil
}
