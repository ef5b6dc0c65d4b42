package router

import (
	"encoding/hex"
	"strings"

	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"

	"golang.org/x/crypto/sha3"
)

// Selector identifies an operation by the first four bytes of the
// Keccak-256 hash of its signature, e.g. "advance()".
type Selector [4]byte

func SelectorOf(signature string) Selector {
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write([]byte(strings.TrimSpace(signature)))
	var selector Selector
	copy(selector[:], hasher.Sum(nil))
	return selector
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

func ParseSelector(raw string) (Selector, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(strings.ToLower(raw)), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != 4 {
		return Selector{}, domainerrors.New(domainerrors.ErrUnknownSelector, "selector", raw)
	}
	var selector Selector
	copy(selector[:], decoded)
	return selector, nil
}
