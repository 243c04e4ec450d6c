// Package address validates user-supplied Solana addresses.
package address

import (
	"errors"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned when input does not decode to a 32-byte public key.
var ErrInvalidAddress = errors.New("invalid address")

// PublicKeyLength is the byte length of a Solana public key.
const PublicKeyLength = 32

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Address is a validated Solana account address.
type Address struct {
	text  string
	bytes [PublicKeyLength]byte
}

// LooksLikeMint reports whether s is plausibly a base58 mint address.
// It is a cheap syntactic pre-filter: trimmed length in [32,44] and
// base58 alphabet only. Parse remains the authoritative check.
func LooksLikeMint(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(base58Alphabet, c) {
			return false
		}
	}
	return true
}

// Parse decodes s as a base58 Solana address.
// It returns ErrInvalidAddress if s is not base58 or does not decode
// to exactly 32 bytes.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	decoded, err := base58.Decode(s)
	if err != nil {
		return Address{}, ErrInvalidAddress
	}
	if len(decoded) != PublicKeyLength {
		return Address{}, ErrInvalidAddress
	}

	var a Address
	a.text = s
	copy(a.bytes[:], decoded)
	return a, nil
}

// String returns the base58 form of the address.
func (a Address) String() string {
	return a.text
}

// Bytes returns the raw 32-byte public key.
func (a Address) Bytes() []byte {
	b := make([]byte, PublicKeyLength)
	copy(b, a.bytes[:])
	return b
}

// OnCurve reports whether the address is a valid ed25519 curve point.
// Keypair-backed accounts (wallets) are on-curve; program-derived
// addresses are not.
func (a Address) OnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(a.bytes[:])
	return err == nil
}
