// Package twistedelgamal implements the twisted-ElGamal cipher over
// Ristretto255 used to encrypt confidential balances. A decryption key is a
// scalar s, its encryption key is P = s^-1 * H, and a ciphertext for amount
// m with randomness r is the pair (C, D) = (m*G + r*H, r*P). Decryption
// recovers the point m*G; the scalar m itself is recovered with the
// kangaroo DLP solver.
package twistedelgamal

import (
	"encoding/binary"
	"fmt"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/sha3"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
)

// seedDerivationTag domain-separates key derivation from any other SHA3-512
// use of the same seed material.
const seedDerivationTag = "ConfidentialAsset/KeyDerivation"

// DecryptionKey is the secret scalar of a twisted-ElGamal key pair. It is
// held only by the balance owner and never leaves a local secure context.
type DecryptionKey struct {
	s *ristretto255.Scalar
}

// EncryptionKey is the public half of a key pair: P = s^-1 * H.
type EncryptionKey struct {
	p *ristretto255.Element
}

// NewDecryptionKey generates a fresh decryption key from the system CSPRNG.
func NewDecryptionKey() (*DecryptionKey, error) {
	s, err := ristretto.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("failed to generate decryption key: %w", err)
	}
	return &DecryptionKey{s: s}, nil
}

// DecryptionKeyFromBytes validates and decodes a 32-byte scalar. The zero
// scalar is rejected.
func DecryptionKeyFromBytes(b []byte) (*DecryptionKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidKey, len(b))
	}
	s, err := ristretto.ScalarFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if s.Equal(ristretto.NewScalar()) == 1 {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidKey)
	}
	return &DecryptionKey{s: s}, nil
}

// DecryptionKeyFromSeed derives a hardened key from a seed and an account
// index, in the style of BIP-44 paths. The derivation is a convenience for
// wallet integration and adds no security property: the key is the SHA3-512
// of the tagged seed material, wide-reduced to a scalar.
func DecryptionKeyFromSeed(seed []byte, index uint32) (*DecryptionKey, error) {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)
	for counter := uint8(0); ; counter++ {
		h := sha3.New512()
		h.Write([]byte(seedDerivationTag))
		h.Write(seed)
		h.Write(idx[:])
		h.Write([]byte{counter})
		s, err := ristretto.ScalarFromWideBytes(h.Sum(nil))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		if s.Equal(ristretto.NewScalar()) == 1 {
			continue // all but impossible, but the zero key is forbidden
		}
		return &DecryptionKey{s: s}, nil
	}
}

// Bytes returns the 32-byte little-endian scalar encoding.
func (dk *DecryptionKey) Bytes() []byte {
	return dk.s.Bytes()
}

// Scalar returns a copy of the secret scalar.
func (dk *DecryptionKey) Scalar() *ristretto255.Scalar {
	return ristretto255.NewScalar().Set(dk.s)
}

// EncryptionKey computes the public key P = s^-1 * H.
func (dk *DecryptionKey) EncryptionKey() (*EncryptionKey, error) {
	inv, err := ristretto.InvertScalar(dk.s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	p := ristretto.NewElement().ScalarMult(inv, ristretto.H())
	return &EncryptionKey{p: p}, nil
}

// EncryptionKeyFromBytes decodes a canonical 32-byte Ristretto255 point.
func EncryptionKeyFromBytes(b []byte) (*EncryptionKey, error) {
	p, err := ristretto.ElementFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &EncryptionKey{p: p}, nil
}

// EncryptionKeyFromPoint wraps an already-decoded group element.
func EncryptionKeyFromPoint(p *ristretto255.Element) *EncryptionKey {
	return &EncryptionKey{p: ristretto.NewElement().Set(p)}
}

// Bytes returns the canonical 32-byte point encoding.
func (ek *EncryptionKey) Bytes() []byte {
	return ek.p.Bytes()
}

// Point returns a copy of the public key element.
func (ek *EncryptionKey) Point() *ristretto255.Element {
	return ristretto.NewElement().Set(ek.p)
}

// Equal reports whether two encryption keys are the same point.
func (ek *EncryptionKey) Equal(other *EncryptionKey) bool {
	return ek.p.Equal(other.p) == 1
}
