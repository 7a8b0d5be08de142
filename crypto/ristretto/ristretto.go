// Package ristretto wraps the Ristretto255 group operations used by the
// confidential balance scheme. It fixes the two base points of the scheme
// and provides the scalar arithmetic helpers shared by the cipher, the
// Sigma proofs and the DLP solver.
//
// Two well-known elements exist: G, the Ristretto255 canonical generator,
// used as the value base, and H, obtained by hashing the encoding of G with
// SHA3-512 and folding the digest into the group. H is the randomness base
// and the base of every encryption key.
package ristretto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gtank/ristretto255"
)

// HashBasePointHex is the canonical encoding of H. It is part of the wire
// format: any implementation interoperating with this one derives the same
// point.
const HashBasePointHex = "8c9240b456a9e6dc65c377a1048d745f94a08cdb7f44cbcd7b46f34048871134"

// ErrInvalidScalar is returned when a scalar is zero or not a canonical
// 32-byte little-endian encoding below the group order.
var ErrInvalidScalar = errors.New("invalid scalar")

// ErrInvalidPoint is returned when bytes do not decode to a canonical
// Ristretto255 element.
var ErrInvalidPoint = errors.New("invalid group element")

var hashBasePoint = mustElementFromHex(HashBasePointHex)

// G returns the canonical Ristretto255 generator (the value base).
func G() *ristretto255.Element {
	return ristretto255.NewGeneratorElement()
}

// H returns the hash base point (the randomness and key base).
func H() *ristretto255.Element {
	return ristretto255.NewIdentityElement().Set(hashBasePoint)
}

// NewScalar returns a scalar set to zero.
func NewScalar() *ristretto255.Scalar {
	return ristretto255.NewScalar()
}

// NewElement returns the identity element.
func NewElement() *ristretto255.Element {
	return ristretto255.NewIdentityElement()
}

// RandomScalar samples a uniform non-zero scalar by rejection: 32 random
// bytes are drawn until their little-endian value is below the group order.
func RandomScalar() (*ristretto255.Scalar, error) {
	buf := make([]byte, 32)
	for {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to read random bytes: %w", err)
		}
		s, err := ristretto255.NewScalar().SetCanonicalBytes(buf)
		if err != nil {
			continue // >= group order, resample
		}
		if s.Equal(ristretto255.NewScalar()) == 1 {
			continue // zero, resample
		}
		return s, nil
	}
}

// RandomScalars samples k independent scalars.
func RandomScalars(k int) ([]*ristretto255.Scalar, error) {
	list := make([]*ristretto255.Scalar, k)
	for i := range list {
		s, err := RandomScalar()
		if err != nil {
			return nil, err
		}
		list[i] = s
	}
	return list, nil
}

// ScalarFromUint64 encodes v as a scalar.
func ScalarFromUint64(v uint64) *ristretto255.Scalar {
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	s, err := ristretto255.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		// a 64-bit value is always below the group order
		panic(fmt.Sprintf("uint64 scalar encoding rejected: %v", err))
	}
	return s
}

// ScalarFromBytes decodes a canonical 32-byte little-endian scalar.
func ScalarFromBytes(b []byte) (*ristretto255.Scalar, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidScalar, len(b))
	}
	s, err := ristretto255.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return s, nil
}

// ScalarFromWideBytes reduces 64 uniform bytes modulo the group order.
func ScalarFromWideBytes(b []byte) (*ristretto255.Scalar, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("%w: expected 64 bytes, got %d", ErrInvalidScalar, len(b))
	}
	s, err := ristretto255.NewScalar().SetUniformBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return s, nil
}

// InvertScalar returns the multiplicative inverse of s. Inverting the zero
// scalar is rejected.
func InvertScalar(s *ristretto255.Scalar) (*ristretto255.Scalar, error) {
	if s.Equal(ristretto255.NewScalar()) == 1 {
		return nil, fmt.Errorf("%w: cannot invert zero", ErrInvalidScalar)
	}
	return ristretto255.NewScalar().Invert(s), nil
}

// ChunkWeight returns the scalar 2^(i*bits), the weight of chunk i in the
// recombined balance.
func ChunkWeight(i int, bits uint) *ristretto255.Scalar {
	shift := uint(i) * bits
	var buf [32]byte
	buf[shift/8] = 1 << (shift % 8)
	s, err := ristretto255.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		// chunk weights never reach the group order: shift < 253
		panic(fmt.Sprintf("chunk weight encoding rejected: %v", err))
	}
	return s
}

// ElementFromBytes decodes a canonical 32-byte Ristretto255 element.
func ElementFromBytes(b []byte) (*ristretto255.Element, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidPoint, len(b))
	}
	e, err := ristretto255.NewIdentityElement().SetCanonicalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return e, nil
}

func mustElementFromHex(s string) *ristretto255.Element {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	e, err := ristretto255.NewIdentityElement().SetCanonicalBytes(b)
	if err != nil {
		panic(err)
	}
	return e
}
