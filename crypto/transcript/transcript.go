// Package transcript derives Fiat-Shamir challenges for the Sigma
// protocols. A transcript is an ordered byte concatenation opened with a
// protocol domain-separation tag; the challenge is the SHA-512 digest of
// the concatenation reduced modulo the group order. The append order per
// protocol is part of the wire format.
package transcript

import (
	"crypto/sha512"
	"hash"

	"github.com/gtank/ristretto255"
)

// Domain-separation tags of the four Sigma protocols. The retired
// AptosVeiledCoin tags produce incompatible challenges and are not
// supported.
const (
	WithdrawalDST    = "AptosConfidentialAsset/WithdrawalProofFiatShamir"
	TransferDST      = "AptosConfidentialAsset/TransferProofFiatShamir"
	RotationDST      = "AptosConfidentialAsset/RotationProofFiatShamir"
	NormalizationDST = "AptosConfidentialAsset/NormalizationProofFiatShamir"
)

// Transcript accumulates the ordered protocol view. It must be built on a
// single goroutine; the order of appends defines the challenge.
type Transcript struct {
	h hash.Hash
}

// New opens a transcript with the protocol's domain-separation tag.
func New(dst string) *Transcript {
	t := &Transcript{h: sha512.New()}
	t.h.Write([]byte(dst))
	return t
}

// AppendBytes mixes raw bytes into the transcript.
func (t *Transcript) AppendBytes(b []byte) *Transcript {
	t.h.Write(b)
	return t
}

// AppendElement mixes the canonical 32-byte encoding of a group element.
func (t *Transcript) AppendElement(e *ristretto255.Element) *Transcript {
	t.h.Write(e.Bytes())
	return t
}

// AppendElements mixes a sequence of group elements in order.
func (t *Transcript) AppendElements(es ...*ristretto255.Element) *Transcript {
	for _, e := range es {
		t.h.Write(e.Bytes())
	}
	return t
}

// AppendScalar mixes the 32-byte little-endian encoding of a scalar.
func (t *Transcript) AppendScalar(s *ristretto255.Scalar) *Transcript {
	t.h.Write(s.Bytes())
	return t
}

// Challenge closes the transcript and returns the challenge scalar, the
// SHA-512 digest of everything appended reduced modulo the group order.
func (t *Transcript) Challenge() *ristretto255.Scalar {
	digest := t.h.Sum(nil)
	s, err := ristretto255.NewScalar().SetUniformBytes(digest)
	if err != nil {
		// SetUniformBytes only rejects inputs that are not 64 bytes
		panic(err)
	}
	return s
}
