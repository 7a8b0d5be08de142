// Package sigmaproofs implements the four Sigma protocols of the
// confidential balance scheme: withdrawal, transfer, key rotation and
// normalization. Every protocol follows the same three moves. The prover
// samples one masking scalar per secret and publishes commitments that are
// linear combinations of the bases, the keys and the ciphertext components;
// the challenge is derived from the full protocol view with a Fiat-Shamir
// transcript; the responses are alpha = mask - challenge*secret. The
// verifier reconstructs every commitment from the responses and the public
// statement and compares.
//
// The chunk-sum masks are not sampled independently: the mask of a value
// secret is the weighted sum of the masks of its chunk secrets, so the
// corresponding responses satisfy the same weighted relation. Verifiers
// check that relation, which is what binds a recombined amount to the
// chunks of its ciphertext vector.
package sigmaproofs

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/transcript"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types/params"
)

// ErrBadProofLength is returned when serialized proof bytes do not have the
// exact size the layout dictates.
var ErrBadProofLength = errors.New("bad sigma proof length")

// ErrSigmaVerifyFailed is returned when a reconstructed commitment or a
// response relation does not match the received proof.
var ErrSigmaVerifyFailed = errors.New("sigma proof verification failed")

// weightedSums returns the chunk-weighted sums of the ciphertext
// components: sum(2^(i*bits) * C[i]) and sum(2^(i*bits) * D[i]). A balance
// ciphertext vector weighted this way is a single ciphertext of the full
// amount.
func weightedSums(cts []*twistedelgamal.Ciphertext, bits uint) (*ristretto255.Element, *ristretto255.Element) {
	cSum := ristretto.NewElement()
	dSum := ristretto.NewElement()
	for i, ct := range cts {
		w := ristretto.ChunkWeight(i, bits)
		cSum.Add(cSum, ristretto.NewElement().ScalarMult(w, ct.C))
		dSum.Add(dSum, ristretto.NewElement().ScalarMult(w, ct.D))
	}
	return cSum, dSum
}

// weightedScalarSum returns sum(2^(i*bits) * ss[i]).
func weightedScalarSum(ss []*ristretto255.Scalar, bits uint) *ristretto255.Scalar {
	total := ristretto.NewScalar()
	for i, s := range ss {
		total.Add(total, ristretto255.NewScalar().Multiply(ristretto.ChunkWeight(i, bits), s))
	}
	return total
}

// respond computes alpha = mask - challenge*secret. The group scalar
// arithmetic is modular, so the result is correct even when the product
// exceeds the mask.
func respond(mask, challenge, secret *ristretto255.Scalar) *ristretto255.Scalar {
	return ristretto255.NewScalar().Subtract(mask, ristretto255.NewScalar().Multiply(challenge, secret))
}

// appendCiphertexts mixes a ciphertext vector into a transcript as ordered
// (C, D) pairs.
func appendCiphertexts(tr *transcript.Transcript, cts []*twistedelgamal.Ciphertext) {
	for _, ct := range cts {
		tr.AppendElements(ct.C, ct.D)
	}
}

// proofWriter serializes proof components in wire order, every scalar and
// element as 32 bytes.
type proofWriter struct {
	buf bytes.Buffer
}

func (w *proofWriter) scalars(ss ...*ristretto255.Scalar) {
	for _, s := range ss {
		w.buf.Write(s.Bytes())
	}
}

func (w *proofWriter) elements(es ...*ristretto255.Element) {
	for _, e := range es {
		w.buf.Write(e.Bytes())
	}
}

func (w *proofWriter) bytes() []byte {
	return w.buf.Bytes()
}

// proofReader deserializes fixed-size proof components, rejecting
// non-canonical encodings.
type proofReader struct {
	data []byte
	off  int
	err  error
}

func (r *proofReader) scalar() *ristretto255.Scalar {
	if r.err != nil {
		return nil
	}
	s, err := ristretto.ScalarFromBytes(r.data[r.off : r.off+params.ProofChunkSize])
	if err != nil {
		r.err = fmt.Errorf("offset %d: %w", r.off, err)
		return nil
	}
	r.off += params.ProofChunkSize
	return s
}

func (r *proofReader) scalarList(n int) []*ristretto255.Scalar {
	list := make([]*ristretto255.Scalar, n)
	for i := range list {
		list[i] = r.scalar()
	}
	return list
}

func (r *proofReader) element() *ristretto255.Element {
	if r.err != nil {
		return nil
	}
	e, err := ristretto.ElementFromBytes(r.data[r.off : r.off+params.ProofChunkSize])
	if err != nil {
		r.err = fmt.Errorf("offset %d: %w", r.off, err)
		return nil
	}
	r.off += params.ProofChunkSize
	return e
}

func (r *proofReader) elementList(n int) []*ristretto255.Element {
	list := make([]*ristretto255.Element, n)
	for i := range list {
		list[i] = r.element()
	}
	return list
}
