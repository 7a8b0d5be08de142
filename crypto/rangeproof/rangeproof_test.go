package rangeproof

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
)

func commitments(values []uint64, randomness []*ristretto255.Scalar) []*ristretto255.Element {
	out := make([]*ristretto255.Element, len(values))
	for i, v := range values {
		c := ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(v))
		c.Add(c, ristretto.NewElement().ScalarMult(randomness[i], ristretto.H()))
		out[i] = c
	}
	return out
}

func TestStructuralProver(t *testing.T) {
	c := qt.New(t)
	Register(StructuralProver{})

	values := []uint64{0, 1, 65535, 40000}
	randomness, err := ristretto.RandomScalars(len(values))
	c.Assert(err, qt.IsNil)

	proof, err := ProveBatch(values, randomness, ristretto.G(), ristretto.H(), 16)
	c.Assert(err, qt.IsNil)

	cms := commitments(values, randomness)
	c.Assert(VerifyBatch(proof, cms, ristretto.G(), ristretto.H(), 16), qt.IsNil)

	// a substituted commitment is rejected
	bad := append([]*ristretto255.Element{}, cms...)
	bad[1] = ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(2))
	err = VerifyBatch(proof, bad, ristretto.G(), ristretto.H(), 16)
	c.Assert(err, qt.ErrorIs, ErrRangeProofFailed)

	// a different bit width is rejected
	err = VerifyBatch(proof, cms, ristretto.G(), ristretto.H(), 32)
	c.Assert(err, qt.ErrorIs, ErrRangeProofFailed)

	// out-of-range values are refused at proving time
	_, err = ProveBatch([]uint64{1 << 16}, randomness[:1], ristretto.G(), ristretto.H(), 16)
	c.Assert(err, qt.Not(qt.IsNil))

	// value and randomness lengths must match
	_, err = ProveBatch(values, randomness[:2], ristretto.G(), ristretto.H(), 16)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestNoProver(t *testing.T) {
	c := qt.New(t)
	Register(nil)
	defer Register(StructuralProver{})

	_, err := ProveBatch([]uint64{1}, nil, ristretto.G(), ristretto.H(), 16)
	c.Assert(err, qt.ErrorIs, ErrNoProver)
	err = VerifyBatch(nil, nil, ristretto.G(), ristretto.H(), 16)
	c.Assert(err, qt.ErrorIs, ErrNoProver)
}
