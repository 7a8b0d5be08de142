package rangeproof

import (
	"bytes"
	"fmt"

	"github.com/gtank/ristretto255"
)

// StructuralProver is a stand-in oracle for tests and development builds
// without a Bulletproofs binding. Its "proof" is the list of Pedersen
// commitments recomputed from the witnesses, so verification checks that
// the commitments handed to the verifier are exactly the ones the prover
// committed to and that every value was in range at proving time. It
// provides NO zero knowledge and NO soundness against a malicious prover;
// production deployments must register a real Bulletproofs backend.
type StructuralProver struct{}

// ProveBatch implements Prover.
func (StructuralProver) ProveBatch(values []uint64, randomness []*ristretto255.Scalar, valBase, randBase *ristretto255.Element, numBits uint) ([]byte, error) {
	if len(values) != len(randomness) {
		return nil, fmt.Errorf("%d values with %d randomness scalars", len(values), len(randomness))
	}
	var out bytes.Buffer
	out.WriteByte(byte(numBits))
	for i, v := range values {
		if numBits < 64 && v >= uint64(1)<<numBits {
			return nil, fmt.Errorf("value %d out of range [0, 2^%d)", v, numBits)
		}
		c := scalarMulUint64(valBase, v)
		c.Add(c, ristretto255.NewIdentityElement().ScalarMult(randomness[i], randBase))
		out.Write(c.Bytes())
	}
	return out.Bytes(), nil
}

// VerifyBatch implements Prover.
func (StructuralProver) VerifyBatch(proof []byte, commitments []*ristretto255.Element, valBase, randBase *ristretto255.Element, numBits uint) error {
	if len(proof) != 1+32*len(commitments) {
		return fmt.Errorf("proof length %d does not match %d commitments", len(proof), len(commitments))
	}
	if proof[0] != byte(numBits) {
		return fmt.Errorf("proof built for %d bits, verifying %d", proof[0], numBits)
	}
	for i, c := range commitments {
		if !bytes.Equal(proof[1+32*i:1+32*(i+1)], c.Bytes()) {
			return fmt.Errorf("commitment %d does not match", i)
		}
	}
	return nil
}

func scalarMulUint64(base *ristretto255.Element, v uint64) *ristretto255.Element {
	var buf [32]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	s, err := ristretto255.NewScalar().SetCanonicalBytes(buf[:])
	if err != nil {
		panic(err)
	}
	return ristretto255.NewIdentityElement().ScalarMult(s, base)
}
