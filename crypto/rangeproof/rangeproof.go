// Package rangeproof is the adapter between the confidential balance
// protocol and an external Bulletproofs implementation. The protocol only
// needs two operations, batched proof generation and batched verification,
// and treats the proof bytes as opaque. The backing implementation is
// registered once at process start, mirroring the kangaroo table registry.
package rangeproof

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gtank/ristretto255"
)

// ErrRangeProofFailed is returned when the oracle rejects a proof.
var ErrRangeProofFailed = errors.New("range proof verification failed")

// ErrNoProver is returned when no implementation has been registered.
var ErrNoProver = errors.New("no range proof implementation registered")

// Prover generates and verifies batched range proofs. Every value is
// committed as value*valBase + randomness*randBase; the protocol always
// passes the scheme's G as valBase and H as randBase. Implementations wrap
// an external Bulletproofs binding and may block on FFI or WASM calls, but
// must not retain the slices they are handed.
type Prover interface {
	// ProveBatch proves that every value lies in [0, 2^numBits).
	ProveBatch(values []uint64, randomness []*ristretto255.Scalar, valBase, randBase *ristretto255.Element, numBits uint) ([]byte, error)
	// VerifyBatch checks a batched proof against the value commitments.
	VerifyBatch(proof []byte, commitments []*ristretto255.Element, valBase, randBase *ristretto255.Element, numBits uint) error
}

var oracle = struct {
	mu     sync.RWMutex
	prover Prover
}{}

// Register installs the process-wide range proof implementation. Like the
// kangaroo registry it must happen before the first proof and is not safe
// to call concurrently with proving.
func Register(p Prover) {
	oracle.mu.Lock()
	oracle.prover = p
	oracle.mu.Unlock()
}

func get() (Prover, error) {
	oracle.mu.RLock()
	p := oracle.prover
	oracle.mu.RUnlock()
	if p == nil {
		return nil, ErrNoProver
	}
	return p, nil
}

// ProveBatch generates a batched range proof with the registered
// implementation.
func ProveBatch(values []uint64, randomness []*ristretto255.Scalar, valBase, randBase *ristretto255.Element, numBits uint) ([]byte, error) {
	p, err := get()
	if err != nil {
		return nil, err
	}
	if len(values) != len(randomness) {
		return nil, fmt.Errorf("%d values with %d randomness scalars", len(values), len(randomness))
	}
	return p.ProveBatch(values, randomness, valBase, randBase, numBits)
}

// VerifyBatch verifies a batched range proof with the registered
// implementation. Any oracle rejection surfaces as ErrRangeProofFailed.
func VerifyBatch(proof []byte, commitments []*ristretto255.Element, valBase, randBase *ristretto255.Element, numBits uint) error {
	p, err := get()
	if err != nil {
		return err
	}
	if err := p.VerifyBatch(proof, commitments, valBase, randBase, numBits); err != nil {
		return fmt.Errorf("%w: %v", ErrRangeProofFailed, err)
	}
	return nil
}
