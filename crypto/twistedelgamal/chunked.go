package twistedelgamal

import (
	"fmt"

	"github.com/gtank/ristretto255"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/types/params"
)

// ChunkedAmount is a balance or transfer amount split into fixed-width
// chunks, so that each chunk stays small enough for practical range proving
// and discrete-log recovery. The invariant amount = sum(chunks[i] *
// 2^(i*bits)) holds for every instance built by this package.
type ChunkedAmount struct {
	Amount      *uint256.Int
	Values      []uint64
	Chunks      []*ristretto255.Scalar
	Ciphertexts []*Ciphertext
	Layout      params.Layout
}

// SplitBalance splits a 128-bit balance into the layout's full chunk count.
func SplitBalance(amount *uint256.Int, layout params.Layout) (*ChunkedAmount, error) {
	return split(amount, layout.Chunks, layout)
}

// SplitTransferAmount splits a 64-bit transfer amount into half the chunk
// count.
func SplitTransferAmount(amount uint64, layout params.Layout) (*ChunkedAmount, error) {
	return split(uint256.NewInt(amount), layout.TransferChunks(), layout)
}

func split(amount *uint256.Int, n int, layout params.Layout) (*ChunkedAmount, error) {
	bits := layout.ChunkBits
	if amount.BitLen() > n*int(bits) {
		return nil, fmt.Errorf("%w: %s needs more than %d bits", ErrValueTooLarge, amount, n*int(bits))
	}
	mask := new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), bits), 1)
	ca := &ChunkedAmount{
		Amount: new(uint256.Int).Set(amount),
		Values: make([]uint64, n),
		Chunks: make([]*ristretto255.Scalar, n),
		Layout: layout,
	}
	for i := 0; i < n; i++ {
		chunk := new(uint256.Int).Rsh(amount, uint(i)*bits)
		chunk.And(chunk, mask)
		ca.Values[i] = chunk.Uint64()
		ca.Chunks[i] = ristretto.ScalarFromUint64(ca.Values[i])
	}
	return ca, nil
}

// JoinChunkValues recombines chunk values into the represented amount.
// Values above 2^bits are accepted: an unnormalized balance recombines to
// its true total.
func JoinChunkValues(values []uint64, bits uint) *uint256.Int {
	total := new(uint256.Int)
	for i, v := range values {
		term := new(uint256.Int).Lsh(uint256.NewInt(v), uint(i)*bits)
		total.Add(total, term)
	}
	return total
}

// AmountScalar encodes a 128-bit amount as a scalar.
func AmountScalar(amount *uint256.Int) *ristretto255.Scalar {
	be := amount.Bytes32()
	var le [32]byte
	for i := range be {
		le[i] = be[31-i]
	}
	s, err := ristretto255.NewScalar().SetCanonicalBytes(le[:])
	if err != nil {
		// 128-bit values are far below the group order
		panic(fmt.Sprintf("amount scalar encoding rejected: %v", err))
	}
	return s
}

// Encrypt encrypts every chunk under ek with the given per-chunk
// randomness, storing the resulting ciphertext vector.
func (ca *ChunkedAmount) Encrypt(ek *EncryptionKey, randomness []*ristretto255.Scalar) error {
	if len(randomness) != len(ca.Chunks) {
		return fmt.Errorf("%w: %d randomness scalars for %d chunks", ErrInvariant, len(randomness), len(ca.Chunks))
	}
	ca.Ciphertexts = make([]*Ciphertext, len(ca.Chunks))
	for i, chunk := range ca.Chunks {
		ca.Ciphertexts[i] = EncryptWithRandomness(chunk, ek, randomness[i])
	}
	return nil
}

// EncryptFor encrypts every chunk under another key reusing the same
// randomness, returning the vector instead of storing it. Transfers use it
// to produce the recipient and auditor copies of the amount ciphertexts.
func (ca *ChunkedAmount) EncryptFor(ek *EncryptionKey, randomness []*ristretto255.Scalar) ([]*Ciphertext, error) {
	if len(randomness) != len(ca.Chunks) {
		return nil, fmt.Errorf("%w: %d randomness scalars for %d chunks", ErrInvariant, len(randomness), len(ca.Chunks))
	}
	cts := make([]*Ciphertext, len(ca.Chunks))
	for i, chunk := range ca.Chunks {
		cts[i] = EncryptWithRandomness(chunk, ek, randomness[i])
	}
	return cts, nil
}

// CheckRecombination verifies the chunk invariant against the stored
// amount.
func (ca *ChunkedAmount) CheckRecombination() error {
	if !JoinChunkValues(ca.Values, ca.Layout.ChunkBits).Eq(ca.Amount) {
		return fmt.Errorf("%w: chunks do not recombine to %s", ErrInvariant, ca.Amount)
	}
	return nil
}

// DecryptChunkValues decrypts a ciphertext vector chunk by chunk. Chunks
// are independent, so the kangaroo searches run concurrently.
func DecryptChunkValues(cts []*Ciphertext, dk *DecryptionKey) ([]uint64, error) {
	values := make([]uint64, len(cts))
	var g errgroup.Group
	for i, ct := range cts {
		g.Go(func() error {
			v, err := ct.Decrypt(dk)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// DecryptBalance decrypts and recombines a full balance ciphertext vector.
func DecryptBalance(cts []*Ciphertext, dk *DecryptionKey, layout params.Layout) (*uint256.Int, error) {
	values, err := DecryptChunkValues(cts, dk)
	if err != nil {
		return nil, err
	}
	return JoinChunkValues(values, layout.ChunkBits), nil
}
