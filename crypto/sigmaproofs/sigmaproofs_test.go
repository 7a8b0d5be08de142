package sigmaproofs

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gtank/ristretto255"
	"github.com/holiman/uint256"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types/params"
)

var layout = params.DefaultLayout

func newKeyPair(c *qt.C) (*twistedelgamal.DecryptionKey, *twistedelgamal.EncryptionKey) {
	dk, err := twistedelgamal.NewDecryptionKey()
	c.Assert(err, qt.IsNil)
	ek, err := dk.EncryptionKey()
	c.Assert(err, qt.IsNil)
	return dk, ek
}

// encryptBalance splits and encrypts an amount, returning the chunked
// amount with its ciphertexts and the randomness used.
func encryptBalance(c *qt.C, ek *twistedelgamal.EncryptionKey, amount *uint256.Int) (*twistedelgamal.ChunkedAmount, []*ristretto255.Scalar) {
	ca, err := twistedelgamal.SplitBalance(amount, layout)
	c.Assert(err, qt.IsNil)
	randomness, err := ristretto.RandomScalars(layout.Chunks)
	c.Assert(err, qt.IsNil)
	c.Assert(ca.Encrypt(ek, randomness), qt.IsNil)
	return ca, randomness
}

// encryptRawChunks encrypts explicit per-chunk values, which may overflow
// the chunk width, the way an unnormalized balance does.
func encryptRawChunks(c *qt.C, ek *twistedelgamal.EncryptionKey, values []uint64) []*twistedelgamal.Ciphertext {
	cts := make([]*twistedelgamal.Ciphertext, len(values))
	for i, v := range values {
		r, err := ristretto.RandomScalar()
		c.Assert(err, qt.IsNil)
		cts[i] = twistedelgamal.EncryptWithRandomness(ristretto.ScalarFromUint64(v), ek, r)
	}
	return cts
}

func aliceBalance() *uint256.Int {
	// 2^64 + 100, a 65-bit balance
	return new(uint256.Int).AddUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 64), 100)
}

func TestWithdrawCompleteness(t *testing.T) {
	c := qt.New(t)
	dk, ek := newKeyPair(c)

	balance := aliceBalance()
	amount := uint256.NewInt(1 << 16)
	current, _ := encryptBalance(c, ek, balance)
	newAmount, newRandomness := encryptBalance(c, ek, new(uint256.Int).Sub(balance, amount))

	stmt := &WithdrawStatement{
		Layout:         layout,
		EK:             ek,
		CurrentBalance: current.Ciphertexts,
		NewBalance:     newAmount.Ciphertexts,
		Amount:         amount,
	}
	proof, err := ProveWithdraw(stmt, &WithdrawWitness{
		DK:         dk,
		NewAmount:  newAmount,
		Randomness: newRandomness,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyWithdraw(stmt, proof), qt.IsNil)

	// a different public amount must fail
	badStmt := *stmt
	badStmt.Amount = uint256.NewInt(1<<16 + 1)
	c.Assert(VerifyWithdraw(&badStmt, proof), qt.ErrorIs, ErrSigmaVerifyFailed)

	// a substituted public key must fail
	_, otherEK := newKeyPair(c)
	badStmt = *stmt
	badStmt.EK = otherEK
	c.Assert(VerifyWithdraw(&badStmt, proof), qt.ErrorIs, ErrSigmaVerifyFailed)

	// a tampered ciphertext must fail
	badStmt = *stmt
	tampered := make([]*twistedelgamal.Ciphertext, len(stmt.NewBalance))
	copy(tampered, stmt.NewBalance)
	tampered[0] = twistedelgamal.NewCiphertext().Add(tampered[0], tampered[1])
	badStmt.NewBalance = tampered
	c.Assert(VerifyWithdraw(&badStmt, proof), qt.ErrorIs, ErrSigmaVerifyFailed)
}

func TestWithdrawSoundnessWrongAmount(t *testing.T) {
	c := qt.New(t)
	dk, ek := newKeyPair(c)

	balance := aliceBalance()
	amount := uint256.NewInt(500)
	current, _ := encryptBalance(c, ek, balance)
	// the prover lies: the new balance keeps 100 tokens too many
	wrong := new(uint256.Int).Sub(balance, uint256.NewInt(400))
	newAmount, newRandomness := encryptBalance(c, ek, wrong)

	stmt := &WithdrawStatement{
		Layout:         layout,
		EK:             ek,
		CurrentBalance: current.Ciphertexts,
		NewBalance:     newAmount.Ciphertexts,
		Amount:         amount,
	}
	proof, err := ProveWithdraw(stmt, &WithdrawWitness{
		DK:         dk,
		NewAmount:  newAmount,
		Randomness: newRandomness,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyWithdraw(stmt, proof), qt.ErrorIs, ErrSigmaVerifyFailed)
}

func TestWithdrawSerialization(t *testing.T) {
	c := qt.New(t)
	dk, ek := newKeyPair(c)

	balance := aliceBalance()
	amount := uint256.NewInt(12345)
	current, _ := encryptBalance(c, ek, balance)
	newAmount, newRandomness := encryptBalance(c, ek, new(uint256.Int).Sub(balance, amount))

	stmt := &WithdrawStatement{
		Layout:         layout,
		EK:             ek,
		CurrentBalance: current.Ciphertexts,
		NewBalance:     newAmount.Ciphertexts,
		Amount:         amount,
	}
	proof, err := ProveWithdraw(stmt, &WithdrawWitness{
		DK:         dk,
		NewAmount:  newAmount,
		Randomness: newRandomness,
	})
	c.Assert(err, qt.IsNil)

	data := proof.Serialize()
	c.Assert(data, qt.HasLen, params.SigmaProofWithdrawSize)

	back, err := DeserializeWithdrawProof(data, layout)
	c.Assert(err, qt.IsNil)
	c.Assert(back.Serialize(), qt.DeepEquals, data)
	c.Assert(VerifyWithdraw(stmt, back), qt.IsNil)

	// wrong lengths are rejected outright
	_, err = DeserializeWithdrawProof(data[:len(data)-1], layout)
	c.Assert(err, qt.ErrorIs, ErrBadProofLength)
	_, err = DeserializeWithdrawProof(append(data, 0), layout)
	c.Assert(err, qt.ErrorIs, ErrBadProofLength)
	_, err = DeserializeWithdrawProof(data, params.WideLayout)
	c.Assert(err, qt.ErrorIs, ErrBadProofLength)

	// flipping any byte must make the proof unusable
	for _, off := range []int{0, 31, 32 * 3, 32 * 11, len(data) - 1} {
		tampered := append([]byte{}, data...)
		tampered[off] ^= 0x01
		bad, err := DeserializeWithdrawProof(tampered, layout)
		if err != nil {
			continue // non-canonical encoding, rejected at decode time
		}
		c.Assert(VerifyWithdraw(stmt, bad), qt.Not(qt.IsNil), qt.Commentf("offset %d", off))
	}
}

func TestRotationCompleteness(t *testing.T) {
	c := qt.New(t)
	currentDK, currentEK := newKeyPair(c)
	newDK, newEK := newKeyPair(c)

	balance := aliceBalance()
	current, _ := encryptBalance(c, currentEK, balance)
	rotated, rotatedRandomness := encryptBalance(c, newEK, balance)

	stmt := &RotationStatement{
		Layout:         layout,
		CurrentEK:      currentEK,
		NewEK:          newEK,
		CurrentBalance: current.Ciphertexts,
		NewBalance:     rotated.Ciphertexts,
	}
	proof, err := ProveRotation(stmt, &RotationWitness{
		CurrentDK:  currentDK,
		NewDK:      newDK,
		Amount:     rotated,
		Randomness: rotatedRandomness,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyRotation(stmt, proof), qt.IsNil)

	// swapping the two keys must fail
	swapped := *stmt
	swapped.CurrentEK, swapped.NewEK = stmt.NewEK, stmt.CurrentEK
	c.Assert(VerifyRotation(&swapped, proof), qt.ErrorIs, ErrSigmaVerifyFailed)

	// serialization roundtrip
	data := proof.Serialize()
	c.Assert(data, qt.HasLen, params.SigmaProofKeyRotationSize)
	back, err := DeserializeRotationProof(data, layout)
	c.Assert(err, qt.IsNil)
	c.Assert(back.Serialize(), qt.DeepEquals, data)
	c.Assert(VerifyRotation(stmt, back), qt.IsNil)

	_, err = DeserializeRotationProof(data[:100], layout)
	c.Assert(err, qt.ErrorIs, ErrBadProofLength)
}

func TestRotationWrongAmount(t *testing.T) {
	c := qt.New(t)
	currentDK, currentEK := newKeyPair(c)
	newDK, newEK := newKeyPair(c)

	balance := aliceBalance()
	current, _ := encryptBalance(c, currentEK, balance)
	// the re-encrypted balance differs from the original
	rotated, rotatedRandomness := encryptBalance(c, newEK, uint256.NewInt(999))

	stmt := &RotationStatement{
		Layout:         layout,
		CurrentEK:      currentEK,
		NewEK:          newEK,
		CurrentBalance: current.Ciphertexts,
		NewBalance:     rotated.Ciphertexts,
	}
	proof, err := ProveRotation(stmt, &RotationWitness{
		CurrentDK:  currentDK,
		NewDK:      newDK,
		Amount:     rotated,
		Randomness: rotatedRandomness,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyRotation(stmt, proof), qt.ErrorIs, ErrSigmaVerifyFailed)
}

func TestNormalizationCompleteness(t *testing.T) {
	c := qt.New(t)
	dk, ek := newKeyPair(c)

	// three chunks overflowed the 32-bit width, the last is empty
	overflow := uint64(1)<<32 + 100
	values := []uint64{overflow, overflow, overflow, 0}
	current := encryptRawChunks(c, ek, values)
	total := twistedelgamal.JoinChunkValues(values, layout.ChunkBits)

	normalized, randomness := encryptBalance(c, ek, total)
	stmt := &NormalizationStatement{
		Layout:     layout,
		EK:         ek,
		Current:    current,
		Normalized: normalized.Ciphertexts,
	}
	proof, err := ProveNormalization(stmt, &NormalizationWitness{
		DK:         dk,
		Amount:     normalized,
		Randomness: randomness,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyNormalization(stmt, proof), qt.IsNil)

	// a normalization that changes the total must fail
	skimmed, skimmedRandomness := encryptBalance(c, ek, new(uint256.Int).SubUint64(total, 1))
	badStmt := *stmt
	badStmt.Normalized = skimmed.Ciphertexts
	badProof, err := ProveNormalization(&badStmt, &NormalizationWitness{
		DK:         dk,
		Amount:     skimmed,
		Randomness: skimmedRandomness,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyNormalization(&badStmt, badProof), qt.ErrorIs, ErrSigmaVerifyFailed)

	// serialization matches the withdrawal size
	data := proof.Serialize()
	c.Assert(data, qt.HasLen, params.SigmaProofNormalizationSize)
	back, err := DeserializeNormalizationProof(data, layout)
	c.Assert(err, qt.IsNil)
	c.Assert(back.Serialize(), qt.DeepEquals, data)
	c.Assert(VerifyNormalization(stmt, back), qt.IsNil)
}
