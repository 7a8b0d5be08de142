package twistedelgamal

import (
	"fmt"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/kangaroo"
	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/types/params"
)

// Ciphertext is a twisted-ElGamal ciphertext: C = m*G + r*H, D = r*P.
type Ciphertext struct {
	C *ristretto255.Element
	D *ristretto255.Element
}

// NewCiphertext returns a ciphertext of zero with zero randomness, the
// identity pair. It is the neutral element of Add.
func NewCiphertext() *Ciphertext {
	return &Ciphertext{C: ristretto.NewElement(), D: ristretto.NewElement()}
}

// EncryptWithRandomness encrypts amount m under ek with the explicit
// randomness r. The randomness is a caller input so that a transfer can
// reuse the same r across the ciphertexts addressed to the sender, the
// recipient and the auditors.
func EncryptWithRandomness(m *ristretto255.Scalar, ek *EncryptionKey, r *ristretto255.Scalar) *Ciphertext {
	c := ristretto.NewElement().ScalarBaseMult(m)
	c.Add(c, ristretto.NewElement().ScalarMult(r, ristretto.H()))
	d := ristretto.NewElement().ScalarMult(r, ek.p)
	return &Ciphertext{C: c, D: d}
}

// Encrypt encrypts amount m under ek with fresh randomness, returning both
// the ciphertext and the randomness used.
func Encrypt(m *ristretto255.Scalar, ek *EncryptionKey) (*Ciphertext, *ristretto255.Scalar, error) {
	r, err := ristretto.RandomScalar()
	if err != nil {
		return nil, nil, fmt.Errorf("encryption failed: %w", err)
	}
	return EncryptWithRandomness(m, ek, r), r, nil
}

// Add sets z to the homomorphic sum x+y and returns z. Summed ciphertexts
// decrypt to the sum of the amounts as long as both were encrypted under
// the same key.
func (z *Ciphertext) Add(x, y *Ciphertext) *Ciphertext {
	z.C = ristretto.NewElement().Add(x.C, y.C)
	z.D = ristretto.NewElement().Add(x.D, y.D)
	return z
}

// AddAmount adds the public amount v to the encrypted amount in place.
// Only the commitment component moves; the randomness is unchanged.
func (z *Ciphertext) AddAmount(v uint64) *Ciphertext {
	z.C.Add(z.C, ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(v)))
	return z
}

// DecryptToPoint recovers the plaintext point M = C - s*D = m*G.
func (z *Ciphertext) DecryptToPoint(dk *DecryptionKey) *ristretto255.Element {
	sd := ristretto.NewElement().ScalarMult(dk.s, z.D)
	return ristretto.NewElement().Subtract(z.C, sd)
}

// Decrypt recovers the plaintext amount, delegating the discrete-log search
// to the registered kangaroo tables. A kangaroo failure surfaces as
// kangaroo.ErrDecryptionFailed, distinct from an amount of zero.
func (z *Ciphertext) Decrypt(dk *DecryptionKey) (uint64, error) {
	return kangaroo.Solve(z.DecryptToPoint(dk))
}

// Equal reports whether both components match.
func (z *Ciphertext) Equal(other *Ciphertext) bool {
	return z.C.Equal(other.C) == 1 && z.D.Equal(other.D) == 1
}

// Serialize encodes the ciphertext as C || D, 64 bytes.
func (z *Ciphertext) Serialize() []byte {
	out := make([]byte, 0, params.CiphertextSize)
	out = append(out, z.C.Bytes()...)
	out = append(out, z.D.Bytes()...)
	return out
}

// Deserialize decodes a 64-byte C || D pair.
func (z *Ciphertext) Deserialize(data []byte) error {
	if len(data) != params.CiphertextSize {
		return fmt.Errorf("invalid ciphertext length: got %d bytes, expected %d", len(data), params.CiphertextSize)
	}
	c, err := ristretto.ElementFromBytes(data[:32])
	if err != nil {
		return err
	}
	d, err := ristretto.ElementFromBytes(data[32:])
	if err != nil {
		return err
	}
	z.C, z.D = c, d
	return nil
}
