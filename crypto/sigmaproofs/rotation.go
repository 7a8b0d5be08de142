package sigmaproofs

import (
	"fmt"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/transcript"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types/params"
)

// RotationStatement is the public view of a key rotation: the balance
// ciphertexts under the current key and the fresh ciphertexts of the same
// amount under the new key.
type RotationStatement struct {
	Layout         params.Layout
	CurrentEK      *twistedelgamal.EncryptionKey
	NewEK          *twistedelgamal.EncryptionKey
	CurrentBalance []*twistedelgamal.Ciphertext
	NewBalance     []*twistedelgamal.Ciphertext
}

// RotationWitness holds the prover secrets: both decryption keys, the
// balance in chunked form and the randomness of the new ciphertexts.
type RotationWitness struct {
	CurrentDK  *twistedelgamal.DecryptionKey
	NewDK      *twistedelgamal.DecryptionKey
	Amount     *twistedelgamal.ChunkedAmount
	Randomness []*ristretto255.Scalar
}

// RotationProof is the Sigma proof of a key rotation.
//
// Responses: A1 for the balance, A2 for the current key, A3 for its
// inverse, A4 for the new key inverse, A5[i] for the chunks, A6[i] for the
// new randomness. Commitments: X1 binds the balance to the current
// ciphertexts, X2 and X3 the key inverses to both encryption keys,
// X4[i]/X5[i] the openings of the new ciphertexts under the new key.
type RotationProof struct {
	Layout         params.Layout
	A1, A2, A3, A4 *ristretto255.Scalar
	A5, A6         []*ristretto255.Scalar
	X1, X2, X3     *ristretto255.Element
	X4, X5         []*ristretto255.Element
}

// ProveRotation builds the Sigma proof for a key rotation statement.
func ProveRotation(stmt *RotationStatement, wit *RotationWitness) (*RotationProof, error) {
	n := stmt.Layout.Chunks
	bits := stmt.Layout.ChunkBits
	if len(stmt.CurrentBalance) != n || len(stmt.NewBalance) != n {
		return nil, fmt.Errorf("%w: expected %d balance chunks", twistedelgamal.ErrInvariant, n)
	}
	if len(wit.Amount.Chunks) != n || len(wit.Randomness) != n {
		return nil, fmt.Errorf("%w: witness does not match layout %s", twistedelgamal.ErrInvariant, stmt.Layout)
	}
	if err := wit.Amount.CheckRecombination(); err != nil {
		return nil, err
	}
	s := wit.CurrentDK.Scalar()
	invS, err := ristretto.InvertScalar(s)
	if err != nil {
		return nil, err
	}
	invSNew, err := ristretto.InvertScalar(wit.NewDK.Scalar())
	if err != nil {
		return nil, err
	}
	pNew := stmt.NewEK.Point()

	x2, err := ristretto.RandomScalar()
	if err != nil {
		return nil, err
	}
	x3, err := ristretto.RandomScalar()
	if err != nil {
		return nil, err
	}
	x4, err := ristretto.RandomScalar()
	if err != nil {
		return nil, err
	}
	x5, err := ristretto.RandomScalars(n)
	if err != nil {
		return nil, err
	}
	x6, err := ristretto.RandomScalars(n)
	if err != nil {
		return nil, err
	}
	x1 := weightedScalarSum(x5, bits)

	_, dOldSum := weightedSums(stmt.CurrentBalance, bits)
	proof := &RotationProof{
		Layout: stmt.Layout,
		X1:     ristretto.NewElement().ScalarBaseMult(x1),
		X2:     ristretto.NewElement().ScalarMult(x3, ristretto.H()),
		X3:     ristretto.NewElement().ScalarMult(x4, ristretto.H()),
		X4:     make([]*ristretto255.Element, n),
		X5:     make([]*ristretto255.Element, n),
	}
	proof.X1.Add(proof.X1, ristretto.NewElement().ScalarMult(x2, dOldSum))
	for i := 0; i < n; i++ {
		proof.X4[i] = ristretto.NewElement().ScalarBaseMult(x5[i])
		proof.X4[i].Add(proof.X4[i], ristretto.NewElement().ScalarMult(x6[i], ristretto.H()))
		proof.X5[i] = ristretto.NewElement().ScalarMult(x6[i], pNew)
	}

	challenge := rotationChallenge(stmt, proof)

	v := twistedelgamal.AmountScalar(wit.Amount.Amount)
	proof.A1 = respond(x1, challenge, v)
	proof.A2 = respond(x2, challenge, s)
	proof.A3 = respond(x3, challenge, invS)
	proof.A4 = respond(x4, challenge, invSNew)
	proof.A5 = make([]*ristretto255.Scalar, n)
	proof.A6 = make([]*ristretto255.Scalar, n)
	for i := 0; i < n; i++ {
		proof.A5[i] = respond(x5[i], challenge, wit.Amount.Chunks[i])
		proof.A6[i] = respond(x6[i], challenge, wit.Randomness[i])
	}
	return proof, nil
}

// VerifyRotation checks a key rotation proof against its statement.
func VerifyRotation(stmt *RotationStatement, proof *RotationProof) error {
	n := stmt.Layout.Chunks
	bits := stmt.Layout.ChunkBits
	if len(stmt.CurrentBalance) != n || len(stmt.NewBalance) != n {
		return fmt.Errorf("%w: expected %d balance chunks", twistedelgamal.ErrInvariant, n)
	}
	if len(proof.A5) != n || len(proof.A6) != n || len(proof.X4) != n || len(proof.X5) != n {
		return fmt.Errorf("%w: proof does not match layout %s", ErrBadProofLength, stmt.Layout)
	}
	p := stmt.CurrentEK.Point()
	pNew := stmt.NewEK.Point()
	challenge := rotationChallenge(stmt, proof)

	if proof.A1.Equal(weightedScalarSum(proof.A5, bits)) != 1 {
		return fmt.Errorf("%w: balance does not recombine from chunks", ErrSigmaVerifyFailed)
	}

	cOldSum, dOldSum := weightedSums(stmt.CurrentBalance, bits)
	// X1: alpha1*G + alpha2*sum(D) + p*sum(C)
	x1 := ristretto.NewElement().ScalarBaseMult(proof.A1)
	x1.Add(x1, ristretto.NewElement().ScalarMult(proof.A2, dOldSum))
	x1.Add(x1, ristretto.NewElement().ScalarMult(challenge, cOldSum))
	if x1.Equal(proof.X1) != 1 {
		return fmt.Errorf("%w: balance relation commitment mismatch", ErrSigmaVerifyFailed)
	}
	// X2: alpha3*H + p*P
	x2 := ristretto.NewElement().ScalarMult(proof.A3, ristretto.H())
	x2.Add(x2, ristretto.NewElement().ScalarMult(challenge, p))
	if x2.Equal(proof.X2) != 1 {
		return fmt.Errorf("%w: current key commitment mismatch", ErrSigmaVerifyFailed)
	}
	// X3: alpha4*H + p*P'
	x3 := ristretto.NewElement().ScalarMult(proof.A4, ristretto.H())
	x3.Add(x3, ristretto.NewElement().ScalarMult(challenge, pNew))
	if x3.Equal(proof.X3) != 1 {
		return fmt.Errorf("%w: new key commitment mismatch", ErrSigmaVerifyFailed)
	}
	for i := 0; i < n; i++ {
		// X4[i]: alpha5[i]*G + alpha6[i]*H + p*C_new[i]
		x4 := ristretto.NewElement().ScalarBaseMult(proof.A5[i])
		x4.Add(x4, ristretto.NewElement().ScalarMult(proof.A6[i], ristretto.H()))
		x4.Add(x4, ristretto.NewElement().ScalarMult(challenge, stmt.NewBalance[i].C))
		if x4.Equal(proof.X4[i]) != 1 {
			return fmt.Errorf("%w: chunk %d commitment mismatch", ErrSigmaVerifyFailed, i)
		}
		// X5[i]: alpha6[i]*P' + p*D_new[i]
		x5 := ristretto.NewElement().ScalarMult(proof.A6[i], pNew)
		x5.Add(x5, ristretto.NewElement().ScalarMult(challenge, stmt.NewBalance[i].D))
		if x5.Equal(proof.X5[i]) != 1 {
			return fmt.Errorf("%w: chunk %d randomness commitment mismatch", ErrSigmaVerifyFailed, i)
		}
	}
	return nil
}

// rotationChallenge derives the Fiat-Shamir challenge of the rotation
// protocol: bases, both encryption keys, current ciphertexts, new
// ciphertexts, then every commitment in wire order.
func rotationChallenge(stmt *RotationStatement, proof *RotationProof) *ristretto255.Scalar {
	tr := transcript.New(transcript.RotationDST)
	tr.AppendElements(ristretto.G(), ristretto.H(), stmt.CurrentEK.Point(), stmt.NewEK.Point())
	appendCiphertexts(tr, stmt.CurrentBalance)
	appendCiphertexts(tr, stmt.NewBalance)
	tr.AppendElements(proof.X1, proof.X2, proof.X3)
	tr.AppendElements(proof.X4...)
	tr.AppendElements(proof.X5...)
	return tr.Challenge()
}

// Serialize encodes the proof in wire order: responses then commitments.
func (pr *RotationProof) Serialize() []byte {
	var w proofWriter
	w.scalars(pr.A1, pr.A2, pr.A3, pr.A4)
	w.scalars(pr.A5...)
	w.scalars(pr.A6...)
	w.elements(pr.X1, pr.X2, pr.X3)
	w.elements(pr.X4...)
	w.elements(pr.X5...)
	return w.bytes()
}

// DeserializeRotationProof decodes rotation proof bytes for a layout,
// enforcing the exact expected size.
func DeserializeRotationProof(data []byte, layout params.Layout) (*RotationProof, error) {
	if len(data) != layout.RotationProofLen() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d for layout %s",
			ErrBadProofLength, len(data), layout.RotationProofLen(), layout)
	}
	n := layout.Chunks
	r := proofReader{data: data}
	proof := &RotationProof{Layout: layout}
	proof.A1 = r.scalar()
	proof.A2 = r.scalar()
	proof.A3 = r.scalar()
	proof.A4 = r.scalar()
	proof.A5 = r.scalarList(n)
	proof.A6 = r.scalarList(n)
	proof.X1 = r.element()
	proof.X2 = r.element()
	proof.X3 = r.element()
	proof.X4 = r.elementList(n)
	proof.X5 = r.elementList(n)
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProofLength, r.err)
	}
	return proof, nil
}
