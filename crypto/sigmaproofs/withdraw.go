package sigmaproofs

import (
	"fmt"

	"github.com/gtank/ristretto255"
	"github.com/holiman/uint256"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/transcript"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types/params"
)

// WithdrawStatement is the public view of a withdrawal: the balance
// ciphertexts before and after, both under the same key, and the cleartext
// amount withdrawn.
type WithdrawStatement struct {
	Layout         params.Layout
	EK             *twistedelgamal.EncryptionKey
	CurrentBalance []*twistedelgamal.Ciphertext
	NewBalance     []*twistedelgamal.Ciphertext
	Amount         *uint256.Int
}

// WithdrawWitness holds the prover secrets: the decryption key, the new
// balance in chunked form and the randomness of the new ciphertexts.
type WithdrawWitness struct {
	DK         *twistedelgamal.DecryptionKey
	NewAmount  *twistedelgamal.ChunkedAmount
	Randomness []*ristretto255.Scalar
}

// WithdrawProof is the Sigma proof of a withdrawal.
type WithdrawProof struct {
	openingProof
}

// openingProof is the proof body shared by the withdrawal and
// normalization protocols: both prove that the new ciphertext vector opens
// to the current balance minus a public amount (zero for normalization).
//
// Responses: A1 for the new amount, A2 for the decryption key, A3 for its
// inverse, A4[i] for the new chunks, A5[i] for the new randomness.
// Commitments: X1 binds the new amount to the current ciphertexts, X2 the
// key inverse to the encryption key, X3[i]/X4[i] the openings of the new
// ciphertexts.
type openingProof struct {
	Layout     params.Layout
	A1, A2, A3 *ristretto255.Scalar
	A4, A5     []*ristretto255.Scalar
	X1, X2     *ristretto255.Element
	X3, X4     []*ristretto255.Element
}

// ProveWithdraw builds the Sigma proof for a withdrawal statement.
func ProveWithdraw(stmt *WithdrawStatement, wit *WithdrawWitness) (*WithdrawProof, error) {
	body, err := proveOpening(transcript.WithdrawalDST, stmt.Layout, stmt.EK,
		stmt.CurrentBalance, stmt.NewBalance, twistedelgamal.AmountScalar(stmt.Amount), wit)
	if err != nil {
		return nil, err
	}
	return &WithdrawProof{openingProof: *body}, nil
}

// VerifyWithdraw checks a withdrawal proof against its statement.
func VerifyWithdraw(stmt *WithdrawStatement, proof *WithdrawProof) error {
	return verifyOpening(transcript.WithdrawalDST, stmt.Layout, stmt.EK,
		stmt.CurrentBalance, stmt.NewBalance, twistedelgamal.AmountScalar(stmt.Amount), &proof.openingProof)
}

func proveOpening(dst string, layout params.Layout, ek *twistedelgamal.EncryptionKey,
	current, next []*twistedelgamal.Ciphertext, amount *ristretto255.Scalar,
	wit *WithdrawWitness,
) (*openingProof, error) {
	n := layout.Chunks
	bits := layout.ChunkBits
	if len(current) != n || len(next) != n {
		return nil, fmt.Errorf("%w: expected %d balance chunks", twistedelgamal.ErrInvariant, n)
	}
	if len(wit.NewAmount.Chunks) != n || len(wit.Randomness) != n {
		return nil, fmt.Errorf("%w: witness does not match layout %s", twistedelgamal.ErrInvariant, layout)
	}
	if err := wit.NewAmount.CheckRecombination(); err != nil {
		return nil, err
	}
	s := wit.DK.Scalar()
	invS, err := ristretto.InvertScalar(s)
	if err != nil {
		return nil, err
	}
	p := ek.Point()

	// masks: x1 is the chunk-weighted sum of the x4 family, which is what
	// lets the verifier bind the recombined new amount to its chunks
	x2, err := ristretto.RandomScalar()
	if err != nil {
		return nil, err
	}
	x3, err := ristretto.RandomScalar()
	if err != nil {
		return nil, err
	}
	x4, err := ristretto.RandomScalars(n)
	if err != nil {
		return nil, err
	}
	x5, err := ristretto.RandomScalars(n)
	if err != nil {
		return nil, err
	}
	x1 := weightedScalarSum(x4, bits)

	_, dOldSum := weightedSums(current, bits)
	proof := &openingProof{
		Layout: layout,
		X1:     ristretto.NewElement().ScalarBaseMult(x1),
		X2:     ristretto.NewElement().ScalarMult(x3, ristretto.H()),
		X3:     make([]*ristretto255.Element, n),
		X4:     make([]*ristretto255.Element, n),
	}
	proof.X1.Add(proof.X1, ristretto.NewElement().ScalarMult(x2, dOldSum))
	for i := 0; i < n; i++ {
		proof.X3[i] = ristretto.NewElement().ScalarBaseMult(x4[i])
		proof.X3[i].Add(proof.X3[i], ristretto.NewElement().ScalarMult(x5[i], ristretto.H()))
		proof.X4[i] = ristretto.NewElement().ScalarMult(x5[i], p)
	}

	challenge := openingChallenge(dst, ek, current, next, amount, proof)

	vNew := twistedelgamal.AmountScalar(wit.NewAmount.Amount)
	proof.A1 = respond(x1, challenge, vNew)
	proof.A2 = respond(x2, challenge, s)
	proof.A3 = respond(x3, challenge, invS)
	proof.A4 = make([]*ristretto255.Scalar, n)
	proof.A5 = make([]*ristretto255.Scalar, n)
	for i := 0; i < n; i++ {
		proof.A4[i] = respond(x4[i], challenge, wit.NewAmount.Chunks[i])
		proof.A5[i] = respond(x5[i], challenge, wit.Randomness[i])
	}
	return proof, nil
}

func verifyOpening(dst string, layout params.Layout, ek *twistedelgamal.EncryptionKey,
	current, next []*twistedelgamal.Ciphertext, amount *ristretto255.Scalar,
	proof *openingProof,
) error {
	n := layout.Chunks
	bits := layout.ChunkBits
	if len(current) != n || len(next) != n {
		return fmt.Errorf("%w: expected %d balance chunks", twistedelgamal.ErrInvariant, n)
	}
	if len(proof.A4) != n || len(proof.A5) != n || len(proof.X3) != n || len(proof.X4) != n {
		return fmt.Errorf("%w: proof does not match layout %s", ErrBadProofLength, layout)
	}
	p := ek.Point()
	challenge := openingChallenge(dst, ek, current, next, amount, proof)

	// the new amount response must recombine from the chunk responses
	if proof.A1.Equal(weightedScalarSum(proof.A4, bits)) != 1 {
		return fmt.Errorf("%w: amount does not recombine from chunks", ErrSigmaVerifyFailed)
	}

	cOldSum, dOldSum := weightedSums(current, bits)
	// X1: alpha1*G + alpha2*sum(D) + p*(sum(C) - amount*G)
	x1 := ristretto.NewElement().ScalarBaseMult(proof.A1)
	x1.Add(x1, ristretto.NewElement().ScalarMult(proof.A2, dOldSum))
	bound := ristretto.NewElement().Subtract(cOldSum, ristretto.NewElement().ScalarBaseMult(amount))
	x1.Add(x1, ristretto.NewElement().ScalarMult(challenge, bound))
	if x1.Equal(proof.X1) != 1 {
		return fmt.Errorf("%w: balance relation commitment mismatch", ErrSigmaVerifyFailed)
	}
	// X2: alpha3*H + p*P
	x2 := ristretto.NewElement().ScalarMult(proof.A3, ristretto.H())
	x2.Add(x2, ristretto.NewElement().ScalarMult(challenge, p))
	if x2.Equal(proof.X2) != 1 {
		return fmt.Errorf("%w: key inverse commitment mismatch", ErrSigmaVerifyFailed)
	}
	for i := 0; i < n; i++ {
		// X3[i]: alpha4[i]*G + alpha5[i]*H + p*C_new[i]
		x3 := ristretto.NewElement().ScalarBaseMult(proof.A4[i])
		x3.Add(x3, ristretto.NewElement().ScalarMult(proof.A5[i], ristretto.H()))
		x3.Add(x3, ristretto.NewElement().ScalarMult(challenge, next[i].C))
		if x3.Equal(proof.X3[i]) != 1 {
			return fmt.Errorf("%w: chunk %d commitment mismatch", ErrSigmaVerifyFailed, i)
		}
		// X4[i]: alpha5[i]*P + p*D_new[i]
		x4 := ristretto.NewElement().ScalarMult(proof.A5[i], p)
		x4.Add(x4, ristretto.NewElement().ScalarMult(challenge, next[i].D))
		if x4.Equal(proof.X4[i]) != 1 {
			return fmt.Errorf("%w: chunk %d randomness commitment mismatch", ErrSigmaVerifyFailed, i)
		}
	}
	return nil
}

// openingChallenge derives the Fiat-Shamir challenge of the withdrawal and
// normalization protocols. The append order is part of the wire format:
// bases, encryption key, amount, current ciphertexts, new ciphertexts, then
// every commitment in wire order.
func openingChallenge(dst string, ek *twistedelgamal.EncryptionKey,
	current, next []*twistedelgamal.Ciphertext, amount *ristretto255.Scalar,
	proof *openingProof,
) *ristretto255.Scalar {
	tr := transcript.New(dst)
	tr.AppendElements(ristretto.G(), ristretto.H(), ek.Point())
	tr.AppendScalar(amount)
	appendCiphertexts(tr, current)
	appendCiphertexts(tr, next)
	tr.AppendElements(proof.X1, proof.X2)
	tr.AppendElements(proof.X3...)
	tr.AppendElements(proof.X4...)
	return tr.Challenge()
}

// Serialize encodes the proof in wire order: responses then commitments.
func (pr *openingProof) Serialize() []byte {
	var w proofWriter
	w.scalars(pr.A1, pr.A2, pr.A3)
	w.scalars(pr.A4...)
	w.scalars(pr.A5...)
	w.elements(pr.X1, pr.X2)
	w.elements(pr.X3...)
	w.elements(pr.X4...)
	return w.bytes()
}

func deserializeOpening(data []byte, layout params.Layout) (*openingProof, error) {
	if len(data) != layout.WithdrawProofLen() {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d for layout %s",
			ErrBadProofLength, len(data), layout.WithdrawProofLen(), layout)
	}
	n := layout.Chunks
	r := proofReader{data: data}
	proof := &openingProof{Layout: layout}
	proof.A1 = r.scalar()
	proof.A2 = r.scalar()
	proof.A3 = r.scalar()
	proof.A4 = r.scalarList(n)
	proof.A5 = r.scalarList(n)
	proof.X1 = r.element()
	proof.X2 = r.element()
	proof.X3 = r.elementList(n)
	proof.X4 = r.elementList(n)
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProofLength, r.err)
	}
	return proof, nil
}

// DeserializeWithdrawProof decodes withdrawal proof bytes for a layout,
// enforcing the exact expected size.
func DeserializeWithdrawProof(data []byte, layout params.Layout) (*WithdrawProof, error) {
	body, err := deserializeOpening(data, layout)
	if err != nil {
		return nil, err
	}
	return &WithdrawProof{openingProof: *body}, nil
}
