package sigmaproofs

import (
	"fmt"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/transcript"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types/params"
)

// TransferStatement is the public view of a transfer: the sender balance
// ciphertexts before and after, the transfer amount encrypted for the
// sender, the recipient and every auditor, and the keys involved. The
// amount ciphertexts all share the same commitment component because they
// are built from the same per-chunk randomness; only the decryption handle
// differs per key.
type TransferStatement struct {
	Layout          params.Layout
	SenderEK        *twistedelgamal.EncryptionKey
	RecipientEK     *twistedelgamal.EncryptionKey
	AuditorEKs      []*twistedelgamal.EncryptionKey
	CurrentBalance  []*twistedelgamal.Ciphertext
	NewBalance      []*twistedelgamal.Ciphertext
	SenderAmount    []*twistedelgamal.Ciphertext
	RecipientAmount []*twistedelgamal.Ciphertext
	AuditorAmounts  [][]*twistedelgamal.Ciphertext
}

// TransferWitness holds the prover secrets: the sender decryption key, the
// transfer amount and post-transfer balance in chunked form, the shared
// randomness of the amount ciphertexts and the randomness of the new
// balance ciphertexts.
type TransferWitness struct {
	DK               *twistedelgamal.DecryptionKey
	Amount           *twistedelgamal.ChunkedAmount
	NewAmount        *twistedelgamal.ChunkedAmount
	AmountRandomness []*ristretto255.Scalar
	NewRandomness    []*ristretto255.Scalar
}

// TransferProof is the Sigma proof of a transfer.
//
// Responses: A1 for the post-transfer balance, A2 for the decryption key,
// A3 for its inverse, AB for the transfer amount, A4[i]/A5[i] for the
// amount chunks and their shared randomness, A6[i]/A7[i] for the new
// balance chunks and randomness. Commitments: X1 binds the post-transfer
// balance to the current and amount ciphertexts, X2 the transfer amount to
// the amount ciphertexts, X3 the key inverse; X4/X5/X6 open the amount
// ciphertexts for the sender and recipient, X7/X8 the new balance. Each
// auditor appends one response family, which repeats the shared-randomness
// responses, and one commitment family over its key; the verifier enforces
// the repetition, which is what proves the auditor handles use the very
// same randomness.
type TransferProof struct {
	Layout             params.Layout
	A1, A2, A3, AB     *ristretto255.Scalar
	A4, A5             []*ristretto255.Scalar
	A6, A7             []*ristretto255.Scalar
	AuditorResponses   [][]*ristretto255.Scalar
	X1, X2, X3         *ristretto255.Element
	X4, X5, X6         []*ristretto255.Element
	X7, X8             []*ristretto255.Element
	AuditorCommitments [][]*ristretto255.Element
}

func (stmt *TransferStatement) check() error {
	n := stmt.Layout.Chunks
	h := stmt.Layout.TransferChunks()
	if len(stmt.CurrentBalance) != n || len(stmt.NewBalance) != n {
		return fmt.Errorf("%w: expected %d balance chunks", twistedelgamal.ErrInvariant, n)
	}
	if len(stmt.SenderAmount) != h || len(stmt.RecipientAmount) != h {
		return fmt.Errorf("%w: expected %d transfer chunks", twistedelgamal.ErrInvariant, h)
	}
	for j, cts := range stmt.AuditorAmounts {
		if len(cts) != h {
			return fmt.Errorf("%w: auditor %d has %d transfer chunks, expected %d",
				twistedelgamal.ErrInvariant, j, len(cts), h)
		}
	}
	if len(stmt.AuditorAmounts) != len(stmt.AuditorEKs) {
		return fmt.Errorf("%w: %d auditor ciphertext vectors for %d auditor keys",
			twistedelgamal.ErrInvariant, len(stmt.AuditorAmounts), len(stmt.AuditorEKs))
	}
	return nil
}

// ProveTransfer builds the Sigma proof for a transfer statement.
func ProveTransfer(stmt *TransferStatement, wit *TransferWitness) (*TransferProof, error) {
	if err := stmt.check(); err != nil {
		return nil, err
	}
	n := stmt.Layout.Chunks
	h := stmt.Layout.TransferChunks()
	bits := stmt.Layout.ChunkBits
	if len(wit.Amount.Chunks) != h || len(wit.AmountRandomness) != h {
		return nil, fmt.Errorf("%w: amount witness does not match layout %s", twistedelgamal.ErrInvariant, stmt.Layout)
	}
	if len(wit.NewAmount.Chunks) != n || len(wit.NewRandomness) != n {
		return nil, fmt.Errorf("%w: balance witness does not match layout %s", twistedelgamal.ErrInvariant, stmt.Layout)
	}
	if err := wit.Amount.CheckRecombination(); err != nil {
		return nil, err
	}
	if err := wit.NewAmount.CheckRecombination(); err != nil {
		return nil, err
	}
	s := wit.DK.Scalar()
	invS, err := ristretto.InvertScalar(s)
	if err != nil {
		return nil, err
	}
	pS := stmt.SenderEK.Point()
	pR := stmt.RecipientEK.Point()

	x2, err := ristretto.RandomScalar()
	if err != nil {
		return nil, err
	}
	x3, err := ristretto.RandomScalar()
	if err != nil {
		return nil, err
	}
	x4, err := ristretto.RandomScalars(h)
	if err != nil {
		return nil, err
	}
	x5, err := ristretto.RandomScalars(h)
	if err != nil {
		return nil, err
	}
	x6, err := ristretto.RandomScalars(n)
	if err != nil {
		return nil, err
	}
	x7, err := ristretto.RandomScalars(n)
	if err != nil {
		return nil, err
	}
	x1 := weightedScalarSum(x6, bits)
	xb := weightedScalarSum(x4, bits)

	_, dOldSum := weightedSums(stmt.CurrentBalance, bits)
	_, dAmountSum := weightedSums(stmt.SenderAmount, bits)
	dDiff := ristretto.NewElement().Subtract(dOldSum, dAmountSum)

	proof := &TransferProof{
		Layout: stmt.Layout,
		X1:     ristretto.NewElement().ScalarBaseMult(x1),
		X2:     ristretto.NewElement().ScalarBaseMult(xb),
		X3:     ristretto.NewElement().ScalarMult(x3, ristretto.H()),
		X4:     make([]*ristretto255.Element, h),
		X5:     make([]*ristretto255.Element, h),
		X6:     make([]*ristretto255.Element, h),
		X7:     make([]*ristretto255.Element, n),
		X8:     make([]*ristretto255.Element, n),
	}
	proof.X1.Add(proof.X1, ristretto.NewElement().ScalarMult(x2, dDiff))
	proof.X2.Add(proof.X2, ristretto.NewElement().ScalarMult(x2, dAmountSum))
	for i := 0; i < h; i++ {
		proof.X4[i] = ristretto.NewElement().ScalarBaseMult(x4[i])
		proof.X4[i].Add(proof.X4[i], ristretto.NewElement().ScalarMult(x5[i], ristretto.H()))
		proof.X5[i] = ristretto.NewElement().ScalarMult(x5[i], pS)
		proof.X6[i] = ristretto.NewElement().ScalarMult(x5[i], pR)
	}
	for i := 0; i < n; i++ {
		proof.X7[i] = ristretto.NewElement().ScalarBaseMult(x6[i])
		proof.X7[i].Add(proof.X7[i], ristretto.NewElement().ScalarMult(x7[i], ristretto.H()))
		proof.X8[i] = ristretto.NewElement().ScalarMult(x7[i], pS)
	}
	proof.AuditorCommitments = make([][]*ristretto255.Element, len(stmt.AuditorEKs))
	for j, ek := range stmt.AuditorEKs {
		proof.AuditorCommitments[j] = make([]*ristretto255.Element, h)
		pA := ek.Point()
		for i := 0; i < h; i++ {
			proof.AuditorCommitments[j][i] = ristretto.NewElement().ScalarMult(x5[i], pA)
		}
	}

	challenge := transferChallenge(stmt, proof)

	vAfter := twistedelgamal.AmountScalar(wit.NewAmount.Amount)
	b := twistedelgamal.AmountScalar(wit.Amount.Amount)
	proof.A1 = respond(x1, challenge, vAfter)
	proof.A2 = respond(x2, challenge, s)
	proof.A3 = respond(x3, challenge, invS)
	proof.AB = respond(xb, challenge, b)
	proof.A4 = make([]*ristretto255.Scalar, h)
	proof.A5 = make([]*ristretto255.Scalar, h)
	for i := 0; i < h; i++ {
		proof.A4[i] = respond(x4[i], challenge, wit.Amount.Chunks[i])
		proof.A5[i] = respond(x5[i], challenge, wit.AmountRandomness[i])
	}
	proof.A6 = make([]*ristretto255.Scalar, n)
	proof.A7 = make([]*ristretto255.Scalar, n)
	for i := 0; i < n; i++ {
		proof.A6[i] = respond(x6[i], challenge, wit.NewAmount.Chunks[i])
		proof.A7[i] = respond(x7[i], challenge, wit.NewRandomness[i])
	}
	// the auditor sections reuse the shared-randomness masks, so their
	// responses repeat A5; the wire layout still carries them per auditor
	proof.AuditorResponses = make([][]*ristretto255.Scalar, len(stmt.AuditorEKs))
	for j := range stmt.AuditorEKs {
		proof.AuditorResponses[j] = make([]*ristretto255.Scalar, h)
		for i := 0; i < h; i++ {
			proof.AuditorResponses[j][i] = ristretto255.NewScalar().Set(proof.A5[i])
		}
	}
	return proof, nil
}

// VerifyTransfer checks a transfer proof against its statement.
func VerifyTransfer(stmt *TransferStatement, proof *TransferProof) error {
	if err := stmt.check(); err != nil {
		return err
	}
	n := stmt.Layout.Chunks
	h := stmt.Layout.TransferChunks()
	bits := stmt.Layout.ChunkBits
	if len(proof.A4) != h || len(proof.A5) != h || len(proof.A6) != n || len(proof.A7) != n ||
		len(proof.X4) != h || len(proof.X5) != h || len(proof.X6) != h ||
		len(proof.X7) != n || len(proof.X8) != n {
		return fmt.Errorf("%w: proof does not match layout %s", ErrBadProofLength, stmt.Layout)
	}
	if len(proof.AuditorResponses) != len(stmt.AuditorEKs) ||
		len(proof.AuditorCommitments) != len(stmt.AuditorEKs) {
		return fmt.Errorf("%w: proof carries %d auditor sections for %d auditor keys",
			twistedelgamal.ErrInvariant, len(proof.AuditorCommitments), len(stmt.AuditorEKs))
	}
	// the amount ciphertexts must share their commitment component: the
	// recipient and auditor copies differ only in the decryption handle
	for i := 0; i < h; i++ {
		if stmt.RecipientAmount[i].C.Equal(stmt.SenderAmount[i].C) != 1 {
			return fmt.Errorf("%w: recipient amount chunk %d does not share the sender commitment", ErrSigmaVerifyFailed, i)
		}
	}
	for j, cts := range stmt.AuditorAmounts {
		for i := 0; i < h; i++ {
			if cts[i].C.Equal(stmt.SenderAmount[i].C) != 1 {
				return fmt.Errorf("%w: auditor %d amount chunk %d does not share the sender commitment", ErrSigmaVerifyFailed, j, i)
			}
		}
	}
	pS := stmt.SenderEK.Point()
	pR := stmt.RecipientEK.Point()
	challenge := transferChallenge(stmt, proof)

	if proof.AB.Equal(weightedScalarSum(proof.A4, bits)) != 1 {
		return fmt.Errorf("%w: transfer amount does not recombine from chunks", ErrSigmaVerifyFailed)
	}
	if proof.A1.Equal(weightedScalarSum(proof.A6, bits)) != 1 {
		return fmt.Errorf("%w: new balance does not recombine from chunks", ErrSigmaVerifyFailed)
	}

	cOldSum, dOldSum := weightedSums(stmt.CurrentBalance, bits)
	cAmountSum, dAmountSum := weightedSums(stmt.SenderAmount, bits)
	dDiff := ristretto.NewElement().Subtract(dOldSum, dAmountSum)

	// X1: alpha1*G + alpha2*(sum(D_old) - sum(D_amount)) + p*(sum(C_old) - sum(C_amount))
	x1 := ristretto.NewElement().ScalarBaseMult(proof.A1)
	x1.Add(x1, ristretto.NewElement().ScalarMult(proof.A2, dDiff))
	x1.Add(x1, ristretto.NewElement().ScalarMult(challenge,
		ristretto.NewElement().Subtract(cOldSum, cAmountSum)))
	if x1.Equal(proof.X1) != 1 {
		return fmt.Errorf("%w: balance relation commitment mismatch", ErrSigmaVerifyFailed)
	}
	// X2: alphaB*G + alpha2*sum(D_amount) + p*sum(C_amount)
	x2 := ristretto.NewElement().ScalarBaseMult(proof.AB)
	x2.Add(x2, ristretto.NewElement().ScalarMult(proof.A2, dAmountSum))
	x2.Add(x2, ristretto.NewElement().ScalarMult(challenge, cAmountSum))
	if x2.Equal(proof.X2) != 1 {
		return fmt.Errorf("%w: amount relation commitment mismatch", ErrSigmaVerifyFailed)
	}
	// X3: alpha3*H + p*P_sender
	x3 := ristretto.NewElement().ScalarMult(proof.A3, ristretto.H())
	x3.Add(x3, ristretto.NewElement().ScalarMult(challenge, pS))
	if x3.Equal(proof.X3) != 1 {
		return fmt.Errorf("%w: key inverse commitment mismatch", ErrSigmaVerifyFailed)
	}
	for i := 0; i < h; i++ {
		// X4[i]: alpha4[i]*G + alpha5[i]*H + p*C_amount[i]
		x4 := ristretto.NewElement().ScalarBaseMult(proof.A4[i])
		x4.Add(x4, ristretto.NewElement().ScalarMult(proof.A5[i], ristretto.H()))
		x4.Add(x4, ristretto.NewElement().ScalarMult(challenge, stmt.SenderAmount[i].C))
		if x4.Equal(proof.X4[i]) != 1 {
			return fmt.Errorf("%w: amount chunk %d commitment mismatch", ErrSigmaVerifyFailed, i)
		}
		// X5[i]: alpha5[i]*P_sender + p*D_sender[i]
		x5 := ristretto.NewElement().ScalarMult(proof.A5[i], pS)
		x5.Add(x5, ristretto.NewElement().ScalarMult(challenge, stmt.SenderAmount[i].D))
		if x5.Equal(proof.X5[i]) != 1 {
			return fmt.Errorf("%w: sender handle %d commitment mismatch", ErrSigmaVerifyFailed, i)
		}
		// X6[i]: alpha5[i]*P_recipient + p*D_recipient[i]
		x6 := ristretto.NewElement().ScalarMult(proof.A5[i], pR)
		x6.Add(x6, ristretto.NewElement().ScalarMult(challenge, stmt.RecipientAmount[i].D))
		if x6.Equal(proof.X6[i]) != 1 {
			return fmt.Errorf("%w: recipient handle %d commitment mismatch", ErrSigmaVerifyFailed, i)
		}
	}
	for i := 0; i < n; i++ {
		// X7[i]: alpha6[i]*G + alpha7[i]*H + p*C_new[i]
		x7 := ristretto.NewElement().ScalarBaseMult(proof.A6[i])
		x7.Add(x7, ristretto.NewElement().ScalarMult(proof.A7[i], ristretto.H()))
		x7.Add(x7, ristretto.NewElement().ScalarMult(challenge, stmt.NewBalance[i].C))
		if x7.Equal(proof.X7[i]) != 1 {
			return fmt.Errorf("%w: balance chunk %d commitment mismatch", ErrSigmaVerifyFailed, i)
		}
		// X8[i]: alpha7[i]*P_sender + p*D_new[i]
		x8 := ristretto.NewElement().ScalarMult(proof.A7[i], pS)
		x8.Add(x8, ristretto.NewElement().ScalarMult(challenge, stmt.NewBalance[i].D))
		if x8.Equal(proof.X8[i]) != 1 {
			return fmt.Errorf("%w: balance handle %d commitment mismatch", ErrSigmaVerifyFailed, i)
		}
	}
	for j, ek := range stmt.AuditorEKs {
		if len(proof.AuditorResponses[j]) != h || len(proof.AuditorCommitments[j]) != h {
			return fmt.Errorf("%w: auditor %d section does not match layout %s",
				twistedelgamal.ErrInvariant, j, stmt.Layout)
		}
		pA := ek.Point()
		for i := 0; i < h; i++ {
			// the auditor responses must repeat the shared-randomness
			// responses: that equality is what binds every auditor handle
			// to the same randomness as the sender and recipient handles
			if proof.AuditorResponses[j][i].Equal(proof.A5[i]) != 1 {
				return fmt.Errorf("%w: auditor %d response %d does not match the shared randomness", ErrSigmaVerifyFailed, j, i)
			}
			// X9[j][i]: alpha5[i]*P_auditor + p*D_auditor[j][i]
			x9 := ristretto.NewElement().ScalarMult(proof.A5[i], pA)
			x9.Add(x9, ristretto.NewElement().ScalarMult(challenge, stmt.AuditorAmounts[j][i].D))
			if x9.Equal(proof.AuditorCommitments[j][i]) != 1 {
				return fmt.Errorf("%w: auditor %d handle %d commitment mismatch", ErrSigmaVerifyFailed, j, i)
			}
		}
	}
	return nil
}

// transferChallenge derives the Fiat-Shamir challenge of the transfer
// protocol: bases, sender, recipient and auditor keys, current and new
// balance ciphertexts, amount ciphertexts for the sender, the recipient
// and every auditor, then every commitment in wire order.
func transferChallenge(stmt *TransferStatement, proof *TransferProof) *ristretto255.Scalar {
	tr := transcript.New(transcript.TransferDST)
	tr.AppendElements(ristretto.G(), ristretto.H(), stmt.SenderEK.Point(), stmt.RecipientEK.Point())
	for _, ek := range stmt.AuditorEKs {
		tr.AppendElement(ek.Point())
	}
	appendCiphertexts(tr, stmt.CurrentBalance)
	appendCiphertexts(tr, stmt.NewBalance)
	appendCiphertexts(tr, stmt.SenderAmount)
	appendCiphertexts(tr, stmt.RecipientAmount)
	for _, cts := range stmt.AuditorAmounts {
		appendCiphertexts(tr, cts)
	}
	tr.AppendElements(proof.X1, proof.X2, proof.X3)
	tr.AppendElements(proof.X4...)
	tr.AppendElements(proof.X5...)
	tr.AppendElements(proof.X6...)
	tr.AppendElements(proof.X7...)
	tr.AppendElements(proof.X8...)
	for _, xs := range proof.AuditorCommitments {
		tr.AppendElements(xs...)
	}
	return tr.Challenge()
}

// Serialize encodes the proof in wire order: responses then commitments,
// the auditor sections after the base families.
func (pr *TransferProof) Serialize() []byte {
	var w proofWriter
	w.scalars(pr.A1, pr.A2, pr.A3, pr.AB)
	w.scalars(pr.A4...)
	w.scalars(pr.A5...)
	w.scalars(pr.A6...)
	w.scalars(pr.A7...)
	for _, as := range pr.AuditorResponses {
		w.scalars(as...)
	}
	w.elements(pr.X1, pr.X2, pr.X3)
	w.elements(pr.X4...)
	w.elements(pr.X5...)
	w.elements(pr.X6...)
	w.elements(pr.X7...)
	w.elements(pr.X8...)
	for _, xs := range pr.AuditorCommitments {
		w.elements(xs...)
	}
	return w.bytes()
}

// DeserializeTransferProof decodes transfer proof bytes for a layout. The
// auditor count is derived from the length past the base size, which must
// be an exact multiple of the per-auditor section.
func DeserializeTransferProof(data []byte, layout params.Layout) (*TransferProof, error) {
	h := layout.TransferChunks()
	base := layout.TransferProofLen(0)
	perAuditor := 2 * h * params.ProofChunkSize
	if len(data) < base || (len(data)-base)%perAuditor != 0 {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d plus a multiple of %d for layout %s",
			ErrBadProofLength, len(data), base, perAuditor, layout)
	}
	auditors := (len(data) - base) / perAuditor
	n := layout.Chunks
	r := proofReader{data: data}
	proof := &TransferProof{Layout: layout}
	proof.A1 = r.scalar()
	proof.A2 = r.scalar()
	proof.A3 = r.scalar()
	proof.AB = r.scalar()
	proof.A4 = r.scalarList(h)
	proof.A5 = r.scalarList(h)
	proof.A6 = r.scalarList(n)
	proof.A7 = r.scalarList(n)
	proof.AuditorResponses = make([][]*ristretto255.Scalar, auditors)
	for j := range proof.AuditorResponses {
		proof.AuditorResponses[j] = r.scalarList(h)
	}
	proof.X1 = r.element()
	proof.X2 = r.element()
	proof.X3 = r.element()
	proof.X4 = r.elementList(h)
	proof.X5 = r.elementList(h)
	proof.X6 = r.elementList(h)
	proof.X7 = r.elementList(n)
	proof.X8 = r.elementList(n)
	proof.AuditorCommitments = make([][]*ristretto255.Element, auditors)
	for j := range proof.AuditorCommitments {
		proof.AuditorCommitments[j] = r.elementList(h)
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProofLength, r.err)
	}
	return proof, nil
}
