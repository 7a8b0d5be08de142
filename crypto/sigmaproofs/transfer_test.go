package sigmaproofs

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/holiman/uint256"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types/params"
)

type transferFixture struct {
	stmt  *TransferStatement
	wit   *TransferWitness
	proof *TransferProof
}

func newTransferFixture(c *qt.C, auditors int) *transferFixture {
	senderDK, senderEK := newKeyPair(c)
	_, recipientEK := newKeyPair(c)
	auditorEKs := make([]*twistedelgamal.EncryptionKey, auditors)
	for j := range auditorEKs {
		_, auditorEKs[j] = newKeyPair(c)
	}

	balance := aliceBalance()
	amount := uint64(10)
	current, _ := encryptBalance(c, senderEK, balance)

	transferAmount, err := twistedelgamal.SplitTransferAmount(amount, layout)
	c.Assert(err, qt.IsNil)
	amountRandomness, err := ristretto.RandomScalars(layout.TransferChunks())
	c.Assert(err, qt.IsNil)
	c.Assert(transferAmount.Encrypt(senderEK, amountRandomness), qt.IsNil)
	recipientAmount, err := transferAmount.EncryptFor(recipientEK, amountRandomness)
	c.Assert(err, qt.IsNil)
	auditorAmounts := make([][]*twistedelgamal.Ciphertext, auditors)
	for j, ek := range auditorEKs {
		auditorAmounts[j], err = transferAmount.EncryptFor(ek, amountRandomness)
		c.Assert(err, qt.IsNil)
	}

	newAmount, newRandomness := encryptBalance(c, senderEK,
		new(uint256.Int).SubUint64(balance, amount))

	stmt := &TransferStatement{
		Layout:          layout,
		SenderEK:        senderEK,
		RecipientEK:     recipientEK,
		AuditorEKs:      auditorEKs,
		CurrentBalance:  current.Ciphertexts,
		NewBalance:      newAmount.Ciphertexts,
		SenderAmount:    transferAmount.Ciphertexts,
		RecipientAmount: recipientAmount,
		AuditorAmounts:  auditorAmounts,
	}
	wit := &TransferWitness{
		DK:               senderDK,
		Amount:           transferAmount,
		NewAmount:        newAmount,
		AmountRandomness: amountRandomness,
		NewRandomness:    newRandomness,
	}
	proof, err := ProveTransfer(stmt, wit)
	c.Assert(err, qt.IsNil)
	return &transferFixture{stmt: stmt, wit: wit, proof: proof}
}

func TestTransferCompleteness(t *testing.T) {
	c := qt.New(t)

	f := newTransferFixture(c, 0)
	c.Assert(VerifyTransfer(f.stmt, f.proof), qt.IsNil)

	// a substituted recipient key must fail
	_, otherEK := newKeyPair(c)
	bad := *f.stmt
	bad.RecipientEK = otherEK
	c.Assert(VerifyTransfer(&bad, f.proof), qt.ErrorIs, ErrSigmaVerifyFailed)

	// a tampered new balance ciphertext must fail
	bad = *f.stmt
	tampered := make([]*twistedelgamal.Ciphertext, len(f.stmt.NewBalance))
	copy(tampered, f.stmt.NewBalance)
	tampered[2] = twistedelgamal.NewCiphertext().Add(tampered[2], tampered[0])
	bad.NewBalance = tampered
	c.Assert(VerifyTransfer(&bad, f.proof), qt.ErrorIs, ErrSigmaVerifyFailed)
}

func TestTransferAuditors(t *testing.T) {
	c := qt.New(t)

	f := newTransferFixture(c, 2)
	c.Assert(VerifyTransfer(f.stmt, f.proof), qt.IsNil)

	// substituting one auditor key must fail
	_, otherEK := newKeyPair(c)
	bad := *f.stmt
	badKeys := make([]*twistedelgamal.EncryptionKey, len(f.stmt.AuditorEKs))
	copy(badKeys, f.stmt.AuditorEKs)
	badKeys[1] = otherEK
	bad.AuditorEKs = badKeys
	c.Assert(VerifyTransfer(&bad, f.proof), qt.ErrorIs, ErrSigmaVerifyFailed)

	// removing an auditor must fail before any equation is checked
	bad = *f.stmt
	bad.AuditorEKs = f.stmt.AuditorEKs[:1]
	bad.AuditorAmounts = f.stmt.AuditorAmounts[:1]
	c.Assert(VerifyTransfer(&bad, f.proof), qt.ErrorIs, twistedelgamal.ErrInvariant)
}

func TestTransferSharedRandomness(t *testing.T) {
	c := qt.New(t)

	f := newTransferFixture(c, 1)

	// the auditor responses repeat the shared-randomness family on the wire
	for i, a := range f.proof.AuditorResponses[0] {
		c.Assert(a.Equal(f.proof.A5[i]), qt.Equals, 1)
	}

	// an auditor handle built with different randomness must fail even
	// under the right key
	otherRandomness, err := ristretto.RandomScalars(layout.TransferChunks())
	c.Assert(err, qt.IsNil)
	forged, err := f.wit.Amount.EncryptFor(f.stmt.AuditorEKs[0], otherRandomness)
	c.Assert(err, qt.IsNil)
	// keep the shared commitment component, swap only the handle
	for i := range forged {
		forged[i].C = f.stmt.SenderAmount[i].C
	}
	bad := *f.stmt
	bad.AuditorAmounts = [][]*twistedelgamal.Ciphertext{forged}
	c.Assert(VerifyTransfer(&bad, f.proof), qt.ErrorIs, ErrSigmaVerifyFailed)
}

func TestTransferSerialization(t *testing.T) {
	c := qt.New(t)

	for _, auditors := range []int{0, 1, 3} {
		f := newTransferFixture(c, auditors)
		data := f.proof.Serialize()
		c.Assert(data, qt.HasLen, params.SigmaProofTransferSize+auditors*4*params.ProofChunkSize)

		back, err := DeserializeTransferProof(data, layout)
		c.Assert(err, qt.IsNil)
		c.Assert(back.Serialize(), qt.DeepEquals, data)
		c.Assert(VerifyTransfer(f.stmt, back), qt.IsNil)
	}

	// lengths that are not base plus a whole number of auditor sections
	f := newTransferFixture(c, 0)
	data := f.proof.Serialize()
	_, err := DeserializeTransferProof(data[:len(data)-32], layout)
	c.Assert(err, qt.ErrorIs, ErrBadProofLength)
	_, err = DeserializeTransferProof(append(data, make([]byte, 33)...), layout)
	c.Assert(err, qt.ErrorIs, ErrBadProofLength)
}

func TestTransferWrongAmount(t *testing.T) {
	c := qt.New(t)
	senderDK, senderEK := newKeyPair(c)
	_, recipientEK := newKeyPair(c)

	balance := aliceBalance()
	current, _ := encryptBalance(c, senderEK, balance)

	// the amount ciphertexts say 10 but the sender balance only drops by 4
	transferAmount, err := twistedelgamal.SplitTransferAmount(10, layout)
	c.Assert(err, qt.IsNil)
	amountRandomness, err := ristretto.RandomScalars(layout.TransferChunks())
	c.Assert(err, qt.IsNil)
	c.Assert(transferAmount.Encrypt(senderEK, amountRandomness), qt.IsNil)
	recipientAmount, err := transferAmount.EncryptFor(recipientEK, amountRandomness)
	c.Assert(err, qt.IsNil)
	newAmount, newRandomness := encryptBalance(c, senderEK,
		new(uint256.Int).SubUint64(balance, 4))

	stmt := &TransferStatement{
		Layout:          layout,
		SenderEK:        senderEK,
		RecipientEK:     recipientEK,
		CurrentBalance:  current.Ciphertexts,
		NewBalance:      newAmount.Ciphertexts,
		SenderAmount:    transferAmount.Ciphertexts,
		RecipientAmount: recipientAmount,
		AuditorAmounts:  [][]*twistedelgamal.Ciphertext{},
	}
	proof, err := ProveTransfer(stmt, &TransferWitness{
		DK:               senderDK,
		Amount:           transferAmount,
		NewAmount:        newAmount,
		AmountRandomness: amountRandomness,
		NewRandomness:    newRandomness,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyTransfer(stmt, proof), qt.ErrorIs, ErrSigmaVerifyFailed)
}
