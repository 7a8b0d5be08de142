package confidential

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/vocdoni/confidential-asset/crypto/rangeproof"
	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/sigmaproofs"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types"
	"github.com/vocdoni/confidential-asset/types/params"
)

// TransferAuthorization is the bundle a transfer submits: the Sigma proof,
// one range proof over the transfer amount chunks and one over the new
// sender balance chunks, and every ciphertext produced by the operation.
// The amount ciphertexts for the recipient and the auditors share their
// commitment components with the sender copy; only the decryption handles
// differ.
type TransferAuthorization struct {
	SigmaProof        types.HexBytes                 `json:"sigmaProof"`
	AmountRangeProof  types.HexBytes                 `json:"amountRangeProof"`
	BalanceRangeProof types.HexBytes                 `json:"balanceRangeProof"`
	NewBalance        []*twistedelgamal.Ciphertext   `json:"newBalance"`
	SenderAmount      []*twistedelgamal.Ciphertext   `json:"senderAmount"`
	RecipientAmount   []*twistedelgamal.Ciphertext   `json:"recipientAmount"`
	AuditorAmounts    [][]*twistedelgamal.Ciphertext `json:"auditorAmounts,omitempty"`
}

// AuthorizeTransfer builds the authorization for transferring amount to the
// recipient, optionally disclosing the amount to a set of auditors. The
// per-chunk randomness of the amount ciphertexts is shared between the
// sender, recipient and auditor copies; the Sigma proof binds that sharing.
func AuthorizeTransfer(dk *twistedelgamal.DecryptionKey, currentBalance []*twistedelgamal.Ciphertext,
	amount uint64, recipientEK *twistedelgamal.EncryptionKey,
	auditorEKs []*twistedelgamal.EncryptionKey, layout params.Layout,
) (*TransferAuthorization, error) {
	senderEK, err := dk.EncryptionKey()
	if err != nil {
		return nil, err
	}
	balance, err := twistedelgamal.DecryptBalance(currentBalance, dk, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt current balance: %w", err)
	}
	amount256 := uint256.NewInt(amount)
	if amount256.Gt(balance) {
		return nil, fmt.Errorf("%w: %s < %d", ErrInsufficientBalance, balance, amount)
	}

	transferAmount, err := twistedelgamal.SplitTransferAmount(amount, layout)
	if err != nil {
		return nil, err
	}
	amountRandomness, err := ristretto.RandomScalars(layout.TransferChunks())
	if err != nil {
		return nil, err
	}
	if err := transferAmount.Encrypt(senderEK, amountRandomness); err != nil {
		return nil, err
	}
	recipientAmount, err := transferAmount.EncryptFor(recipientEK, amountRandomness)
	if err != nil {
		return nil, err
	}
	auditorAmounts := make([][]*twistedelgamal.Ciphertext, len(auditorEKs))
	for j, ek := range auditorEKs {
		auditorAmounts[j], err = transferAmount.EncryptFor(ek, amountRandomness)
		if err != nil {
			return nil, err
		}
	}

	newAmount, err := twistedelgamal.SplitBalance(new(uint256.Int).Sub(balance, amount256), layout)
	if err != nil {
		return nil, err
	}
	newRandomness, err := ristretto.RandomScalars(layout.Chunks)
	if err != nil {
		return nil, err
	}
	if err := newAmount.Encrypt(senderEK, newRandomness); err != nil {
		return nil, err
	}

	stmt := &sigmaproofs.TransferStatement{
		Layout:          layout,
		SenderEK:        senderEK,
		RecipientEK:     recipientEK,
		AuditorEKs:      auditorEKs,
		CurrentBalance:  currentBalance,
		NewBalance:      newAmount.Ciphertexts,
		SenderAmount:    transferAmount.Ciphertexts,
		RecipientAmount: recipientAmount,
		AuditorAmounts:  auditorAmounts,
	}
	sigma, err := sigmaproofs.ProveTransfer(stmt, &sigmaproofs.TransferWitness{
		DK:               dk,
		Amount:           transferAmount,
		NewAmount:        newAmount,
		AmountRandomness: amountRandomness,
		NewRandomness:    newRandomness,
	})
	if err != nil {
		return nil, err
	}
	amountRange, err := rangeproof.ProveBatch(transferAmount.Values, amountRandomness,
		ristretto.G(), ristretto.H(), layout.ChunkBits)
	if err != nil {
		return nil, err
	}
	balanceRange, err := rangeproof.ProveBatch(newAmount.Values, newRandomness,
		ristretto.G(), ristretto.H(), layout.ChunkBits)
	if err != nil {
		return nil, err
	}
	return &TransferAuthorization{
		SigmaProof:        sigma.Serialize(),
		AmountRangeProof:  amountRange,
		BalanceRangeProof: balanceRange,
		NewBalance:        newAmount.Ciphertexts,
		SenderAmount:      transferAmount.Ciphertexts,
		RecipientAmount:   recipientAmount,
		AuditorAmounts:    auditorAmounts,
	}, nil
}

// VerifyTransfer checks a transfer authorization against the sender's
// current balance and the keys involved. The auditor key list must match
// the one the sender used, in order.
func VerifyTransfer(senderEK, recipientEK *twistedelgamal.EncryptionKey,
	auditorEKs []*twistedelgamal.EncryptionKey,
	currentBalance []*twistedelgamal.Ciphertext,
	auth *TransferAuthorization, layout params.Layout,
) error {
	sigma, err := sigmaproofs.DeserializeTransferProof(auth.SigmaProof, layout)
	if err != nil {
		return err
	}
	stmt := &sigmaproofs.TransferStatement{
		Layout:          layout,
		SenderEK:        senderEK,
		RecipientEK:     recipientEK,
		AuditorEKs:      auditorEKs,
		CurrentBalance:  currentBalance,
		NewBalance:      auth.NewBalance,
		SenderAmount:    auth.SenderAmount,
		RecipientAmount: auth.RecipientAmount,
		AuditorAmounts:  auth.AuditorAmounts,
	}
	if err := sigmaproofs.VerifyTransfer(stmt, sigma); err != nil {
		return err
	}
	if err := rangeproof.VerifyBatch(auth.AmountRangeProof, rangeCommitments(auth.SenderAmount),
		ristretto.G(), ristretto.H(), layout.ChunkBits); err != nil {
		return err
	}
	return rangeproof.VerifyBatch(auth.BalanceRangeProof, rangeCommitments(auth.NewBalance),
		ristretto.G(), ristretto.H(), layout.ChunkBits)
}
