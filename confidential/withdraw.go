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

// WithdrawAuthorization is the bundle a withdrawal submits: the Sigma
// proof, the range proof over the new balance chunks and the new balance
// ciphertexts that replace the current ones on acceptance.
type WithdrawAuthorization struct {
	SigmaProof types.HexBytes               `json:"sigmaProof"`
	RangeProof types.HexBytes               `json:"rangeProof"`
	NewBalance []*twistedelgamal.Ciphertext `json:"newBalance"`
}

// AuthorizeWithdraw builds the authorization for withdrawing the public
// amount from the balance held in currentBalance.
func AuthorizeWithdraw(dk *twistedelgamal.DecryptionKey, currentBalance []*twistedelgamal.Ciphertext,
	amount *uint256.Int, layout params.Layout,
) (*WithdrawAuthorization, error) {
	ek, err := dk.EncryptionKey()
	if err != nil {
		return nil, err
	}
	balance, err := twistedelgamal.DecryptBalance(currentBalance, dk, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt current balance: %w", err)
	}
	if amount.Gt(balance) {
		return nil, fmt.Errorf("%w: %s < %s", ErrInsufficientBalance, balance, amount)
	}
	newAmount, err := twistedelgamal.SplitBalance(new(uint256.Int).Sub(balance, amount), layout)
	if err != nil {
		return nil, err
	}
	randomness, err := ristretto.RandomScalars(layout.Chunks)
	if err != nil {
		return nil, err
	}
	if err := newAmount.Encrypt(ek, randomness); err != nil {
		return nil, err
	}

	stmt := &sigmaproofs.WithdrawStatement{
		Layout:         layout,
		EK:             ek,
		CurrentBalance: currentBalance,
		NewBalance:     newAmount.Ciphertexts,
		Amount:         amount,
	}
	sigma, err := sigmaproofs.ProveWithdraw(stmt, &sigmaproofs.WithdrawWitness{
		DK:         dk,
		NewAmount:  newAmount,
		Randomness: randomness,
	})
	if err != nil {
		return nil, err
	}
	rp, err := rangeproof.ProveBatch(newAmount.Values, randomness, ristretto.G(), ristretto.H(), layout.ChunkBits)
	if err != nil {
		return nil, err
	}
	return &WithdrawAuthorization{
		SigmaProof: sigma.Serialize(),
		RangeProof: rp,
		NewBalance: newAmount.Ciphertexts,
	}, nil
}

// VerifyWithdraw checks a withdrawal authorization against the current
// balance ciphertexts and the public amount.
func VerifyWithdraw(ek *twistedelgamal.EncryptionKey, currentBalance []*twistedelgamal.Ciphertext,
	amount *uint256.Int, auth *WithdrawAuthorization, layout params.Layout,
) error {
	sigma, err := sigmaproofs.DeserializeWithdrawProof(auth.SigmaProof, layout)
	if err != nil {
		return err
	}
	stmt := &sigmaproofs.WithdrawStatement{
		Layout:         layout,
		EK:             ek,
		CurrentBalance: currentBalance,
		NewBalance:     auth.NewBalance,
		Amount:         amount,
	}
	if err := sigmaproofs.VerifyWithdraw(stmt, sigma); err != nil {
		return err
	}
	return rangeproof.VerifyBatch(auth.RangeProof, rangeCommitments(auth.NewBalance),
		ristretto.G(), ristretto.H(), layout.ChunkBits)
}
