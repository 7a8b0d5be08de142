package confidential

import (
	"fmt"

	"github.com/vocdoni/confidential-asset/crypto/rangeproof"
	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/crypto/sigmaproofs"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types"
	"github.com/vocdoni/confidential-asset/types/params"
)

// RotationAuthorization is the bundle a key rotation submits: the Sigma
// proof, the range proof over the re-encrypted balance chunks and the
// balance ciphertexts under the new key.
type RotationAuthorization struct {
	SigmaProof types.HexBytes               `json:"sigmaProof"`
	RangeProof types.HexBytes               `json:"rangeProof"`
	NewBalance []*twistedelgamal.Ciphertext `json:"newBalance"`
}

// AuthorizeRotate re-encrypts the balance under a new key pair and proves
// the amount unchanged.
func AuthorizeRotate(currentDK, newDK *twistedelgamal.DecryptionKey,
	currentBalance []*twistedelgamal.Ciphertext, layout params.Layout,
) (*RotationAuthorization, error) {
	currentEK, err := currentDK.EncryptionKey()
	if err != nil {
		return nil, err
	}
	newEK, err := newDK.EncryptionKey()
	if err != nil {
		return nil, err
	}
	balance, err := twistedelgamal.DecryptBalance(currentBalance, currentDK, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt current balance: %w", err)
	}
	amount, err := twistedelgamal.SplitBalance(balance, layout)
	if err != nil {
		return nil, err
	}
	randomness, err := ristretto.RandomScalars(layout.Chunks)
	if err != nil {
		return nil, err
	}
	if err := amount.Encrypt(newEK, randomness); err != nil {
		return nil, err
	}

	stmt := &sigmaproofs.RotationStatement{
		Layout:         layout,
		CurrentEK:      currentEK,
		NewEK:          newEK,
		CurrentBalance: currentBalance,
		NewBalance:     amount.Ciphertexts,
	}
	sigma, err := sigmaproofs.ProveRotation(stmt, &sigmaproofs.RotationWitness{
		CurrentDK:  currentDK,
		NewDK:      newDK,
		Amount:     amount,
		Randomness: randomness,
	})
	if err != nil {
		return nil, err
	}
	rp, err := rangeproof.ProveBatch(amount.Values, randomness, ristretto.G(), ristretto.H(), layout.ChunkBits)
	if err != nil {
		return nil, err
	}
	return &RotationAuthorization{
		SigmaProof: sigma.Serialize(),
		RangeProof: rp,
		NewBalance: amount.Ciphertexts,
	}, nil
}

// VerifyRotation checks a key rotation authorization against the balance
// ciphertexts under the current key and both encryption keys.
func VerifyRotation(currentEK, newEK *twistedelgamal.EncryptionKey,
	currentBalance []*twistedelgamal.Ciphertext,
	auth *RotationAuthorization, layout params.Layout,
) error {
	sigma, err := sigmaproofs.DeserializeRotationProof(auth.SigmaProof, layout)
	if err != nil {
		return err
	}
	stmt := &sigmaproofs.RotationStatement{
		Layout:         layout,
		CurrentEK:      currentEK,
		NewEK:          newEK,
		CurrentBalance: currentBalance,
		NewBalance:     auth.NewBalance,
	}
	if err := sigmaproofs.VerifyRotation(stmt, sigma); err != nil {
		return err
	}
	return rangeproof.VerifyBatch(auth.RangeProof, rangeCommitments(auth.NewBalance),
		ristretto.G(), ristretto.H(), layout.ChunkBits)
}
