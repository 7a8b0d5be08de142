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

// NormalizationAuthorization is the bundle a normalization submits: the
// Sigma proof, the range proof over the renormalized chunks and the fresh
// ciphertexts with every chunk back inside the chunk width.
type NormalizationAuthorization struct {
	SigmaProof types.HexBytes               `json:"sigmaProof"`
	RangeProof types.HexBytes               `json:"rangeProof"`
	Normalized []*twistedelgamal.Ciphertext `json:"normalized"`
}

// AuthorizeNormalize rebuilds a balance whose chunks overflowed their width
// through homomorphic additions. The caller supplies the true total, which
// it knows from decrypting the unnormalized chunks; the proof binds the
// fresh ciphertexts to exactly that total.
func AuthorizeNormalize(dk *twistedelgamal.DecryptionKey, currentBalance []*twistedelgamal.Ciphertext,
	trueTotal *uint256.Int, layout params.Layout,
) (*NormalizationAuthorization, error) {
	ek, err := dk.EncryptionKey()
	if err != nil {
		return nil, err
	}
	amount, err := twistedelgamal.SplitBalance(trueTotal, layout)
	if err != nil {
		return nil, err
	}
	randomness, err := ristretto.RandomScalars(layout.Chunks)
	if err != nil {
		return nil, err
	}
	if err := amount.Encrypt(ek, randomness); err != nil {
		return nil, err
	}

	stmt := &sigmaproofs.NormalizationStatement{
		Layout:     layout,
		EK:         ek,
		Current:    currentBalance,
		Normalized: amount.Ciphertexts,
	}
	sigma, err := sigmaproofs.ProveNormalization(stmt, &sigmaproofs.NormalizationWitness{
		DK:         dk,
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
	return &NormalizationAuthorization{
		SigmaProof: sigma.Serialize(),
		RangeProof: rp,
		Normalized: amount.Ciphertexts,
	}, nil
}

// DecryptUnnormalized recovers the true total of an unnormalized balance.
// Overflowed chunks hold values past the chunk width, so their recovery
// escalates to the wider kangaroo tables; the weighted recombination of
// the raw chunk values is the true total.
func DecryptUnnormalized(dk *twistedelgamal.DecryptionKey, cts []*twistedelgamal.Ciphertext,
	layout params.Layout,
) (*uint256.Int, error) {
	values, err := twistedelgamal.DecryptChunkValues(cts, dk)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt unnormalized balance: %w", err)
	}
	return twistedelgamal.JoinChunkValues(values, layout.ChunkBits), nil
}

// VerifyNormalization checks a normalization authorization against the
// unnormalized ciphertexts.
func VerifyNormalization(ek *twistedelgamal.EncryptionKey, currentBalance []*twistedelgamal.Ciphertext,
	auth *NormalizationAuthorization, layout params.Layout,
) error {
	sigma, err := sigmaproofs.DeserializeNormalizationProof(auth.SigmaProof, layout)
	if err != nil {
		return err
	}
	stmt := &sigmaproofs.NormalizationStatement{
		Layout:     layout,
		EK:         ek,
		Current:    currentBalance,
		Normalized: auth.Normalized,
	}
	if err := sigmaproofs.VerifyNormalization(stmt, sigma); err != nil {
		return err
	}
	return rangeproof.VerifyBatch(auth.RangeProof, rangeCommitments(auth.Normalized),
		ristretto.G(), ristretto.H(), layout.ChunkBits)
}
