package sigmaproofs

import (
	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/transcript"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/types/params"
)

// NormalizationStatement is the public view of a normalization: the
// unnormalized ciphertexts, whose chunks may have grown past the chunk
// width through homomorphic additions, and the fresh ciphertexts with the
// chunks back in range. Both encrypt the same total under the same key.
type NormalizationStatement struct {
	Layout     params.Layout
	EK         *twistedelgamal.EncryptionKey
	Current    []*twistedelgamal.Ciphertext
	Normalized []*twistedelgamal.Ciphertext
}

// NormalizationWitness holds the prover secrets: the decryption key, the
// true total in normalized chunked form and the randomness of the new
// ciphertexts.
type NormalizationWitness struct {
	DK         *twistedelgamal.DecryptionKey
	Amount     *twistedelgamal.ChunkedAmount
	Randomness []*ristretto255.Scalar
}

// NormalizationProof is the Sigma proof of a normalization. The protocol
// is a withdrawal of amount zero under its own domain-separation tag: the
// new ciphertexts open to exactly the amount the old ones hold, and the
// range proof over the new chunks is what restores the width invariant.
type NormalizationProof struct {
	openingProof
}

// ProveNormalization builds the Sigma proof for a normalization statement.
func ProveNormalization(stmt *NormalizationStatement, wit *NormalizationWitness) (*NormalizationProof, error) {
	body, err := proveOpening(transcript.NormalizationDST, stmt.Layout, stmt.EK,
		stmt.Current, stmt.Normalized, ristretto255.NewScalar(),
		&WithdrawWitness{DK: wit.DK, NewAmount: wit.Amount, Randomness: wit.Randomness})
	if err != nil {
		return nil, err
	}
	return &NormalizationProof{openingProof: *body}, nil
}

// VerifyNormalization checks a normalization proof against its statement.
func VerifyNormalization(stmt *NormalizationStatement, proof *NormalizationProof) error {
	return verifyOpening(transcript.NormalizationDST, stmt.Layout, stmt.EK,
		stmt.Current, stmt.Normalized, ristretto255.NewScalar(), &proof.openingProof)
}

// DeserializeNormalizationProof decodes normalization proof bytes for a
// layout, enforcing the exact expected size.
func DeserializeNormalizationProof(data []byte, layout params.Layout) (*NormalizationProof, error) {
	body, err := deserializeOpening(data, layout)
	if err != nil {
		return nil, err
	}
	return &NormalizationProof{openingProof: *body}, nil
}
