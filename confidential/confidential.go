// Package confidential assembles and verifies the authorization bundles of
// the four balance operations: withdraw, transfer, key rotation and
// normalization. An authorization pairs a Sigma proof binding the
// ciphertexts, keys and amounts with a batched range proof over the chunks
// of every freshly encrypted amount, plus the new ciphertexts themselves.
//
// Every Authorize call runs the same pipeline: decrypt the current balance
// with the kangaroo solver, chunk the amounts involved, encrypt the chunks
// under the relevant keys, produce the Sigma proof and the range proof.
// AuthorizeNormalize skips the decryption step: it takes the true total
// from the caller (see DecryptUnnormalized).
// The kangaroo tables and the range proof backend must be registered before
// the first call.
package confidential

import (
	"errors"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
)

// ErrInsufficientBalance is returned when the decrypted balance does not
// cover the requested amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// rangeCommitments extracts the commitment components of a ciphertext
// vector, which are exactly the Pedersen commitments the range proof
// oracle verifies against.
func rangeCommitments(cts []*twistedelgamal.Ciphertext) []*ristretto255.Element {
	out := make([]*ristretto255.Element, len(cts))
	for i, ct := range cts {
		out[i] = ct.C
	}
	return out
}
