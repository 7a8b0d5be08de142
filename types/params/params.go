// Package params holds the chunk-layout parameters of the confidential
// balance scheme. A layout fixes how a 128-bit balance is split into
// per-chunk ciphertexts and therefore the exact byte size of every Sigma
// proof. Two generations of constants exist; they are not proof-compatible
// and must never be mixed within a deployment.
package params

import "fmt"

const (
	// ProofChunkSize is the serialized size of every scalar and group
	// element inside a Sigma proof.
	ProofChunkSize = 32

	// CiphertextSize is the serialized size of a twisted-ElGamal
	// ciphertext (two compressed Ristretto255 points).
	CiphertextSize = 64
)

// Layout describes how a balance is chunked. Chunks*ChunkBits must cover the
// full 128-bit balance range, and the transfer amount always uses half the
// balance chunk count.
type Layout struct {
	Chunks    int  // number of balance chunks
	ChunkBits uint // bit width of each chunk
}

// DefaultLayout is the deployed layout: 4 chunks of 32 bits. It is the only
// layout compatible with the fixed Sigma proof sizes below.
var DefaultLayout = Layout{Chunks: 4, ChunkBits: 32}

// WideLayout is the successor layout with 8 chunks of 16 bits. Proofs built
// with it have different sizes and are rejected by verifiers configured for
// DefaultLayout.
var WideLayout = Layout{Chunks: 8, ChunkBits: 16}

// Sigma proof sizes for DefaultLayout, in bytes. These values are part of
// the wire format.
const (
	SigmaProofWithdrawSize      = 21 * ProofChunkSize // 672
	SigmaProofTransferSize      = 33 * ProofChunkSize // 1056, plus 4*32 per auditor
	SigmaProofKeyRotationSize   = 23 * ProofChunkSize // 736
	SigmaProofNormalizationSize = 21 * ProofChunkSize // 672
)

// Valid reports whether the layout is one of the two supported generations.
func (l Layout) Valid() bool {
	return (l.Chunks == 4 && l.ChunkBits == 32) || (l.Chunks == 8 && l.ChunkBits == 16)
}

// TransferChunks returns the number of chunks used for transfer amounts
// (half the balance chunk count, covering 64-bit values).
func (l Layout) TransferChunks() int {
	return l.Chunks / 2
}

// TotalBits returns the number of bits covered by the full chunk vector.
func (l Layout) TotalBits() uint {
	return uint(l.Chunks) * l.ChunkBits
}

// WithdrawProofLen returns the serialized Sigma withdrawal proof size for
// this layout: 3+2N scalars and 2+2N commitments.
func (l Layout) WithdrawProofLen() int {
	return (5 + 4*l.Chunks) * ProofChunkSize
}

// TransferProofLen returns the serialized Sigma transfer proof size for this
// layout and auditor count: 4+2h+2N scalars and 3+3h+2N commitments, plus h
// responses and h commitments per auditor, where h is the transfer chunk
// count.
func (l Layout) TransferProofLen(auditors int) int {
	h := l.TransferChunks()
	base := (7 + 5*h + 4*l.Chunks) * ProofChunkSize
	return base + auditors*2*h*ProofChunkSize
}

// RotationProofLen returns the serialized Sigma key-rotation proof size for
// this layout: 4+2N scalars and 3+2N commitments.
func (l Layout) RotationProofLen() int {
	return (7 + 4*l.Chunks) * ProofChunkSize
}

// NormalizationProofLen returns the serialized Sigma normalization proof
// size for this layout. It is structurally a withdrawal of amount zero.
func (l Layout) NormalizationProofLen() int {
	return l.WithdrawProofLen()
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return fmt.Sprintf("%dx%d", l.Chunks, l.ChunkBits)
}
