package params

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLayouts(t *testing.T) {
	c := qt.New(t)

	c.Assert(DefaultLayout.Valid(), qt.IsTrue)
	c.Assert(WideLayout.Valid(), qt.IsTrue)
	c.Assert(Layout{Chunks: 3, ChunkBits: 32}.Valid(), qt.IsFalse)
	c.Assert(Layout{Chunks: 8, ChunkBits: 32}.Valid(), qt.IsFalse)

	c.Assert(DefaultLayout.TotalBits(), qt.Equals, uint(128))
	c.Assert(WideLayout.TotalBits(), qt.Equals, uint(128))
	c.Assert(DefaultLayout.TransferChunks(), qt.Equals, 2)
	c.Assert(WideLayout.TransferChunks(), qt.Equals, 4)
}

func TestProofSizes(t *testing.T) {
	c := qt.New(t)

	// the fixed wire sizes hold for the default layout
	c.Assert(DefaultLayout.WithdrawProofLen(), qt.Equals, SigmaProofWithdrawSize)
	c.Assert(DefaultLayout.TransferProofLen(0), qt.Equals, SigmaProofTransferSize)
	c.Assert(DefaultLayout.RotationProofLen(), qt.Equals, SigmaProofKeyRotationSize)
	c.Assert(DefaultLayout.NormalizationProofLen(), qt.Equals, SigmaProofNormalizationSize)

	c.Assert(SigmaProofWithdrawSize, qt.Equals, 672)
	c.Assert(SigmaProofTransferSize, qt.Equals, 1056)
	c.Assert(SigmaProofKeyRotationSize, qt.Equals, 736)
	c.Assert(SigmaProofNormalizationSize, qt.Equals, 672)

	// every auditor adds four proof chunks
	for auditors := 1; auditors <= 4; auditors++ {
		c.Assert(DefaultLayout.TransferProofLen(auditors), qt.Equals,
			SigmaProofTransferSize+auditors*4*ProofChunkSize)
	}

	// the wide layout is not proof-compatible
	c.Assert(WideLayout.WithdrawProofLen(), qt.Not(qt.Equals), SigmaProofWithdrawSize)
}
