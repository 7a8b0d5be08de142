package transcript

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
)

func TestChallengeDeterminism(t *testing.T) {
	c := qt.New(t)

	build := func() *Transcript {
		tr := New(WithdrawalDST)
		tr.AppendElements(ristretto.G(), ristretto.H())
		tr.AppendScalar(ristretto.ScalarFromUint64(42))
		tr.AppendBytes([]byte("payload"))
		return tr
	}
	c.Assert(build().Challenge().Equal(build().Challenge()), qt.Equals, 1)
}

func TestChallengeOrderMatters(t *testing.T) {
	c := qt.New(t)

	a := New(WithdrawalDST)
	a.AppendElement(ristretto.G())
	a.AppendElement(ristretto.H())

	b := New(WithdrawalDST)
	b.AppendElement(ristretto.H())
	b.AppendElement(ristretto.G())

	c.Assert(a.Challenge().Equal(b.Challenge()), qt.Equals, 0)
}

func TestDomainSeparation(t *testing.T) {
	c := qt.New(t)

	dsts := []string{WithdrawalDST, TransferDST, RotationDST, NormalizationDST}
	challenges := make(map[string]bool)
	for _, dst := range dsts {
		tr := New(dst)
		tr.AppendElement(ristretto.G())
		challenges[string(tr.Challenge().Bytes())] = true
	}
	// the same view under different tags yields different challenges
	c.Assert(challenges, qt.HasLen, len(dsts))
}

func TestChallengeNotZero(t *testing.T) {
	c := qt.New(t)

	tr := New(TransferDST)
	tr.AppendBytes(nil)
	c.Assert(tr.Challenge().Equal(ristretto.NewScalar()), qt.Equals, 0)
}
