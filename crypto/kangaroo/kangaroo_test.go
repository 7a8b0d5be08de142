package kangaroo

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/util"
)

var (
	table16 *Table
	table32 *Table
)

func TestMain(m *testing.M) {
	flag.Parse()
	p16, err := DefaultGenParams(16)
	if err != nil {
		panic(err)
	}
	table16, err = GenerateTable(p16)
	if err != nil {
		panic(err)
	}
	if !testing.Short() {
		p32, err := DefaultGenParams(32)
		if err != nil {
			panic(err)
		}
		table32, err = GenerateTable(p32)
		if err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

func target(v uint64) *ristretto255.Element {
	return ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(v))
}

func TestSolve16(t *testing.T) {
	c := qt.New(t)

	// zero resolves without a walk
	v, found, err := table16.Solve(ristretto.NewElement())
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsTrue)
	c.Assert(v, qt.Equals, uint64(0))

	// boundaries
	for _, want := range []uint64{1, 2, 1<<16 - 1} {
		v, found, err := table16.Solve(target(want))
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue, qt.Commentf("value %d", want))
		c.Assert(v, qt.Equals, want)
	}

	// uniform sample over the full range
	for i := 0; i < 32; i++ {
		want := util.RandomUint64(1 << 16)
		v, found, err := table16.Solve(target(want))
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue, qt.Commentf("value %d", want))
		c.Assert(v, qt.Equals, want)
	}
}

func TestSolve32(t *testing.T) {
	if testing.Short() {
		t.Skip("32-bit walks take a while")
	}
	c := qt.New(t)

	for _, want := range []uint64{1 << 16, 1<<16 + 100, 1 << 31, 1<<32 - 1, util.RandomUint64(1 << 32)} {
		v, found, err := table32.Solve(target(want))
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue, qt.Commentf("value %d", want))
		c.Assert(v, qt.Equals, want)
	}
}

func TestSolve48(t *testing.T) {
	// building the 48-bit table walks ~2^28 group operations; opt in with
	// KANGAROO_TEST_48=1
	if os.Getenv("KANGAROO_TEST_48") == "" {
		t.Skip("set KANGAROO_TEST_48=1 to exercise the 48-bit table")
	}
	c := qt.New(t)

	p48, err := DefaultGenParams(48)
	c.Assert(err, qt.IsNil)
	table48, err := GenerateTable(p48)
	c.Assert(err, qt.IsNil)

	for _, want := range []uint64{1 << 32, 1<<48 - 1, util.RandomUint64(1 << 48)} {
		v, found, err := table48.Solve(target(want))
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue, qt.Commentf("value %d", want))
		c.Assert(v, qt.Equals, want)
	}
}

func TestSolveOutOfRange(t *testing.T) {
	c := qt.New(t)

	// a 20-bit value is out of reach for the 16-bit table
	_, found, err := table16.Solve(target(1 << 20))
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsFalse)
}

func TestRegistryCascade(t *testing.T) {
	c := qt.New(t)
	defer Reset()
	Reset()

	c.Assert(Register(table16), qt.IsNil)
	if table32 != nil {
		c.Assert(Register(table32), qt.IsNil)
	}

	// duplicate bit widths are rejected
	err := Register(table16)
	c.Assert(err, qt.ErrorIs, ErrBadTable)

	// a 16-bit value resolves with the first table
	v, err := Solve(target(12345))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(12345))

	// registration is frozen after the first solve
	err = Register(table16)
	c.Assert(err, qt.ErrorIs, ErrBadTable)

	// cache: the same point resolves again immediately
	v, err = Solve(target(12345))
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(12345))

	if !testing.Short() {
		// escalation to the 32-bit table
		v, err = Solve(target(1<<16 + 100))
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, uint64(1<<16+100))
	}
}

func TestRegistryEmpty(t *testing.T) {
	c := qt.New(t)
	defer Reset()
	Reset()

	_, err := Solve(target(7))
	c.Assert(err, qt.ErrorIs, ErrDecryptionFailed)
}

func TestRegistryExhausted(t *testing.T) {
	c := qt.New(t)
	defer Reset()
	Reset()

	c.Assert(Register(table16), qt.IsNil)
	_, err := Solve(target(1 << 20))
	c.Assert(err, qt.ErrorIs, ErrDecryptionFailed)
}

func TestTableFileRoundtrip(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "k16.cbor")
	c.Assert(table16.SaveFile(path), qt.IsNil)

	loaded, err := LoadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.Bits, qt.Equals, table16.Bits)
	c.Assert(loaded.Window, qt.Equals, table16.Window)
	c.Assert(loaded.MeanJump, qt.Equals, table16.MeanJump)
	c.Assert(loaded.SLog, qt.DeepEquals, table16.SLog)
	c.Assert(loaded.Entries, qt.DeepEquals, table16.Entries)

	// the reloaded table still solves
	want := util.RandomUint64(1 << 16)
	v, found, err := loaded.Solve(target(want))
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsTrue)
	c.Assert(v, qt.Equals, want)
}

func TestBadTables(t *testing.T) {
	c := qt.New(t)

	_, err := GenerateTable(GenParams{Bits: 0, Window: 32, MeanJump: 64, Jumps: 8})
	c.Assert(err, qt.ErrorIs, ErrBadTable)

	_, err = GenerateTable(GenParams{Bits: 16, Window: 33, MeanJump: 64, Jumps: 8})
	c.Assert(err, qt.ErrorIs, ErrBadTable)

	_, err = DefaultGenParams(24)
	c.Assert(err, qt.ErrorIs, ErrBadTable)

	_, err = UnmarshalTable([]byte("not cbor"))
	c.Assert(err, qt.ErrorIs, ErrBadTable)

	err = Register(&Table{Bits: 16, Window: 32, SLog: []uint64{1}, Entries: nil})
	c.Assert(err, qt.ErrorIs, ErrBadTable)
}
