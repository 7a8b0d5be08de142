// Package kangaroo recovers small discrete logarithms over Ristretto255
// using Pollard's kangaroo method with precomputed tables. Decrypting a
// twisted-ElGamal ciphertext yields a point M = m*G; the solver finds m in
// [0, 2^k) for the registered table bit-widths, typically 16, 32 and 48.
//
// A table is built offline from a single long tame walk: a kangaroo starts
// at the identity and jumps forward by pseudo-random increments derived
// from the current point, recording every distinguished point it passes
// together with the distance travelled. Solving releases a wild kangaroo
// from M plus a random offset; both kangaroos follow the same jump
// function, so once the wild path lands on the tame path it coalesces with
// it and reaches a recorded distinguished point, revealing the logarithm.
package kangaroo

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
)

// ErrDecryptionFailed is returned when every registered table exhausts its
// retry budget without resolving the logarithm. Callers must treat it as a
// failed decryption, distinct from a recovered amount of zero.
var ErrDecryptionFailed = errors.New("discrete log not found")

// ErrBadTable is returned when table parameters are malformed.
var ErrBadTable = errors.New("malformed kangaroo table")

// maxRetries bounds the wild walks per table before escalating to the next
// larger table.
const maxRetries = 100

// Table holds the precomputed parameters of one bit-width variant.
type Table struct {
	// Bits is the solvable range: logarithms in [0, 2^Bits).
	Bits uint8
	// Window is the distinguishing window, a power of two. A point is
	// distinguished when the low bits of its encoding are zero modulo
	// Window; a walk visits one distinguished point every Window jumps on
	// average, and a wild walk gives up after 8*Window jumps.
	Window uint64
	// MeanJump is the average jump distance the SLog increments were drawn
	// around.
	MeanJump uint64
	// SLog lists the scalar jump increments. The jump points SLog[j]*G are
	// derived on load.
	SLog []uint64
	// Entries maps distinguished point encodings to the tame distance at
	// which the generation walk visited them.
	Entries map[[32]byte]uint64

	jumps []*ristretto255.Element
}

// init derives the jump points from the scalar increments.
func (t *Table) init() error {
	if t.Bits == 0 || t.Bits > 63 {
		return fmt.Errorf("%w: unsupported bit width %d", ErrBadTable, t.Bits)
	}
	if t.Window == 0 || t.Window&(t.Window-1) != 0 {
		return fmt.Errorf("%w: window %d is not a power of two", ErrBadTable, t.Window)
	}
	if len(t.SLog) == 0 {
		return fmt.Errorf("%w: empty jump set", ErrBadTable)
	}
	if len(t.Entries) == 0 {
		return fmt.Errorf("%w: empty distinguished point map", ErrBadTable)
	}
	t.jumps = make([]*ristretto255.Element, len(t.SLog))
	for j, slog := range t.SLog {
		t.jumps[j] = ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(slog))
	}
	return nil
}

// distinguished reports whether an encoded point terminates a walk segment.
func (t *Table) distinguished(enc *[32]byte) bool {
	return binary.LittleEndian.Uint64(enc[:8])&(t.Window-1) == 0
}

// jumpIndex derives the next jump from the encoded point. It reads a
// different slice of the encoding than the distinguisher so the two
// decisions stay independent.
func (t *Table) jumpIndex(enc *[32]byte) int {
	return int(binary.LittleEndian.Uint64(enc[8:16]) % uint64(len(t.SLog)))
}

// Solve searches for v with v*G = m in [0, 2^Bits). It reports found=false
// when the retry budget runs out; the caller escalates to a wider table.
func (t *Table) Solve(m *ristretto255.Element) (uint64, bool, error) {
	if m.Equal(ristretto.NewElement()) == 1 {
		return 0, true, nil
	}
	offsetMax := uint64(1) << (t.Bits - min(t.Bits, 8))
	budget := 8 * t.Window
	for retry := 0; retry < maxRetries; retry++ {
		wdist, err := randUint64(offsetMax)
		if err != nil {
			return 0, false, err
		}
		w := ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(wdist))
		w.Add(m, w)
		var enc [32]byte
		for it := uint64(0); it < budget; it++ {
			copy(enc[:], w.Bytes())
			if t.distinguished(&enc) {
				if d, ok := t.Entries[enc]; ok {
					if d >= wdist && t.check(d-wdist, m) {
						return d - wdist, true, nil
					}
					// the walk merged with a stale or colliding entry and
					// is doomed from here on, restart it
					break
				}
			}
			j := t.jumpIndex(&enc)
			wdist += t.SLog[j]
			w.Add(w, t.jumps[j])
		}
	}
	return 0, false, nil
}

// check confirms a candidate logarithm against the target point.
func (t *Table) check(v uint64, m *ristretto255.Element) bool {
	return ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(v)).Equal(m) == 1
}

// randUint64 returns a uniform value in [0, max) from the system CSPRNG.
func randUint64(max uint64) (uint64, error) {
	if max == 0 {
		return 0, nil
	}
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("failed to read random offset: %w", err)
		}
		v := binary.LittleEndian.Uint64(buf[:])
		// rejection-sample to keep the distribution uniform
		if limit := (^uint64(0) / max) * max; v < limit {
			return v % max, nil
		}
	}
}
