package kangaroo

import (
	"fmt"
	"time"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/crypto/ristretto"
	"github.com/vocdoni/confidential-asset/log"
)

// GenParams tune table generation for one bit width.
type GenParams struct {
	Bits     uint8  // solvable range [0, 2^Bits)
	Window   uint64 // distinguishing window, power of two
	MeanJump uint64 // average jump distance
	Jumps    int    // size of the jump set
}

// DefaultGenParams returns the generation parameters used for the standard
// 16, 32 and 48-bit tables. The window and mean jump are balanced so that a
// wild walk meets the tame path well within its 8*Window jump budget.
func DefaultGenParams(bits uint8) (GenParams, error) {
	switch bits {
	case 16:
		return GenParams{Bits: 16, Window: 1 << 5, MeanJump: 1 << 6, Jumps: 64}, nil
	case 32:
		return GenParams{Bits: 32, Window: 1 << 13, MeanJump: 1 << 14, Jumps: 64}, nil
	case 48:
		return GenParams{Bits: 48, Window: 1 << 18, MeanJump: 1 << 20, Jumps: 64}, nil
	default:
		return GenParams{}, fmt.Errorf("%w: no default parameters for %d bits", ErrBadTable, bits)
	}
}

// GenerateTable builds a table by running a single tame walk from the
// identity past the end of the solvable range, recording every
// distinguished point with its distance. Generation of the 48-bit table
// takes a few hundred million group operations and is meant to run offline;
// see the tables command of confidential-cli.
func GenerateTable(p GenParams) (*Table, error) {
	if p.Bits == 0 || p.Bits > 63 {
		return nil, fmt.Errorf("%w: unsupported bit width %d", ErrBadTable, p.Bits)
	}
	if p.Window == 0 || p.Window&(p.Window-1) != 0 {
		return nil, fmt.Errorf("%w: window %d is not a power of two", ErrBadTable, p.Window)
	}
	if p.MeanJump == 0 || p.Jumps <= 0 {
		return nil, fmt.Errorf("%w: mean jump and jump count must be positive", ErrBadTable)
	}
	defer log.TimeTrack(time.Now(), fmt.Sprintf("kangaroo-table-%d", p.Bits))

	slog := make([]uint64, p.Jumps)
	jumps := make([]*ristretto255.Element, p.Jumps)
	for j := range slog {
		// increments spread over [MeanJump/2, 3*MeanJump/2)
		off, err := randUint64(p.MeanJump)
		if err != nil {
			return nil, err
		}
		slog[j] = max(p.MeanJump/2+off, 1)
		jumps[j] = ristretto.NewElement().ScalarBaseMult(ristretto.ScalarFromUint64(slog[j]))
	}
	t := &Table{
		Bits:     p.Bits,
		Window:   p.Window,
		MeanJump: p.MeanJump,
		SLog:     slog,
		Entries:  make(map[[32]byte]uint64),
	}

	// The tame walk must outrun every wild start (2^Bits plus the wild
	// offset) by the wild walk's own travel budget, so that a merged wild
	// path always finds a recorded distinguished point ahead of it.
	limit := uint64(1)<<p.Bits + uint64(1)<<(p.Bits-min(p.Bits, 8)) + 16*p.Window*p.MeanJump

	w := ristretto.NewElement() // identity: distance zero
	var dist uint64
	var enc [32]byte
	for dist < limit {
		copy(enc[:], w.Bytes())
		if t.distinguished(&enc) {
			if _, seen := t.Entries[enc]; !seen {
				t.Entries[enc] = dist
			}
		}
		j := t.jumpIndex(&enc)
		dist += slog[j]
		w.Add(w, jumps[j])
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	log.Debugw("kangaroo table generated", "bits", p.Bits, "entries", len(t.Entries), "jumps", p.Jumps)
	return t, nil
}
