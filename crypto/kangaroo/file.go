package kangaroo

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/vocdoni/confidential-asset/log"
)

// tableFile is the CBOR on-disk form of a Table. Distinguished points are
// stored as a pair list because CBOR maps cannot key on byte arrays.
type tableFile struct {
	Bits     uint8       `cbor:"1,keyasint"`
	Window   uint64      `cbor:"2,keyasint"`
	MeanJump uint64      `cbor:"3,keyasint"`
	SLog     []uint64    `cbor:"4,keyasint"`
	Entries  []tableItem `cbor:"5,keyasint"`
}

type tableItem struct {
	Point    []byte `cbor:"1,keyasint"`
	Distance uint64 `cbor:"2,keyasint"`
}

// Marshal encodes the table in its CBOR file format.
func (t *Table) Marshal() ([]byte, error) {
	tf := tableFile{
		Bits:     t.Bits,
		Window:   t.Window,
		MeanJump: t.MeanJump,
		SLog:     t.SLog,
		Entries:  make([]tableItem, 0, len(t.Entries)),
	}
	for p, d := range t.Entries {
		tf.Entries = append(tf.Entries, tableItem{Point: append([]byte{}, p[:]...), Distance: d})
	}
	return cbor.Marshal(tf)
}

// UnmarshalTable decodes a CBOR table and derives its jump points.
func UnmarshalTable(data []byte) (*Table, error) {
	var tf tableFile
	if err := cbor.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	t := &Table{
		Bits:     tf.Bits,
		Window:   tf.Window,
		MeanJump: tf.MeanJump,
		SLog:     tf.SLog,
		Entries:  make(map[[32]byte]uint64, len(tf.Entries)),
	}
	for _, item := range tf.Entries {
		if len(item.Point) != 32 {
			return nil, fmt.Errorf("%w: distinguished point of %d bytes", ErrBadTable, len(item.Point))
		}
		var p [32]byte
		copy(p[:], item.Point)
		t.Entries[p] = item.Distance
	}
	if err := t.init(); err != nil {
		return nil, err
	}
	return t, nil
}

// SaveFile writes the table to path.
func (t *Table) SaveFile(path string) error {
	data, err := t.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode kangaroo table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write kangaroo table: %w", err)
	}
	return nil
}

// LoadFile reads a table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kangaroo table: %w", err)
	}
	t, err := UnmarshalTable(data)
	if err != nil {
		return nil, err
	}
	log.Debugw("kangaroo table loaded", "path", path, "bits", t.Bits, "entries", len(t.Entries))
	return t, nil
}
