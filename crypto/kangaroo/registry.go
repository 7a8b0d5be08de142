package kangaroo

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gtank/ristretto255"

	"github.com/vocdoni/confidential-asset/log"
)

// solvedCacheSize bounds the process-wide cache of resolved points.
// Balances are decrypted chunk by chunk and the same chunk values recur
// constantly, so a hit skips the whole walk.
const solvedCacheSize = 1 << 16

var registry = struct {
	mu     sync.RWMutex
	tables []*Table // sorted by ascending bit width
	frozen bool
	cache  *lru.Cache[[32]byte, uint64]
}{}

// Register adds a table to the process-wide registry. Registration must
// happen before the first Solve call; afterwards the registry is frozen and
// Register fails.
func Register(t *Table) error {
	if err := t.init(); err != nil {
		return err
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.frozen {
		return fmt.Errorf("%w: registry frozen after first solve", ErrBadTable)
	}
	for _, existing := range registry.tables {
		if existing.Bits == t.Bits {
			return fmt.Errorf("%w: a %d-bit table is already registered", ErrBadTable, t.Bits)
		}
	}
	registry.tables = append(registry.tables, t)
	sort.Slice(registry.tables, func(i, j int) bool {
		return registry.tables[i].Bits < registry.tables[j].Bits
	})
	log.Infow("kangaroo table registered", "bits", t.Bits, "entries", len(t.Entries))
	return nil
}

// Solve recovers v with v*G = m by cascading through the registered tables
// in increasing bit width. The first call freezes the registry; the table
// maps are read-only from then on, so solves may run concurrently.
func Solve(m *ristretto255.Element) (uint64, error) {
	registry.mu.Lock()
	if !registry.frozen {
		registry.frozen = true
		if registry.cache == nil {
			registry.cache, _ = lru.New[[32]byte, uint64](solvedCacheSize)
		}
	}
	tables := registry.tables
	cache := registry.cache
	registry.mu.Unlock()

	if len(tables) == 0 {
		return 0, fmt.Errorf("%w: no kangaroo tables registered", ErrDecryptionFailed)
	}

	var enc [32]byte
	copy(enc[:], m.Bytes())
	if v, ok := cache.Get(enc); ok {
		return v, nil
	}
	for _, t := range tables {
		v, found, err := t.Solve(m)
		if err != nil {
			return 0, err
		}
		if found {
			cache.Add(enc, v)
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: exhausted %d tables", ErrDecryptionFailed, len(tables))
}

// Reset clears the registry and unfreezes it. It exists for tests; a
// process must never reset while decryptions are in flight.
func Reset() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.tables = nil
	registry.frozen = false
	registry.cache = nil
}
