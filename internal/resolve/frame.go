package resolve

import (
	"fmt"

	"fortio.org/safecast"

	"forscape/internal/ast"
	"forscape/internal/symbols"
)

// frame collects the cells of one open closure. Entries keep insertion
// order, which is also slot order, so capture lists come out deterministic.
type frame struct {
	closure ast.NodeID
	entries []symbols.SymbolID
	slots   map[symbols.SymbolID]uint32
}

func newFrame(closure ast.NodeID) *frame {
	return &frame{
		closure: closure,
		slots:   make(map[symbols.SymbolID]uint32),
	}
}

// lookup returns the slot of sym in this frame.
func (f *frame) lookup(sym symbols.SymbolID) (uint32, bool) {
	slot, ok := f.slots[sym]
	return slot, ok
}

// ensure returns the slot of sym, allocating the next one if absent.
func (f *frame) ensure(sym symbols.SymbolID) uint32 {
	if slot, ok := f.slots[sym]; ok {
		return slot
	}
	slot, err := safecast.Conv[uint32](len(f.entries))
	if err != nil {
		panic(fmt.Errorf("closure slot overflow: %w", err))
	}
	f.entries = append(f.entries, sym)
	f.slots[sym] = slot
	return slot
}

func (f *frame) len() int { return len(f.entries) }
