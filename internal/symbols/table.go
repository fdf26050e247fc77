package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"forscape/internal/source"
)

// Hints provide optional capacity suggestions for the table.
type Hints struct{ Segments, Symbols, Usages uint }

// Table is the flat symbol table of one compilation unit: the ordered
// scope segments, the symbols and every usage in source order.
type Table struct {
	Segments []ScopeSegment
	Symbols  *Symbols
	Usages   []Usage
	Strings  *source.Interner
}

// NewTable builds an empty table. If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Segments: make([]ScopeSegment, 0, h.Segments),
		Symbols:  NewSymbols(symCap),
		Usages:   make([]Usage, 0, h.Usages),
		Strings:  strings,
	}
}

// Symbol returns the symbol for id or nil.
func (t *Table) Symbol(id SymbolID) *Symbol {
	return t.Symbols.Get(id)
}

// Name returns the spelling of a symbol's name.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return fmt.Sprintf("<sym#%d>", id)
	}
	name, ok := t.Strings.Lookup(sym.Name)
	if !ok {
		return fmt.Sprintf("<sym#%d>", id)
	}
	return name
}

// SegmentUsages returns the usages covered by segment i.
func (t *Table) SegmentUsages(i int) []Usage {
	seg := &t.Segments[i]
	return t.Usages[seg.UsageBegin:seg.UsageEnd]
}

// ResetStorage forgets every resolved location so the table can be resolved again.
func (t *Table) ResetStorage() {
	for i := range t.Symbols.data {
		t.Symbols.data[i].Storage = Storage{}
	}
}
