package symbols

// SymbolID identifies a symbol inside a Table.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// ScopeIndex numbers lexical scopes in the order they were opened; the unit
// scope is 0.
type ScopeIndex uint32
