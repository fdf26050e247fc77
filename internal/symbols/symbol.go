package symbols

import (
	"fmt"

	"forscape/internal/ast"
	"forscape/internal/source"
)

// SymbolKind classifies what introduced a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolLet
	SymbolParam
	SymbolAlgorithm
	// SymbolCapture is a by-value binding listed in a closure's capture clause.
	SymbolCapture
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolLet:
		return "let"
	case SymbolParam:
		return "param"
	case SymbolAlgorithm:
		return "algorithm"
	case SymbolCapture:
		return "capture"
	default:
		return "invalid"
	}
}

// IsVariable reports whether the symbol names a value binding.
func (k SymbolKind) IsVariable() bool {
	return k == SymbolLet || k == SymbolParam || k == SymbolCapture
}

// StorageKind tags where the resolver placed a variable.
type StorageKind uint8

const (
	StorageUnresolved StorageKind = iota
	StorageGlobal
	StorageLocal
	StorageUpvalue
)

func (k StorageKind) String() string {
	switch k {
	case StorageGlobal:
		return "global"
	case StorageLocal:
		return "local"
	case StorageUpvalue:
		return "upvalue"
	default:
		return "unresolved"
	}
}

// Storage is the resolved location of a variable: a global index, a stack
// slot of the enclosing frame, or a cell of the innermost closure.
type Storage struct {
	Kind  StorageKind
	Index uint32
}

func (s Storage) String() string {
	if s.Kind == StorageUnresolved {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s#%d", s.Kind, s.Index)
}

// Symbol describes one declared name.
type Symbol struct {
	Name  source.StringID
	Kind  SymbolKind
	Scope ScopeIndex
	Span  source.Span
	// ClosureNested is set when the symbol is read from a closure other than
	// the one declaring it (and it is not a global).
	ClosureNested bool
	// Captured marks by-value capture bindings.
	Captured         bool
	DeclClosureDepth uint8
	// Occurrences lists the declaration node first, then every read.
	Occurrences []ast.NodeID
	Storage     Storage
}

// NeedsCell reports whether the symbol lives in a closure cell.
func (s *Symbol) NeedsCell() bool {
	return s.ClosureNested || s.Captured
}

// FirstOccurrence returns the declaration node.
func (s *Symbol) FirstOccurrence() ast.NodeID {
	if len(s.Occurrences) == 0 {
		return ast.NoNodeID
	}
	return s.Occurrences[0]
}
