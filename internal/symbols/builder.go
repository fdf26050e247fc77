package symbols

import (
	"errors"
	"fmt"
	"math"

	"fortio.org/safecast"

	"forscape/internal/ast"
	"forscape/internal/settings"
	"forscape/internal/source"
)

// ErrUnclosedScope is returned by Finish when scopes are still open.
var ErrUnclosedScope = errors.New("symbols: unclosed scope")

type openScope struct {
	index   ScopeIndex
	closure ast.NodeID
	names   map[source.StringID]SymbolID
}

// Builder records scopes, declarations and reads in source order and
// produces a Table. The unit scope is opened by NewBuilder and closed by
// Finish.
type Builder struct {
	table        *Table
	scopes       []openScope
	closureDepth int
	nextScope    ScopeIndex
	err          error
	finished     bool
}

// NewBuilder starts a table whose names are interned in strings.
func NewBuilder(strings *source.Interner) *Builder {
	b := &Builder{table: NewTable(Hints{Segments: 16, Usages: 64}, strings)}
	b.open(ast.NoNodeID)
	return b
}

// Strings returns the interner names are spelled in.
func (b *Builder) Strings() *source.Interner { return b.table.Strings }

// ClosureDepth is the number of currently open closures.
func (b *Builder) ClosureDepth() int { return b.closureDepth }

// Scope returns the index of the innermost open scope.
func (b *Builder) Scope() ScopeIndex { return b.scopes[len(b.scopes)-1].index }

// OpenScope enters a lexical scope. A valid closure node makes the scope
// the body of that closure.
func (b *Builder) OpenScope(closure ast.NodeID) {
	b.mustBeOpen()
	b.cut()
	b.open(closure)
}

// CloseScope leaves the innermost scope opened with OpenScope.
func (b *Builder) CloseScope() {
	b.mustBeOpen()
	if len(b.scopes) == 1 {
		panic("symbols: CloseScope on the unit scope")
	}
	b.close()
	b.table.Segments = append(b.table.Segments, ScopeSegment{
		UsageBegin: len(b.table.Usages),
		UsageEnd:   len(b.table.Usages),
		Scope:      b.Scope(),
	})
}

// Declare binds name in the innermost scope, shadowing outer bindings and
// earlier bindings of the same scope.
func (b *Builder) Declare(name source.StringID, kind SymbolKind, node ast.NodeID, span source.Span) SymbolID {
	return b.declare(name, kind, node, span, false)
}

// DeclareCaptured binds a by-value capture inside the innermost closure.
func (b *Builder) DeclareCaptured(name source.StringID, node ast.NodeID, span source.Span) SymbolID {
	if b.closureDepth == 0 {
		panic("symbols: capture declared outside of a closure")
	}
	return b.declare(name, SymbolCapture, node, span, true)
}

// Read records a read of sym at node.
func (b *Builder) Read(sym SymbolID, node ast.NodeID) {
	b.mustBeOpen()
	s := b.table.Symbols.Get(sym)
	if s == nil {
		panic(fmt.Errorf("symbols: read of unknown symbol %d", sym))
	}
	if int(s.DeclClosureDepth) != b.closureDepth && s.DeclClosureDepth != 0 {
		s.ClosureNested = true
	}
	s.Occurrences = append(s.Occurrences, node)
	b.table.Usages = append(b.table.Usages, Usage{Symbol: sym, Node: node, Kind: UsageRead})
}

// Symbol returns a symbol recorded so far, or nil.
func (b *Builder) Symbol(id SymbolID) *Symbol {
	return b.table.Symbols.Get(id)
}

// Lookup finds name in the open scopes, innermost first.
func (b *Builder) Lookup(name source.StringID) (SymbolID, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if id, ok := b.scopes[i].names[name]; ok {
			return id, true
		}
	}
	return NoSymbolID, false
}

// LookupLocal finds name in the innermost scope only.
func (b *Builder) LookupLocal(name source.StringID) (SymbolID, bool) {
	id, ok := b.scopes[len(b.scopes)-1].names[name]
	return id, ok
}

// Override changes a warning level from the current position to the end
// of the innermost scope.
func (b *Builder) Override(cat settings.Category, level settings.Level) {
	b.mustBeOpen()
	seg := &b.table.Segments[len(b.table.Segments)-1]
	seg.Overrides = append(seg.Overrides, settings.Override{Category: cat, Level: level})
}

// Finish closes the unit scope and returns the table.
func (b *Builder) Finish() (*Table, error) {
	b.mustBeOpen()
	if len(b.scopes) != 1 {
		return nil, fmt.Errorf("%w: %d scope(s) still open", ErrUnclosedScope, len(b.scopes)-1)
	}
	if b.err != nil {
		return nil, b.err
	}
	b.close()
	b.finished = true
	return b.table, nil
}

func (b *Builder) declare(name source.StringID, kind SymbolKind, node ast.NodeID, span source.Span, captured bool) SymbolID {
	b.mustBeOpen()
	depth, err := safecast.Conv[uint8](b.closureDepth)
	if err != nil {
		b.fail(fmt.Errorf("closure nesting deeper than %d: %w", math.MaxUint8, err))
	}
	top := &b.scopes[len(b.scopes)-1]
	id := b.table.Symbols.New(&Symbol{
		Name:             name,
		Kind:             kind,
		Scope:            top.index,
		Span:             span,
		Captured:         captured,
		ClosureNested:    captured,
		DeclClosureDepth: depth,
		Occurrences:      []ast.NodeID{node},
	})
	top.names[name] = id
	b.table.Usages = append(b.table.Usages, Usage{Symbol: id, Node: node, Kind: UsageDeclare})
	return id
}

// cut ends the current segment at the current usage position.
func (b *Builder) cut() {
	b.table.Segments[len(b.table.Segments)-1].UsageEnd = len(b.table.Usages)
}

func (b *Builder) open(closure ast.NodeID) {
	idx := b.nextScope
	b.nextScope++
	b.scopes = append(b.scopes, openScope{
		index:   idx,
		closure: closure,
		names:   make(map[source.StringID]SymbolID),
	})
	if closure.IsValid() {
		b.closureDepth++
	}
	b.table.Segments = append(b.table.Segments, ScopeSegment{
		UsageBegin: len(b.table.Usages),
		UsageEnd:   len(b.table.Usages),
		Start:      true,
		Closure:    closure,
		Scope:      idx,
	})
}

func (b *Builder) close() {
	b.cut()
	b.table.Segments[len(b.table.Segments)-1].End = true
	top := b.scopes[len(b.scopes)-1]
	if top.closure.IsValid() {
		b.closureDepth--
	}
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) mustBeOpen() {
	if b.finished {
		panic("symbols: builder already finished")
	}
}
