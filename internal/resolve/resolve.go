// Package resolve assigns storage to every variable of a unit and rewrites
// the AST accordingly.
//
// It walks the scope segments of a symbols.Table once. Variables read from
// a closure other than the declaring one become cells of a closure frame;
// top-level variables become globals; everything else is a stack slot
// addressed relative to the top of the stack. Each closure-defining node
// receives the list of cells it captures.
//
// Input comes from a validated table; an inconsistency is a compiler
// defect and panics.
package resolve

import (
	"context"
	"fmt"
	"strconv"

	"forscape/internal/ast"
	"forscape/internal/symbols"
	"forscape/internal/trace"
)

// Stats summarises one resolution.
type Stats struct {
	Globals  int
	Locals   int
	Upvalues int // cell declarations
	Captures int // capture list entries over all closures
	Closures int
	MaxStack int
}

type resolver struct {
	table *symbols.Table
	tree  *ast.Tree

	frames      []*frame
	checkpoints []uint32
	// opened[i] reports whether the i-th open scope pushed a frame
	opened    []bool
	stackSize uint32

	stats  Stats
	tracer trace.Tracer
	parent uint64
}

// Resolve assigns storage to the symbols of table and rewrites tree.
// The table must satisfy (*symbols.Table).Validate and must not have been
// resolved before; call ResetStorage on a rebuilt tree's table otherwise.
func Resolve(ctx context.Context, table *symbols.Table, tree *ast.Tree) Stats {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "resolve", trace.ParentFromContext(ctx))

	r := &resolver{
		table:  table,
		tree:   tree,
		tracer: tracer,
		parent: span.ID(),
	}
	for i := range table.Segments {
		r.segment(&table.Segments[i])
	}
	r.finish()

	span.WithExtra("closures", strconv.Itoa(r.stats.Closures)).
		WithExtra("upvalues", strconv.Itoa(r.stats.Upvalues)).
		WithExtra("max_stack", strconv.Itoa(r.stats.MaxStack))
	span.End("")
	return r.stats
}

func (r *resolver) segment(seg *symbols.ScopeSegment) {
	if seg.Start {
		r.enter(seg.Closure)
	}
	for _, u := range r.table.Usages[seg.UsageBegin:seg.UsageEnd] {
		switch u.Kind {
		case symbols.UsageDeclare:
			r.declare(u)
		case symbols.UsageRead:
			r.read(u)
		default:
			internalf("usage of %s has kind %d", r.table.Name(u.Symbol), u.Kind)
		}
	}
	if seg.End {
		r.leave()
	}
}

func (r *resolver) enter(closure ast.NodeID) {
	isClosure := closure.IsValid()
	if isClosure {
		r.frames = append(r.frames, newFrame(closure))
	}
	r.opened = append(r.opened, isClosure)
	r.checkpoints = append(r.checkpoints, r.stackSize)
}

func (r *resolver) leave() {
	if len(r.opened) == 0 || len(r.checkpoints) == 0 {
		internalf("scope end without matching start")
	}
	isClosure := r.opened[len(r.opened)-1]
	r.opened = r.opened[:len(r.opened)-1]
	if isClosure {
		r.closeFrame()
	}
	r.stackSize = r.checkpoints[len(r.checkpoints)-1]
	r.checkpoints = r.checkpoints[:len(r.checkpoints)-1]
}

func (r *resolver) declare(u symbols.Usage) {
	sym := r.symbol(u.Symbol)
	if sym.Storage.Kind != symbols.StorageUnresolved {
		internalf("%s declared twice (already %s)", r.table.Name(u.Symbol), sym.Storage)
	}

	if sym.NeedsCell() {
		if len(r.frames) == 0 || int(sym.DeclClosureDepth) != len(r.frames) {
			internalf("cell %s declared at closure depth %d with %d open closure(s)",
				r.table.Name(u.Symbol), sym.DeclClosureDepth, len(r.frames))
		}
		top := r.frames[len(r.frames)-1]
		if _, ok := top.lookup(u.Symbol); ok {
			internalf("cell %s captured before its declaration", r.table.Name(u.Symbol))
		}
		slot := top.ensure(u.Symbol)
		r.tree.SetOp(u.Node, ast.OpReadUpvalue)
		r.tree.SetClosureIndex(u.Node, slot)
		sym.Storage = symbols.Storage{Kind: symbols.StorageUpvalue, Index: slot}
		r.stats.Upvalues++
		return
	}

	slot := r.stackSize
	r.stackSize++
	if int(r.stackSize) > r.stats.MaxStack {
		r.stats.MaxStack = int(r.stackSize)
	}
	if sym.DeclClosureDepth == 0 {
		sym.Storage = symbols.Storage{Kind: symbols.StorageGlobal, Index: slot}
		r.tree.SetGlobalIndex(u.Node, slot)
		r.stats.Globals++
		return
	}
	sym.Storage = symbols.Storage{Kind: symbols.StorageLocal, Index: slot}
	r.stats.Locals++
}

func (r *resolver) read(u symbols.Usage) {
	sym := r.symbol(u.Symbol)

	switch {
	case sym.ClosureNested:
		depth := int(sym.DeclClosureDepth)
		if depth == 0 || depth > len(r.frames) {
			internalf("%s read at closure depth %d but declared at depth %d",
				r.table.Name(u.Symbol), len(r.frames), depth)
		}
		// every closure between the declaring one and the reader captures it
		for i := depth; i < len(r.frames); i++ {
			r.frames[i].ensure(u.Symbol)
		}
		slot, ok := r.frames[len(r.frames)-1].lookup(u.Symbol)
		if !ok {
			internalf("%s missing from innermost closure", r.table.Name(u.Symbol))
		}
		r.tree.SetOp(u.Node, ast.OpReadUpvalue)
		r.tree.SetClosureIndex(u.Node, slot)

	case sym.DeclClosureDepth == 0:
		if sym.Storage.Kind != symbols.StorageGlobal {
			internalf("global %s has storage %s", r.table.Name(u.Symbol), sym.Storage)
		}
		r.tree.SetOp(u.Node, ast.OpReadGlobal)
		r.tree.SetGlobalIndex(u.Node, sym.Storage.Index)

	default:
		if sym.Storage.Kind != symbols.StorageLocal {
			internalf("local %s has storage %s", r.table.Name(u.Symbol), sym.Storage)
		}
		if sym.Storage.Index >= r.stackSize {
			internalf("local %s slot %d above stack size %d", r.table.Name(u.Symbol), sym.Storage.Index, r.stackSize)
		}
		r.tree.SetStackOffset(u.Node, r.stackSize-1-sym.Storage.Index)
	}
}

// closeFrame attaches the capture list to the closure node and pops the frame.
func (r *resolver) closeFrame() {
	depth := len(r.frames)
	f := r.frames[depth-1]
	r.frames = r.frames[:depth-1]

	op := r.tree.Op(f.closure)
	arg, ok := ast.UpvaluesArg(op)
	if !ok {
		internalf("closure node %d has non-closure op %s", f.closure, op)
	}

	list := r.tree.NewList()
	for slot, id := range f.entries {
		sym := r.symbol(id)
		first := sym.FirstOccurrence()
		entryOp := ast.OpReadUpvalue
		if int(sym.DeclClosureDepth) == depth-1 {
			// a cell of the enclosing closure itself
			entryOp = ast.OpIdentifier
		}
		n := r.tree.AddTerminal(entryOp, r.tree.Span(first))
		r.tree.SetSym(n, uint32(id))
		r.tree.SetClosureIndex(n, uint32(slot)) //nolint:gosec // bounded by frame.ensure
		list.Add(n)
	}
	r.tree.SetArg(f.closure, arg, list.Finalize(r.tree.Span(f.closure)))

	r.stats.Closures++
	r.stats.Captures += f.len()
	trace.Point(r.tracer, trace.ScopeNode, "closure",
		fmt.Sprintf("%s#%d captures=%d", op, f.closure, f.len()), r.parent)
}

func (r *resolver) finish() {
	if len(r.frames) != 0 || len(r.checkpoints) != 0 || len(r.opened) != 0 {
		internalf("%d closure(s) and %d scope(s) left open", len(r.frames), len(r.checkpoints))
	}
}

func (r *resolver) symbol(id symbols.SymbolID) *symbols.Symbol {
	sym := r.table.Symbol(id)
	if sym == nil {
		internalf("unknown symbol %d", id)
	}
	return sym
}

func internalf(format string, args ...any) {
	panic(fmt.Errorf("resolve: internal error: "+format, args...))
}
