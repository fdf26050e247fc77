package resolve

import (
	"testing"

	"forscape/internal/ast"
	"forscape/internal/source"
	"forscape/internal/symbols"
)

// unitBuilder builds a tree and its symbol table side by side, the way the
// fixture loader does.
type unitBuilder struct {
	t    *testing.T
	tree *ast.Tree
	b    *symbols.Builder
	pos  uint32
}

func newUnit(t *testing.T) *unitBuilder {
	t.Helper()
	return &unitBuilder{t: t, tree: ast.NewTree(0), b: symbols.NewBuilder(nil)}
}

func (u *unitBuilder) span() source.Span {
	u.pos += 2
	return source.Span{Start: u.pos, End: u.pos + 1}
}

func (u *unitBuilder) declare(name string, kind symbols.SymbolKind) ast.NodeID {
	sp := u.span()
	n := u.tree.AddTerminal(ast.OpIdentifier, sp)
	id := u.b.Declare(u.b.Strings().Intern(name), kind, n, sp)
	u.tree.SetSym(n, uint32(id))
	return n
}

func (u *unitBuilder) let(name string) ast.NodeID {
	return u.declare(name, symbols.SymbolLet)
}

func (u *unitBuilder) read(name string) ast.NodeID {
	u.t.Helper()
	id, ok := u.b.Lookup(u.b.Strings().Intern(name))
	if !ok {
		u.t.Fatalf("read of undeclared %q", name)
	}
	n := u.tree.AddTerminal(ast.OpIdentifier, u.span())
	u.tree.SetSym(n, uint32(id))
	u.b.Read(id, n)
	return n
}

func (u *unitBuilder) algorithm(name string, body func()) ast.NodeID {
	nameNode := u.declare(name, symbols.SymbolAlgorithm)
	fn := u.tree.AddNode(ast.OpAlgorithm, u.span(), nameNode)
	u.b.OpenScope(fn)
	body()
	u.b.CloseScope()
	return fn
}

func (u *unitBuilder) lambda(body func()) ast.NodeID {
	fn := u.tree.AddNode(ast.OpLambda, u.span())
	u.b.OpenScope(fn)
	body()
	u.b.CloseScope()
	return fn
}

func (u *unitBuilder) block(body func()) {
	u.b.OpenScope(ast.NoNodeID)
	body()
	u.b.CloseScope()
}

func (u *unitBuilder) finish() *symbols.Table {
	u.t.Helper()
	table, err := u.b.Finish()
	if err != nil {
		u.t.Fatalf("finish: %v", err)
	}
	if err := table.Validate(); err != nil {
		u.t.Fatalf("validate: %v", err)
	}
	return table
}

type captureEntry struct {
	Op   ast.Op
	Name string
	Slot uint32
}

func captures(t *testing.T, tree *ast.Tree, table *symbols.Table, fn ast.NodeID) []captureEntry {
	t.Helper()
	arg, ok := ast.UpvaluesArg(tree.Op(fn))
	if !ok {
		t.Fatalf("node %d is not a closure", fn)
	}
	list := tree.Arg(fn, arg)
	if !list.IsValid() {
		t.Fatalf("closure %d has no capture list", fn)
	}
	out := []captureEntry{}
	for i := 0; i < tree.NumArgs(list); i++ {
		n := tree.Arg(list, i)
		out = append(out, captureEntry{
			Op:   tree.Op(n),
			Name: table.Name(symbols.SymbolID(tree.Sym(n))),
			Slot: tree.ClosureIndex(n),
		})
	}
	return out
}
