package ast

import (
	"testing"

	"forscape/internal/source"
)

func TestArenaIsOneBased(t *testing.T) {
	a := NewArena[NodeID, int](0)
	if a.Get(0) != nil {
		t.Fatalf("index 0 must be reserved")
	}
	id := a.Allocate(42)
	if id != 1 || *a.Get(id) != 42 {
		t.Fatalf("Allocate returned %d", id)
	}
	if a.Get(2) != nil {
		t.Fatalf("out of range Get must return nil")
	}
	a.Allocate(7)
	var sum int
	for id, v := range a.All() {
		sum += int(id) * *v
	}
	if sum != 42+14 {
		t.Fatalf("All visited wrong values: %d", sum)
	}
}

func TestTreeOperandSlotsStartUnset(t *testing.T) {
	tree := NewTree(0)
	id := tree.AddTerminal(OpIdentifier, source.Span{Start: 1, End: 2})
	if tree.ClosureIndex(id) != Unset || tree.GlobalIndex(id) != Unset || tree.StackOffset(id) != Unset {
		t.Fatalf("fresh node must have unset operand slots")
	}
	tree.SetOp(id, OpReadGlobal)
	tree.SetGlobalIndex(id, 3)
	if tree.Op(id) != OpReadGlobal || tree.GlobalIndex(id) != 3 {
		t.Fatalf("setters did not stick")
	}
}

func TestSetArgGrowsSlots(t *testing.T) {
	tree := NewTree(0)
	lam := tree.AddNode(OpLambda, source.Span{})
	list := tree.NewList().Add(tree.AddTerminal(OpIdentifier, source.Span{})).Finalize(source.Span{})
	slot, ok := UpvaluesArg(OpLambda)
	if !ok {
		t.Fatalf("lambda must have an upvalue slot")
	}
	tree.SetArg(lam, slot, list)
	if tree.Arg(lam, LambdaUpvaluesArg) != list {
		t.Fatalf("upvalue list not attached")
	}
	if tree.Arg(lam, 7) != NoNodeID {
		t.Fatalf("missing slot must read as NoNodeID")
	}
	if _, ok := UpvaluesArg(OpCall); ok {
		t.Fatalf("call is not closure-defining")
	}
}

func TestDumpAnnotatesResolvedSlots(t *testing.T) {
	tree := NewTree(0)
	x := tree.AddTerminal(OpReadUpvalue, source.Span{})
	tree.SetSym(x, 1)
	tree.SetClosureIndex(x, 0)
	y := tree.AddTerminal(OpIdentifier, source.Span{})
	tree.SetSym(y, 2)
	tree.SetStackOffset(y, 1)
	root := tree.NewNary(OpBlock).Add(x).Add(y).Add(NoNodeID).Finalize(source.Span{})

	names := func(sym uint32) string { return []string{"", "x", "y"}[sym] }
	got := DumpString(tree, root, names)
	want := "Block\n  ReadUpvalue x [upvalue=0]\n  Identifier y [offset=1]\n  -\n"
	if got != want {
		t.Fatalf("Dump mismatch:\n got: %q\nwant: %q", got, want)
	}
}
