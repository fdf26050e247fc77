package ast

import (
	"fmt"

	"forscape/internal/source"
)

// Node is one syntax tree record. The three operand slots are written by
// the resolver; their meaning depends on Op.
type Node struct {
	Op   Op
	Span source.Span
	Args []NodeID
	// Sym is the symbol-table index of identifier-like nodes, 0 otherwise.
	Sym uint32

	ClosureIndex uint32
	GlobalIndex  uint32
	StackOffset  uint32
}

// Tree is the mutable syntax tree of one compilation unit.
type Tree struct {
	nodes *Arena[NodeID, Node]
	root  NodeID
}

// NewTree allocates an empty tree.
func NewTree(capHint uint) *Tree {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Tree{nodes: NewArena[NodeID, Node](capHint)}
}

func (t *Tree) Root() NodeID        { return t.root }
func (t *Tree) SetRoot(root NodeID) { t.root = root }

// Len reports the number of allocated nodes.
func (t *Tree) Len() int { return t.nodes.Len() }

// AddTerminal allocates a node without arguments.
func (t *Tree) AddTerminal(op Op, span source.Span) NodeID {
	return t.AddNode(op, span)
}

// AddNode allocates a node with the given arguments.
func (t *Tree) AddNode(op Op, span source.Span, args ...NodeID) NodeID {
	var owned []NodeID
	if len(args) > 0 {
		owned = append(owned, args...)
	}
	return t.nodes.Allocate(Node{
		Op:           op,
		Span:         span,
		Args:         owned,
		ClosureIndex: Unset,
		GlobalIndex:  Unset,
		StackOffset:  Unset,
	})
}

// Get returns the node for id or nil.
func (t *Tree) Get(id NodeID) *Node {
	return t.nodes.Get(id)
}

func (t *Tree) must(id NodeID) *Node {
	n := t.Get(id)
	if n == nil {
		panic(fmt.Errorf("ast: invalid node %d", id))
	}
	return n
}

func (t *Tree) Op(id NodeID) Op                       { return t.must(id).Op }
func (t *Tree) SetOp(id NodeID, op Op)                { t.must(id).Op = op }
func (t *Tree) Span(id NodeID) source.Span            { return t.must(id).Span }
func (t *Tree) Sym(id NodeID) uint32                  { return t.must(id).Sym }
func (t *Tree) SetSym(id NodeID, sym uint32)          { t.must(id).Sym = sym }
func (t *Tree) ClosureIndex(id NodeID) uint32         { return t.must(id).ClosureIndex }
func (t *Tree) SetClosureIndex(id NodeID, idx uint32) { t.must(id).ClosureIndex = idx }
func (t *Tree) GlobalIndex(id NodeID) uint32          { return t.must(id).GlobalIndex }
func (t *Tree) SetGlobalIndex(id NodeID, idx uint32)  { t.must(id).GlobalIndex = idx }
func (t *Tree) StackOffset(id NodeID) uint32          { return t.must(id).StackOffset }
func (t *Tree) SetStackOffset(id NodeID, off uint32)  { t.must(id).StackOffset = off }

// NumArgs returns the argument count of id.
func (t *Tree) NumArgs(id NodeID) int { return len(t.must(id).Args) }

// Arg returns argument i of id, or NoNodeID if the slot does not exist.
func (t *Tree) Arg(id NodeID, i int) NodeID {
	n := t.must(id)
	if i < 0 || i >= len(n.Args) {
		return NoNodeID
	}
	return n.Args[i]
}

// SetArg overwrites argument slot i, growing the argument list with empty
// slots when needed.
func (t *Tree) SetArg(id NodeID, i int, child NodeID) {
	n := t.must(id)
	for len(n.Args) <= i {
		n.Args = append(n.Args, NoNodeID)
	}
	n.Args[i] = child
}

// ListBuilder accumulates children for a list-like node.
type ListBuilder struct {
	tree *Tree
	op   Op
	args []NodeID
}

// NewList starts an OpList node.
func (t *Tree) NewList() *ListBuilder {
	return &ListBuilder{tree: t, op: OpList}
}

// NewNary starts an n-ary node with an arbitrary op.
func (t *Tree) NewNary(op Op) *ListBuilder {
	return &ListBuilder{tree: t, op: op}
}

// Add appends a child.
func (b *ListBuilder) Add(child NodeID) *ListBuilder {
	b.args = append(b.args, child)
	return b
}

// Len reports the number of children added so far.
func (b *ListBuilder) Len() int { return len(b.args) }

// Finalize allocates the node.
func (b *ListBuilder) Finalize(span source.Span) NodeID {
	return b.tree.AddNode(b.op, span, b.args...)
}
