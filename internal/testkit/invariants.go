// Package testkit holds structural checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"forscape/internal/ast"
	"forscape/internal/source"
)

// CheckTree runs a minimal set of invariants on a unit's syntax tree:
// 1) every reachable node's span lies in sf and is not inverted
// 2) after resolution, global and upvalue reads carry their index
// 3) after resolution, every closure carries a capture list of named entries
func CheckTree(tree *ast.Tree, sf *source.File, resolved bool) error {
	if tree == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	visited := make(map[ast.NodeID]bool, tree.Len())
	var walk func(id ast.NodeID) error
	walk = func(id ast.NodeID) error {
		if !id.IsValid() || visited[id] {
			return nil
		}
		visited[id] = true
		n := tree.Get(id)
		if n == nil {
			return fmt.Errorf("node %d not found", id)
		}

		// 1) span sanity
		if n.Span.File != sf.ID {
			return fmt.Errorf("node %d (%s) span points to file %d, want %d", id, n.Op, n.Span.File, sf.ID)
		}
		if n.Span.Start > n.Span.End || n.Span.End > lenContent {
			return fmt.Errorf("node %d (%s) span %d..%d outside content of %d bytes", id, n.Op, n.Span.Start, n.Span.End, lenContent)
		}

		if resolved {
			if err := checkResolved(tree, id, n); err != nil {
				return err
			}
		}
		for _, child := range n.Args {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(tree.Root())
}

func checkResolved(tree *ast.Tree, id ast.NodeID, n *ast.Node) error {
	switch n.Op {
	case ast.OpReadGlobal:
		if n.GlobalIndex == ast.Unset {
			return fmt.Errorf("global read %d has no index", id)
		}
	case ast.OpReadUpvalue:
		if n.ClosureIndex == ast.Unset {
			return fmt.Errorf("upvalue %d has no closure index", id)
		}
	}

	// 3) capture lists
	arg, ok := ast.UpvaluesArg(n.Op)
	if !ok {
		return nil
	}
	list := tree.Arg(id, arg)
	if !list.IsValid() || tree.Op(list) != ast.OpList {
		return fmt.Errorf("closure %d (%s) has no capture list", id, n.Op)
	}
	for i := range tree.NumArgs(list) {
		e := tree.Arg(list, i)
		if tree.Sym(e) == 0 {
			return fmt.Errorf("capture %d of closure %d names no symbol", i, id)
		}
		if op := tree.Op(e); op != ast.OpIdentifier && op != ast.OpReadUpvalue {
			return fmt.Errorf("capture %d of closure %d has op %s", i, id, op)
		}
	}
	return nil
}
