package testkit

import (
	"strings"
	"testing"

	"forscape/internal/ast"
	"forscape/internal/source"
)

func TestCheckTree(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.unit.yaml", []byte("body: []\n"))
	file := fs.Get(id)

	tree := ast.NewTree(0)
	fn := tree.AddNode(ast.OpLambda, source.Span{File: id, Start: 0, End: 4})
	tree.SetRoot(tree.AddNode(ast.OpBlock, source.Span{File: id, Start: 0, End: 8}, fn))

	if err := CheckTree(tree, file, false); err != nil {
		t.Fatalf("unresolved tree: %v", err)
	}
	if err := CheckTree(tree, file, true); err == nil || !strings.Contains(err.Error(), "no capture list") {
		t.Fatalf("resolved check err = %v", err)
	}

	tree.SetArg(fn, ast.LambdaUpvaluesArg, tree.NewList().Finalize(source.Span{File: id}))
	if err := CheckTree(tree, file, true); err != nil {
		t.Fatalf("resolved tree: %v", err)
	}

	bad := tree.AddTerminal(ast.OpNumber, source.Span{File: id, Start: 3, End: 99})
	tree.SetRoot(tree.AddNode(ast.OpBlock, source.Span{File: id}, bad))
	if err := CheckTree(tree, file, false); err == nil {
		t.Fatalf("span past the end was accepted")
	}
}
