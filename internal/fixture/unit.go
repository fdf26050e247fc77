// Package fixture loads compilation units described as YAML documents.
//
// A unit file stands in for the parser and the symbol-building pass: it
// lists declarations, reads, calls and nested algorithms, lambdas and
// blocks. Loading it produces the syntax tree and the symbols.Table the
// resolver consumes, and reports naming mistakes as diagnostics.
//
//	unit: counter
//	warnings: {unused_variable: error}
//	body:
//	  - let: n
//	    value: 3
//	  - algorithm: make
//	    params: [step]
//	    body:
//	      - let: count
//	      - lambda:
//	        captures: [step]
//	        body:
//	          - read: count
//	          - read: step
//	  - call: make
//	    args: [n]
package fixture

import (
	"errors"

	"forscape/internal/ast"
	"forscape/internal/source"
	"forscape/internal/symbols"
)

// Ext is the file extension of unit files.
const Ext = ".unit.yaml"

// ErrInvalid is returned when the unit loaded but reported errors; the
// diagnostics carry the details.
var ErrInvalid = errors.New("fixture: unit has errors")

// Algorithm records one algorithm definition.
type Algorithm struct {
	Symbol symbols.SymbolID
	Node   ast.NodeID
}

// Unit is a loaded compilation unit.
type Unit struct {
	Name  string
	File  source.FileID
	Tree  *ast.Tree
	Table *symbols.Table
	// Algorithms lists definitions in source order.
	Algorithms []Algorithm
}

// SymbolName adapts the table for ast.Dump.
func (u *Unit) SymbolName(sym uint32) string {
	return u.Table.Name(symbols.SymbolID(sym))
}
