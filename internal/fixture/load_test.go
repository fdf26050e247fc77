package fixture

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"forscape/internal/ast"
	"forscape/internal/diag"
	"forscape/internal/source"
	"forscape/internal/symbols"
)

func parseString(t *testing.T, name, content string) (*Unit, *diag.Bag, *source.FileSet, error) {
	t.Helper()
	fs := source.NewFileSetWithBase(".")
	id := fs.AddVirtual(name, []byte(content))
	bag := diag.NewBag(0)
	unit, err := Parse(fs, id, diag.BagReporter{Bag: bag})
	return unit, bag, fs, err
}

func TestLoadCounterUnit(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	unit, err := Load(fs, filepath.Join("testdata", "counter.unit.yaml"), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("load: %v (%v)", err, bag.Items())
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if unit.Name != "counter" {
		t.Fatalf("unit name = %q", unit.Name)
	}
	if err := unit.Table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(unit.Algorithms) != 1 || unit.Tree.Op(unit.Algorithms[0].Node) != ast.OpAlgorithm {
		t.Fatalf("algorithms = %+v", unit.Algorithms)
	}

	// the lambda's capture clause binds step inside the closure
	var captured *symbols.Symbol
	for _, id := range unit.Table.Symbols.IDs() {
		if sym := unit.Table.Symbol(id); sym.Kind == symbols.SymbolCapture {
			captured = sym
		}
	}
	if captured == nil || captured.DeclClosureDepth != 2 || !captured.NeedsCell() {
		t.Fatalf("capture symbol = %+v", captured)
	}

	// count is declared in make and read from the lambda
	for _, id := range unit.Table.Symbols.IDs() {
		if unit.Table.Name(id) == "count" && !unit.Table.Symbol(id).ClosureNested {
			t.Fatalf("count should be closure nested")
		}
	}

	// unit-level override lands on the first segment
	if len(unit.Table.Segments[0].Overrides) != 1 {
		t.Fatalf("unit warnings not recorded: %+v", unit.Table.Segments[0])
	}
}

func TestUndeclaredAndRedeclared(t *testing.T) {
	src := "body:\n" +
		"  - let: x\n" +
		"  - let: x\n" +
		"  - read: y\n"
	unit, bag, fs, err := parseString(t, "bad.unit.yaml", src)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if unit == nil || unit.Table == nil {
		t.Fatalf("partial unit expected")
	}
	got := diag.FormatGolden(bag.Items(), fs, true)
	want := strings.Join([]string{
		"note UNT1003 bad.unit.yaml:2:10 previous declaration is here",
		"error UNT1003 bad.unit.yaml:3:10 \"x\" is already declared in this scope",
		"error UNT1002 bad.unit.yaml:4:11 undeclared identifier \"y\"",
	}, "\n")
	if got != want {
		t.Fatalf("diagnostics:\n%s\nwant:\n%s", got, want)
	}
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	src := `
body:
  - let: x
  - block:
      - let: x
      - read: x
  - read: x
`
	unit, bag, _, err := parseString(t, "shadow.unit.yaml", src)
	if err != nil {
		t.Fatalf("parse: %v %v", err, bag.Items())
	}
	reads := map[symbols.SymbolID]int{}
	for _, u := range unit.Table.Usages {
		if u.Kind == symbols.UsageRead {
			reads[u.Symbol]++
		}
	}
	if len(reads) != 2 {
		t.Fatalf("expected reads of two distinct symbols, got %v", reads)
	}
}

func TestNamesAreNFCNormalised(t *testing.T) {
	src := "body:\n" +
		"  - let: \"cafe\u0301\"\n" +
		"  - read: \"caf\u00e9\"\n"
	_, bag, _, err := parseString(t, "nfc.unit.yaml", src)
	if err != nil {
		t.Fatalf("decomposed and composed spellings must match: %v %v", err, bag.Items())
	}
}

func TestBadWarningsAndStructure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unknown category", "warnings: {shadowing: warn}\nbody: []\n", diag.UnitBadWarning},
		{"unknown level", "warnings: {unused_variable: loud}\nbody: []\n", diag.UnitBadWarning},
		{"two kinds", "body:\n  - let: x\n    read: x\n", diag.UnitInvalid},
		{"stray field", "body:\n  - read: x\n    params: [a]\n", diag.UnitInvalid},
		{"bad identifier", "body:\n  - let: 1x\n", diag.UnitInvalid},
		{"unknown key", "bodies: []\n", diag.UnitInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag, _, err := parseString(t, "w.unit.yaml", tt.src)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if bag.Len() == 0 || bag.Items()[0].Code != tt.code {
				t.Fatalf("diagnostics = %+v, want code %s", bag.Items(), tt.code.ID())
			}
		})
	}
}

func TestSyntaxErrorIsReturned(t *testing.T) {
	_, _, _, err := parseString(t, "broken.unit.yaml", "body: [\n")
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("expected a parse error, got %v", err)
	}
}

func TestCaptureOfGlobalWarns(t *testing.T) {
	src := `
body:
  - let: g
  - lambda:
    captures: [g]
    body:
      - read: g
`
	unit, bag, _, err := parseString(t, "cap.unit.yaml", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.UnitCaptureGlobal || bag.Items()[0].Severity != diag.SevWarning {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}

	var lam ast.NodeID
	for i := 1; i <= unit.Tree.Len(); i++ {
		if unit.Tree.Op(ast.NodeID(i)) == ast.OpLambda {
			lam = ast.NodeID(i)
		}
	}
	captured := unit.Tree.Arg(lam, ast.LambdaCapturedArg)
	if unit.Tree.NumArgs(captured) != 1 || unit.Tree.Op(unit.Tree.Arg(captured, 0)) != ast.OpAssign {
		t.Fatalf("captured clause not built")
	}
}
