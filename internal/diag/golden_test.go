package diag

import (
	"testing"

	"forscape/internal/source"
)

func TestFormatGoldenSortsAndIncludesNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("units/a.unit.yaml", []byte("body:\n  - let: x\n  - let: y\n"))

	bag := NewBag(0)
	r := BagReporter{Bag: bag}
	ReportError(r, UnitRedeclared, source.Span{File: id, Start: 26, End: 27}, "y already declared").
		WithNote(source.Span{File: id, Start: 15, End: 16}, "previous\ndeclaration").
		Emit()
	ReportWarning(r, LintUnusedVariable, source.Span{File: id, Start: 15, End: 16}, "x is never read").Emit()

	got := FormatGolden(bag.Items(), fs, true)
	want := "note UNT1003 units/a.unit.yaml:2:10 previous declaration\n" +
		"warning LNT3001 units/a.unit.yaml:2:10 x is never read\n" +
		"error UNT1003 units/a.unit.yaml:3:10 y already declared"
	if got != want {
		t.Fatalf("golden mismatch:\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBagCapAndCounts(t *testing.T) {
	bag := NewBag(2)
	for i := 0; i < 3; i++ {
		bag.Add(Diagnostic{Severity: SevWarning, Code: LintUnusedVariable})
	}
	if bag.Len() != 2 {
		t.Fatalf("cap not honoured: %d", bag.Len())
	}
	other := NewBag(0)
	other.Add(Diagnostic{Severity: SevError, Code: UnitUndeclared})
	bag.Merge(other)
	e, w := bag.Counts()
	if e != 1 || w != 2 || !bag.HasErrors() {
		t.Fatalf("counts = %d/%d", e, w)
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportWarning(BagReporter{Bag: bag}, LintUnusedVariable, source.Span{}, "x")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("emitted %d times", bag.Len())
	}
	if UnitUndeclared.ID() != "UNT1002" || LintUnusedVariable.ID() != "LNT3001" {
		t.Fatalf("unexpected code ids")
	}
}
