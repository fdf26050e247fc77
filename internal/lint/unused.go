// Package lint reports findings that need the whole symbol table but no
// resolved storage.
package lint

import (
	"fmt"
	"strings"

	"forscape/internal/diag"
	"forscape/internal/settings"
	"forscape/internal/symbols"
)

// Unused reports variables that are declared but never read. The warning
// level is taken from store as it stands at the end of the declaring
// scope, so scoped overrides recorded in the table apply. Names starting
// with '_' and algorithm names are exempt. It returns the number of
// symbols reported.
func Unused(table *symbols.Table, store *settings.Store, reporter diag.Reporter) int {
	reads := make([]int, table.Symbols.Len()+1)
	for _, u := range table.Usages {
		if u.Kind == symbols.UsageRead {
			reads[u.Symbol]++
		}
	}

	var (
		declared [][]symbols.SymbolID // per open scope
		reported int
	)
	for i := range table.Segments {
		seg := &table.Segments[i]
		if seg.Start {
			store.EnterScope()
			declared = append(declared, nil)
		}
		store.Apply(seg.Overrides)
		for _, u := range table.SegmentUsages(i) {
			if u.Kind == symbols.UsageDeclare {
				declared[len(declared)-1] = append(declared[len(declared)-1], u.Symbol)
			}
		}
		if !seg.End {
			continue
		}

		level := store.WarningLevel(settings.UnusedVariable)
		sev, ok := level.Severity()
		for _, id := range declared[len(declared)-1] {
			if !ok || reads[id] > 0 {
				continue
			}
			sym := table.Symbol(id)
			if !sym.Kind.IsVariable() {
				continue
			}
			name := table.Name(id)
			if strings.HasPrefix(name, "_") {
				continue
			}
			code := diag.LintUnusedVariable
			msg := fmt.Sprintf("variable %q is never read", name)
			if sym.Kind == symbols.SymbolCapture {
				code = diag.LintUnusedCapture
				msg = fmt.Sprintf("captured binding %q is never read", name)
			}
			diag.NewReportBuilder(reporter, sev, code, sym.Span, msg).
				WithNote(sym.Span, "prefix the name with '_' to silence this").
				Emit()
			reported++
		}
		declared = declared[:len(declared)-1]
		if !store.LeaveScope() {
			panic(fmt.Errorf("lint: settings scope underflow at segment %d", i))
		}
	}
	return reported
}
