package symbols

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants the resolver relies on:
// balanced Start/End markers, contiguous ordered usage ranges covering
// every usage, and exactly one declaration per symbol preceding its reads.
// Returns nil if everything is consistent; otherwise aggregates all
// detected issues.
func (t *Table) Validate() error {
	var errs []error

	if len(t.Segments) == 0 {
		if len(t.Usages) != 0 {
			errs = append(errs, fmt.Errorf("%d usage(s) outside of any segment", len(t.Usages)))
		}
		return errors.Join(errs...)
	}

	depth := 0
	next := 0
	for i := range t.Segments {
		seg := &t.Segments[i]
		if seg.UsageBegin != next {
			errs = append(errs, fmt.Errorf("segment %d begins at usage %d, want %d", i, seg.UsageBegin, next))
		}
		if seg.UsageEnd < seg.UsageBegin || seg.UsageEnd > len(t.Usages) {
			errs = append(errs, fmt.Errorf("segment %d has invalid range [%d,%d)", i, seg.UsageBegin, seg.UsageEnd))
			next = seg.UsageBegin
		} else {
			next = seg.UsageEnd
		}
		if seg.Start {
			depth++
		} else if seg.Closure.IsValid() {
			errs = append(errs, fmt.Errorf("segment %d carries a closure without starting a scope", i))
		}
		if depth == 0 {
			errs = append(errs, fmt.Errorf("segment %d lies outside every scope", i))
		}
		if seg.End {
			depth--
		}
	}
	if depth != 0 {
		errs = append(errs, fmt.Errorf("unbalanced scopes: %d left open", depth))
	}
	if next != len(t.Usages) {
		errs = append(errs, fmt.Errorf("segments cover %d of %d usages", next, len(t.Usages)))
	}

	declared := make([]bool, len(t.Symbols.data))
	for i, u := range t.Usages {
		if !u.Symbol.IsValid() || int(u.Symbol) >= len(t.Symbols.data) {
			errs = append(errs, fmt.Errorf("usage %d references invalid symbol %d", i, u.Symbol))
			continue
		}
		if !u.Node.IsValid() {
			errs = append(errs, fmt.Errorf("usage %d has no node", i))
		}
		switch u.Kind {
		case UsageDeclare:
			if declared[u.Symbol] {
				errs = append(errs, fmt.Errorf("symbol %d declared twice (usage %d)", u.Symbol, i))
			}
			declared[u.Symbol] = true
		case UsageRead:
			if !declared[u.Symbol] {
				errs = append(errs, fmt.Errorf("symbol %d read before declaration (usage %d)", u.Symbol, i))
			}
		default:
			errs = append(errs, fmt.Errorf("usage %d has invalid kind %d", i, u.Kind))
		}
	}
	for idx := 1; idx < len(t.Symbols.data); idx++ {
		if !declared[idx] {
			errs = append(errs, fmt.Errorf("symbol %d is never declared", idx))
		}
	}

	return errors.Join(errs...)
}
