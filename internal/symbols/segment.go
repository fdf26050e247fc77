package symbols

import (
	"forscape/internal/ast"
	"forscape/internal/settings"
)

// UsageKind distinguishes declarations from reads.
type UsageKind uint8

const (
	UsageDeclare UsageKind = iota
	UsageRead
)

func (k UsageKind) String() string {
	if k == UsageDeclare {
		return "declare"
	}
	return "read"
}

// Usage is one occurrence of a symbol, in source order.
type Usage struct {
	Symbol SymbolID
	Node   ast.NodeID
	Kind   UsageKind
}

// ScopeSegment is a contiguous run of usages belonging to one lexical scope.
// A scope interrupted by a child scope is split into several segments; the
// first carries Start and the last carries End, so the markers of the
// whole sequence form balanced brackets.
type ScopeSegment struct {
	UsageBegin int
	UsageEnd   int
	Start      bool
	End        bool
	// Closure is the closure-defining node opened by a Start segment, or
	// ast.NoNodeID for plain lexical scopes.
	Closure ast.NodeID
	Scope   ScopeIndex
	// Overrides are warning-level changes in force from this segment on.
	Overrides []settings.Override
}

// OpensClosure reports whether entering the segment enters a closure.
func (s *ScopeSegment) OpensClosure() bool {
	return s.Start && s.Closure.IsValid()
}
