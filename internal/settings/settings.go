// Package settings holds the per-category warning levels the compiler
// passes consult, with lexically scoped overrides.
//
// A Store is an ordinary value owned by one compilation unit. Every Set
// records the previous value in an update log; EnterScope remembers the
// log length and LeaveScope replays the log backwards to that point, so an
// override made inside a scope disappears when the scope closes.
package settings

import (
	"fmt"
	"slices"
)

// Category identifies one configurable diagnostic.
type Category uint8

const (
	// UnusedVariable warns about bindings that are never read.
	UnusedVariable Category = iota
	// TransposeT warns when a transpose is written with the letter T.
	TransposeT

	NumCategories
)

// Level is the warning level of a category.
type Level uint8

const (
	NoWarning Level = iota
	Warn
	Error

	NumLevels
)

// Update records the value a category held before a Set. The editor keeps
// these records to integrate settings changes with its own undo stack.
type Update struct {
	Category Category
	Prev     Level
}

// Override is a requested level for a category, as written in a scope.
type Override struct {
	Category Category
	Level    Level
}

var defaultFlags = [NumCategories]Level{
	UnusedVariable: Warn,
	TransposeT:     Warn,
}

// Store is the scoped configuration of one compilation unit.
type Store struct {
	flags   [NumCategories]Level
	updates []Update
	scopes  []int
}

// New returns a store holding the default levels.
func New() *Store {
	return &Store{flags: defaultFlags}
}

// WithDefaults returns a store whose base levels are overridden by base.
// The base overrides are not part of any scope and cannot be left.
func WithDefaults(base []Override) *Store {
	s := New()
	for _, o := range base {
		s.Set(o.Category, o.Level)
	}
	s.updates = s.updates[:0]
	return s
}

// WarningLevel returns the level currently in force for cat.
func (s *Store) WarningLevel(cat Category) Level {
	mustCategory(cat)
	return s.flags[cat]
}

// Set overwrites the level of cat, logging the previous value.
func (s *Store) Set(cat Category, level Level) {
	mustCategory(cat)
	if level >= NumLevels {
		panic(fmt.Errorf("settings: invalid level %d", level))
	}
	s.updates = append(s.updates, Update{Category: cat, Prev: s.flags[cat]})
	s.flags[cat] = level
}

// Apply sets every override in order.
func (s *Store) Apply(overrides []Override) {
	for _, o := range overrides {
		s.Set(o.Category, o.Level)
	}
}

// Enact replays a recorded update list, restoring each recorded value.
func (s *Store) Enact(updates []Update) {
	for _, u := range updates {
		s.Set(u.Category, u.Prev)
	}
}

// EnterScope opens a scope; later Sets are reverted by the matching LeaveScope.
func (s *Store) EnterScope() {
	s.scopes = append(s.scopes, len(s.updates))
}

// LeaveScope restores every category changed since the matching EnterScope
// and truncates the log. With no open scope it does nothing and returns false.
func (s *Store) LeaveScope() bool {
	if len(s.scopes) == 0 {
		// TODO: turn into an assertion once every caller pairs
		// EnterScope/LeaveScope.
		return false
	}
	start := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	for i := len(s.updates) - 1; i >= start; i-- {
		u := s.updates[i]
		s.flags[u.Category] = u.Prev
	}
	s.updates = s.updates[:start]
	return true
}

// Depth reports the number of open scopes.
func (s *Store) Depth() int { return len(s.scopes) }

// Updates returns a copy of the log since it was last truncated.
func (s *Store) Updates() []Update { return slices.Clone(s.updates) }

// Snapshot returns the current level of every category.
func (s *Store) Snapshot() [NumCategories]Level { return s.flags }

// Reset restores the defaults and drops the log and all open scopes.
func (s *Store) Reset() {
	s.flags = defaultFlags
	s.updates = s.updates[:0]
	s.scopes = s.scopes[:0]
}

func mustCategory(cat Category) {
	if cat >= NumCategories {
		panic(fmt.Errorf("settings: invalid category %d", cat))
	}
}
