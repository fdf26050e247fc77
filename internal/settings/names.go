package settings

import (
	"fmt"
	"strings"

	"forscape/internal/diag"
)

var categoryNames = [NumCategories]string{
	UnusedVariable: "unused_variable",
	TransposeT:     "transpose_t",
}

func (c Category) String() string {
	if c < NumCategories {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// ParseCategory accepts the snake_case name of a category.
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	for i, name := range categoryNames {
		if name == key {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown warning category %q", s)
}

func (l Level) String() string {
	switch l {
	case NoWarning:
		return "off"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", l)
	}
}

// ParseLevel accepts off|warn|error (and a few spellings people type).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "no", "allow":
		return NoWarning, nil
	case "warn", "warning", "on":
		return Warn, nil
	case "error", "deny":
		return Error, nil
	default:
		return 0, fmt.Errorf("invalid warning level %q (expected off|warn|error)", s)
	}
}

// ParseOverrides converts a name->level table, as found in config files,
// into overrides sorted by category.
func ParseOverrides(table map[string]string) ([]Override, error) {
	if len(table) == 0 {
		return nil, nil
	}
	seen := [NumCategories]bool{}
	levels := [NumCategories]Level{}
	for name, value := range table {
		cat, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		level, err := ParseLevel(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		seen[cat] = true
		levels[cat] = level
	}
	out := make([]Override, 0, len(table))
	for i := range seen {
		if seen[i] {
			out = append(out, Override{Category: Category(i), Level: levels[i]})
		}
	}
	return out, nil
}

// Severity maps a level to the diagnostic severity it produces. ok is false
// for NoWarning, meaning nothing should be reported.
func (l Level) Severity() (sev diag.Severity, ok bool) {
	switch l {
	case Warn:
		return diag.SevWarning, true
	case Error:
		return diag.SevError, true
	default:
		return diag.SevInfo, false
	}
}
