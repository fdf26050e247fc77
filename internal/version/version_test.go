package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredMatchesPlainWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	if Colored() != String() {
		t.Fatalf("colored %q != plain %q", Colored(), String())
	}
	if String() != "0.1.0-dev" {
		t.Fatalf("version = %q", String())
	}
}
