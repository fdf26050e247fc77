package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects whether directory runs draw the progress view.
type uiMode uint8

const (
	uiAuto uiMode = iota
	uiOn
	uiOff
)

func (m uiMode) String() string {
	switch m {
	case uiOn:
		return "on"
	case uiOff:
		return "off"
	default:
		return "auto"
	}
}

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiAuto, nil
	case "on", "true":
		return uiOn, nil
	case "off", "false":
		return uiOff, nil
	default:
		return uiAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// wantsProgressUI reports whether a directory run should draw progress.
// The view renders on stderr and only makes sense next to pretty output.
func wantsProgressUI(flags resolveFlags) bool {
	if flags.format != "pretty" || flags.quiet {
		return false
	}
	switch flags.ui {
	case uiOn:
		return true
	case uiOff:
		return false
	default:
		return isTerminal(os.Stderr) && isTerminal(os.Stdout)
	}
}
