package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Ошибки описания юнита (замена парсера и symbol-build прохода)
	UnitInfo          Code = 1000
	UnitInvalid       Code = 1001
	UnitUndeclared    Code = 1002
	UnitRedeclared    Code = 1003
	UnitBadWarning    Code = 1004
	UnitCaptureGlobal Code = 1005

	// Линты
	LintInfo           Code = 3000
	LintUnusedVariable Code = 3001
	LintUnusedCapture  Code = 3002

	// IO
	IOLoadFileError Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:        "Unknown error",
	UnitInfo:           "Unit information",
	UnitInvalid:        "Malformed unit description",
	UnitUndeclared:     "Undeclared identifier",
	UnitRedeclared:     "Identifier already declared in this scope",
	UnitBadWarning:     "Unknown warning setting",
	UnitCaptureGlobal:  "Capturing a global by value",
	LintInfo:           "Lint information",
	LintUnusedVariable: "Unused variable",
	LintUnusedCapture:  "Unused captured binding",
	IOLoadFileError:    "I/O load file error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("UNT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LNT%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
