package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONIncludesPositionsAndNotes(t *testing.T) {
	bag, fs := ghostBag()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	loc := LocationJSON{File: "t.unit.yaml", StartByte: 16, EndByte: 21, StartLine: 2, StartCol: 11, EndLine: 2, EndCol: 16}
	want := DiagnosticsOutput{
		Count: 1,
		Diagnostics: []DiagnosticJSON{{
			Severity: "error",
			Code:     "UNT1002",
			Message:  `undeclared identifier "ghost"`,
			Location: loc,
			Notes:    []NoteJSON{{Message: "declare it with let", Location: loc}},
		}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONMaxTruncatesOutput(t *testing.T) {
	bag, fs := ghostBag()
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 0})
	if out.Count != 1 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("unexpected output %+v", out)
	}
}
