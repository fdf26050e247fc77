package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	load := timer.Begin("load")
	timer.End(load, "3 symbols")
	res := timer.Begin("resolve")
	timer.End(res, "")
	timer.End(99, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 || report.Phases[0].Name != "load" || report.Phases[0].Note != "3 symbols" {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Fatalf("total below a phase")
	}
	out := report.Summary("counter")
	if !strings.Contains(out, "timings counter:") || !strings.Contains(out, "// 3 symbols") {
		t.Fatalf("summary = %q", out)
	}
	if empty := NewTimer().Report(); len(empty.Phases) != 0 {
		t.Fatalf("empty timer reported phases")
	}
}
