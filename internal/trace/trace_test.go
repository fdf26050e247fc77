package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopePass, true},
		{LevelError, ScopeNode, false},
		{LevelPhase, ScopeUnit, true},
		{LevelPhase, ScopePass, false},
		{LevelDetail, ScopePass, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStreamTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	ctx := WithTracer(context.Background(), tr)

	span := Begin(FromContext(ctx), ScopePass, "resolve", 0)
	span.WithExtra("closures", "2")
	Point(FromContext(ctx), ScopeNode, "closure", "hidden at detail", span.ID())
	if d := span.End("ok"); d < 0 {
		t.Fatalf("negative duration")
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected begin+end lines, got %q", out)
	}
	if !strings.Contains(lines[0], "→ pass:resolve") {
		t.Fatalf("unexpected begin line %q", lines[0])
	}
	if !strings.Contains(lines[1], "← pass:resolve (ok) {closures=2}") {
		t.Fatalf("unexpected end line %q", lines[1])
	}
}

func TestStreamTracerSilentAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON)
	Begin(tr, ScopeDriver, "run", 0).End("")
	if buf.Len() != 0 {
		t.Fatalf("stream tracer wrote at error level: %q", buf.String())
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ring, ScopeNode, name, "", 0)
	}
	got := ring.Snapshot()
	if len(got) != 3 || got[0].Name != "b" || got[2].Name != "d" {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("dump wrote %d lines", n)
	}
}

func TestDisabledSpanStillMeasures(t *testing.T) {
	span := Begin(Nop, ScopePass, "lint", 0)
	if span.ID() != 0 {
		t.Fatalf("disabled span got an id")
	}
	if span.End("") < 0 {
		t.Fatalf("negative duration")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context must yield Nop")
	}
}

func TestNewSessionModes(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	Begin(s.Tracer, ScopeUnit, "unit:a", 0).End("")
	if s.Ring == nil || len(s.Ring.Snapshot()) != 2 {
		t.Fatalf("ring did not record both events")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(buf.String(), "unit:unit:a") {
		t.Fatalf("stream output missing: %q", buf.String())
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	off, err := New(Config{Level: LevelOff})
	if err != nil || off.Tracer.Enabled() {
		t.Fatalf("off session must be disabled")
	}
}
