package pipeline

import (
	"sync"
	"testing"
)

func TestRecorderIsConcurrent(t *testing.T) {
	var rec Recorder
	var wg sync.WaitGroup
	for _, f := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()
			Emit(&rec, Event{File: f, Stage: StageLoad, Status: StatusWorking})
			Emit(&rec, Event{File: f, Stage: StageTypes, Status: StatusDone})
		}(f)
	}
	wg.Wait()
	if n := len(rec.Events()); n != 6 {
		t.Fatalf("recorded %d events", n)
	}
	if (Event{Stage: StageLoad, Status: StatusDone}).Terminal() {
		t.Fatalf("a finished load stage is not the end of a file")
	}
	last, ok := rec.Last("b")
	if !ok || !last.Terminal() {
		t.Fatalf("last event for b = %+v", last)
	}
}

func TestChannelSinkAndQueued(t *testing.T) {
	ch := make(chan Event, 2)
	EmitQueued(ChannelSink{Ch: ch}, []string{"x", "y"})
	close(ch)
	var got []string
	for ev := range ch {
		if ev.Status != StatusQueued {
			t.Fatalf("unexpected status %s", ev.Status)
		}
		got = append(got, ev.File)
	}
	if len(got) != 2 || got[0] != "x" {
		t.Fatalf("got %v", got)
	}
	Emit(nil, Event{}) // nil sinks are ignored
}
