package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"forscape/internal/driver"
	"forscape/internal/pipeline"
)

func writeUnits(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := range n {
		body := fmt.Sprintf("body:\n  - let: v%d\n  - read: v%d\n", i, i)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("u%03d.unit.yaml", i)), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestResolveDirWithViewStopsWhenViewQuitsEarly(t *testing.T) {
	// enough units to overflow the event buffer several times
	dir := writeUnits(t, 120)
	quit := func(<-chan pipeline.Event) (bool, error) { return true, nil }

	done := make(chan error, 1)
	go func() {
		_, err := resolveDirWithView(t.Context(), dir, driver.Options{Jobs: 2}, quit)
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, errInterrupted) {
			t.Fatalf("err = %v, want %v", err, errInterrupted)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("resolve did not return after the view quit")
	}
}

func TestResolveDirWithViewReportsUIError(t *testing.T) {
	dir := writeUnits(t, 40)
	boom := errors.New("no tty")
	broken := func(<-chan pipeline.Event) (bool, error) { return false, boom }

	_, err := resolveDirWithView(t.Context(), dir, driver.Options{}, broken)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestResolveDirWithViewReturnsResults(t *testing.T) {
	dir := writeUnits(t, 3)
	var seen int
	watch := func(events <-chan pipeline.Event) (bool, error) {
		for range events {
			seen++
		}
		return false, nil
	}

	results, err := resolveDirWithView(t.Context(), dir, driver.Options{}, watch)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || seen == 0 {
		t.Fatalf("results = %d, events = %d", len(results), seen)
	}
	for _, res := range results {
		if res.Err != nil || !res.Resolved {
			t.Fatalf("%s: resolved=%v err=%v", res.Path, res.Resolved, res.Err)
		}
	}
}
