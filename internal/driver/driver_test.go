package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"forscape/internal/diag"
	"forscape/internal/fixture"
	"forscape/internal/pipeline"
	"forscape/internal/resolve"
	"forscape/internal/settings"
)

func writeUnit(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveFileCounter(t *testing.T) {
	var rec pipeline.Recorder
	path := filepath.Join("testdata", "counter.unit.yaml")
	res, err := ResolveFile(context.Background(), path, Options{Progress: &rec})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if !res.Resolved || res.Cached {
		t.Fatalf("resolved=%v cached=%v", res.Resolved, res.Cached)
	}

	want := resolve.Stats{Globals: 3, Locals: 1, Upvalues: 2, Captures: 3, Closures: 2, MaxStack: 3}
	if diff := cmp.Diff(want, res.Stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}

	caps := res.Summary.Captures
	if len(caps) != 2 {
		t.Fatalf("captures = %q", caps)
	}
	if !strings.HasPrefix(caps[0], "Algorithm make ") || !strings.HasSuffix(caps[0], "[count:ReadUpvalue]") {
		t.Fatalf("algorithm capture line = %q", caps[0])
	}
	if !strings.HasPrefix(caps[1], "Lambda ") || !strings.HasSuffix(caps[1], "[step:ReadUpvalue count:Identifier]") {
		t.Fatalf("lambda capture line = %q", caps[1])
	}
	if !contains(res.Summary.Storage, "n 4:10 let global#0") {
		t.Fatalf("storage = %q", res.Summary.Storage)
	}

	var phases []string
	for _, p := range res.Timings.Phases {
		phases = append(phases, p.Name)
	}
	if diff := cmp.Diff([]string{"load", "lint", "resolve", "types"}, phases); diff != "" {
		t.Fatalf("phases mismatch (-want +got):\n%s", diff)
	}

	last, ok := rec.Last(path)
	if !ok || !last.Terminal() || last.Status != pipeline.StatusDone {
		t.Fatalf("last progress event = %+v", last)
	}
}

func TestOverloadSetsFoldPerScope(t *testing.T) {
	res, err := ResolveFile(context.Background(), filepath.Join("testdata", "overloads.unit.yaml"), Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if len(res.Overloads) != 2 {
		t.Fatalf("overload sets = %+v", res.Overloads)
	}

	top, nested := res.Overloads[0], res.Overloads[1]
	if top.Name != "area" || len(top.Definitions) != 2 || res.Types.NumElements(top.Type) != 2 {
		t.Fatalf("top-level set = %+v", top)
	}
	if top.Scope == nested.Scope || res.Types.NumElements(nested.Type) != 1 {
		t.Fatalf("nested set = %+v", nested)
	}
	for _, def := range top.Definitions {
		if !res.Types.Contains(top.Type, def) {
			t.Fatalf("definition %d missing from %s", def, res.Types.TypeString(top.Type))
		}
	}
	// the same definitions always fold to the same set
	again := res.Types.Union(res.Types.MakeSet(top.Definitions[1]), res.Types.MakeSet(top.Definitions[0]))
	if again != top.Type {
		t.Fatalf("union is order dependent")
	}
	if got := res.Summary.Overloads[0]; !strings.HasPrefix(got, "area: {") || !strings.HasSuffix(got, "} : AbstractFunctionSet") {
		t.Fatalf("overload line = %q", got)
	}
}

func TestInvalidUnitStopsBeforeResolution(t *testing.T) {
	dir := t.TempDir()
	path := writeUnit(t, dir, "bad"+fixture.Ext, "body:\n  - read: ghost\n")

	var rec pipeline.Recorder
	res, err := ResolveFile(context.Background(), path, Options{BaseDir: dir, Progress: &rec})
	if err != nil {
		t.Fatalf("invalid units are not errors: %v", err)
	}
	if res.Resolved || res.Summary.Errors != 1 {
		t.Fatalf("resolved=%v summary=%+v", res.Resolved, res.Summary)
	}
	want := []string{`error UNT1002 bad.unit.yaml:2:11 undeclared identifier "ghost"`}
	if diff := cmp.Diff(want, res.Summary.Diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	last, _ := rec.Last(path)
	if last.Status != pipeline.StatusError || !errors.Is(last.Err, fixture.ErrInvalid) {
		t.Fatalf("last event = %+v", last)
	}
}

func TestMissingFileIsReported(t *testing.T) {
	res, err := ResolveFile(context.Background(), filepath.Join(t.TempDir(), "none"+fixture.Ext), Options{})
	if err != nil {
		t.Fatalf("missing file should be a diagnostic: %v", err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.IOLoadFileError {
		t.Fatalf("diagnostics = %v", items)
	}
}

func TestMalformedDocumentIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := writeUnit(t, dir, "broken"+fixture.Ext, "body: [\n")
	if _, err := ResolveFile(context.Background(), path, Options{}); err == nil {
		t.Fatalf("expected a syntax error")
	}
}

func TestWarningLevelsFromOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeUnit(t, dir, "unused"+fixture.Ext,
		"body:\n  - let: x\n  - block:\n      - let: y\n    warnings: {unused_variable: off}\n")

	res, err := ResolveFile(context.Background(), path, Options{
		BaseDir:  dir,
		Warnings: []settings.Override{{Category: settings.UnusedVariable, Level: settings.Error}},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// lint findings never stop resolution
	if !res.Resolved {
		t.Fatalf("unit was not resolved")
	}
	want := []string{`error LNT3001 unused.unit.yaml:2:10 variable "x" is never read`}
	if diff := cmp.Diff(want, res.Summary.Diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestDiskCacheServesSecondRun(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join("testdata", "counter.unit.yaml")
	opts := Options{Cache: cache}

	first, err := ResolveFile(context.Background(), path, opts)
	if err != nil || first.Cached {
		t.Fatalf("first run: cached=%v err=%v", first.Cached, err)
	}
	second, err := ResolveFile(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Unit != nil {
		t.Fatalf("second run was not served from cache")
	}
	if diff := cmp.Diff(first.Summary, second.Summary); diff != "" {
		t.Fatalf("cached summary mismatch (-first +second):\n%s", diff)
	}

	// other base warning levels are another key
	opts.Warnings = []settings.Override{{Category: settings.UnusedVariable, Level: settings.NoWarning}}
	third, err := ResolveFile(context.Background(), path, opts)
	if err != nil || third.Cached {
		t.Fatalf("third run: cached=%v err=%v", third.Cached, err)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
}

func TestDiskCacheKeepsIdenticalUnitsApart(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	content := "body:\n  - let: x\n"
	first := writeUnit(t, dir, filepath.Join("a", "first"+fixture.Ext), content)
	second := writeUnit(t, dir, filepath.Join("b", "second"+fixture.Ext), content)
	opts := Options{Cache: cache, BaseDir: dir}

	if _, err := ResolveFile(context.Background(), first, opts); err != nil {
		t.Fatal(err)
	}
	res, err := ResolveFile(context.Background(), second, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Fatalf("identical content at another path was served from cache")
	}
	if res.Summary.Path != second {
		t.Fatalf("summary path = %q, want %q", res.Summary.Path, second)
	}
	want := []string{`warning LNT3001 b/second.unit.yaml:2:10 variable "x" is never read`}
	if diff := cmp.Diff(want, res.Summary.Diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	again, err := ResolveFile(context.Background(), second, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Cached || again.Summary.Path != second {
		t.Fatalf("second unit not cached under its own key: cached=%v path=%q", again.Cached, again.Summary.Path)
	}
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "b"+fixture.Ext, "body:\n  - let: x\n  - read: x\n")
	writeUnit(t, dir, "a"+fixture.Ext, "body:\n  - read: nope\n")
	writeUnit(t, dir, filepath.Join("sub", "c"+fixture.Ext), "body: [\n")
	writeUnit(t, dir, "notes.txt", "ignored")

	var rec pipeline.Recorder
	results, err := ResolveDir(context.Background(), dir, Options{Jobs: 2, Progress: &rec})
	if err != nil {
		t.Fatalf("resolve dir: %v", err)
	}
	var names []string
	for _, r := range results {
		names = append(names, filepath.Base(r.Path))
	}
	if diff := cmp.Diff([]string{"a.unit.yaml", "b.unit.yaml", "c.unit.yaml"}, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	a, b, c := results[0], results[1], results[2]
	if a.Err != nil || a.Resolved || !a.Bag.HasErrors() {
		t.Fatalf("a: err=%v resolved=%v", a.Err, a.Resolved)
	}
	if b.Err != nil || !b.Resolved || b.Stats.Globals != 1 {
		t.Fatalf("b: err=%v stats=%+v", b.Err, b.Stats)
	}
	if c.Err == nil {
		t.Fatalf("c: expected a syntax error")
	}
	if a.FileSet == b.FileSet {
		t.Fatalf("units must not share a file set")
	}

	queued := 0
	for _, ev := range rec.Events() {
		if ev.Status == pipeline.StatusQueued {
			queued++
		}
	}
	if queued != 3 {
		t.Fatalf("queued events = %d", queued)
	}
}

func TestResolveDirHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "a"+fixture.Ext, "body: []\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ResolveDir(ctx, dir, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
