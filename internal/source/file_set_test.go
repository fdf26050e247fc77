package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("unit.yaml", []byte("body: []"), 0)
	id2 := fs.Add("unit.yaml", []byte("body: [x]"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids for re-added path")
	}
	latest, ok := fs.GetLatest("unit.yaml")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	// старая версия остаётся доступной
	if got := string(fs.Get(id1).Content); got != "body: []" {
		t.Fatalf("first version lost: %q", got)
	}
}

func TestResolveAndOffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("v.yaml", []byte("a: 1\nbb: 2\n\nccc: 3"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{3, LineCol{1, 4}},
		{5, LineCol{2, 1}},
		{7, LineCol{2, 3}},
		{11, LineCol{3, 1}},
		{12, LineCol{4, 1}},
		{15, LineCol{4, 4}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start != tc.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tc.off, start, tc.want)
		}
		if back := fs.Offset(id, tc.want); back != tc.off {
			t.Errorf("Offset(%+v) = %d, want %d", tc.want, back, tc.off)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("v.yaml", []byte("first\nsecond\nthird")))
	if got := f.GetLine(2); got != "second" {
		t.Fatalf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(3); got != "third" {
		t.Fatalf("GetLine(3) = %q", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Fatalf("GetLine(9) = %q, want empty", got)
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.yaml")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa: 1\r\nb: 2\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a: 1\nb: 2\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}
