package source

import "testing"

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID должен возвращать пустую строку, got %q", s)
	}
	a := in.Intern("x̂")
	b := in.Intern("x̂")
	c := in.Intern("y")
	if a != b {
		t.Fatalf("same string interned twice: %d != %d", a, b)
	}
	if a == c || a == NoStringID {
		t.Fatalf("unexpected ids a=%d c=%d", a, c)
	}
	if in.MustLookup(c) != "y" {
		t.Fatalf("lookup mismatch")
	}
	if in.Len() != 3 {
		t.Fatalf("Len = %d, want 3", in.Len())
	}
}

func TestSpanCoverAndContains(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 5}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 8 {
		t.Fatalf("Cover = %v", got)
	}
	if !got.Contains(a) || a.Contains(got) {
		t.Fatalf("Contains mismatch")
	}
	if other := a.Cover(Span{File: 2, Start: 0, End: 99}); other != a {
		t.Fatalf("cross-file cover must be a no-op")
	}
}
