package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"forscape/internal/ast"
)

func TestMakeSetIsCanonical(t *testing.T) {
	in := NewInterner()
	a := in.MakeSet(7)
	b := in.MakeSet(7)
	if a != b {
		t.Fatalf("MakeSet(7) twice produced different values")
	}
	if in.Len() != 1 {
		t.Fatalf("expected one record, got %d", in.Len())
	}
	if c := in.MakeSet(8); c == a {
		t.Fatalf("different nodes must produce different sets")
	}
}

func TestUnionCommutativeAndIdempotent(t *testing.T) {
	in := NewInterner()
	a := in.MakeSet(1)
	b := in.MakeSet(2)

	ab := in.Union(a, b)
	ba := in.Union(b, a)
	if ab != ba {
		t.Fatalf("union is not commutative")
	}

	before := in.Len()
	if got := in.Union(ab, ab); got != ab {
		t.Fatalf("Union(a,a) != a")
	}
	if in.Len() != before {
		t.Fatalf("Union(a,a) allocated a record")
	}
}

func TestUnionMergesAndDeduplicates(t *testing.T) {
	in := NewInterner()
	left := in.Union(in.MakeSet(1), in.MakeSet(3))
	right := in.Union(in.MakeSet(2), in.MakeSet(3))
	all := in.Union(left, right)

	if n := in.NumElements(all); n != 3 {
		t.Fatalf("NumElements = %d, want 3", n)
	}
	want := []ast.NodeID{1, 2, 3}
	if diff := cmp.Diff(want, in.Candidates(all)); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
	for i, fn := range want {
		if got := in.Candidate(all, i); got != fn {
			t.Fatalf("Candidate(%d) = %d, want %d", i, got, fn)
		}
	}
	if !in.Contains(all, 2) || in.Contains(all, 4) {
		t.Fatalf("Contains disagrees with candidate vector")
	}

	// the same set reached through a different fold is the same value
	other := in.Union(in.MakeSet(3), in.Union(in.MakeSet(2), in.MakeSet(1)))
	if other != all {
		t.Fatalf("equal candidate sets must be equal types")
	}
}

func TestCandidatesReturnsCopy(t *testing.T) {
	in := NewInterner()
	s := in.Union(in.MakeSet(4), in.MakeSet(5))
	c := in.Candidates(s)
	c[0] = 99
	if in.Candidate(s, 0) != 4 {
		t.Fatalf("Candidates leaked interner storage")
	}
}

func TestTypeString(t *testing.T) {
	in := NewInterner()
	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"failure", Primitive(Failure), "Failure"},
		{"numeric", Primitive(Numeric), "Numeric"},
		{"zero value", Type{}, "Failure"},
		{"singleton", in.MakeSet(12), "{12} : AbstractFunctionSet"},
		{"pair", in.Union(in.MakeSet(3), in.MakeSet(1)), "{1, 3} : AbstractFunctionSet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := in.TypeString(tt.typ); got != tt.want {
				t.Fatalf("TypeString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnionOfPrimitivePanics(t *testing.T) {
	in := NewInterner()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for union with a primitive")
		}
	}()
	in.Union(in.MakeSet(1), Primitive(Numeric))
}

func TestNumElementsOfPrimitivePanics(t *testing.T) {
	in := NewInterner()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	in.NumElements(Primitive(Boolean))
}

func TestReset(t *testing.T) {
	in := NewInterner()
	in.MakeSet(1)
	in.MakeSet(2)
	in.Reset()
	if in.Len() != 0 {
		t.Fatalf("Reset left %d records", in.Len())
	}
	s := in.MakeSet(2)
	if id, _ := s.Set(); id != 1 {
		t.Fatalf("first set after reset has id %d", id)
	}
}
