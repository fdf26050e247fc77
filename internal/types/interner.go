package types

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"forscape/internal/ast"
)

// setKey is the canonical map key of a sorted candidate vector.
type setKey string

type setRecord struct {
	candidates []ast.NodeID // sorted, no duplicates
}

// Interner owns every abstract function set of one compilation unit.
// Equal candidate sets always map to the same SetID, so set equality is
// Type equality. Not safe for concurrent use.
type Interner struct {
	records []setRecord
	index   map[setKey]SetID
}

// NewInterner constructs an empty interner.
func NewInterner() *Interner {
	in := &Interner{}
	in.Reset()
	return in
}

// Reset discards every record and canonical entry.
func (in *Interner) Reset() {
	in.records = append(in.records[:0], setRecord{}) // reserve 0 as invalid sentinel
	in.index = make(map[setKey]SetID, 32)
}

// Len returns the number of function-set records allocated so far.
func (in *Interner) Len() int {
	return len(in.records) - 1
}

// MakeSet returns the canonical singleton set {fn}.
func (in *Interner) MakeSet(fn ast.NodeID) Type {
	return in.canonical([]ast.NodeID{fn})
}

// Union returns the canonical set containing the candidates of a and b.
// Both operands must be function sets.
func (in *Interner) Union(a, b Type) Type {
	ra := in.record(a)
	rb := in.record(b)
	if a == b {
		return a
	}

	lhs, rhs := ra.candidates, rb.candidates
	merged := make([]ast.NodeID, 0, len(lhs)+len(rhs))
	i, j := 0, 0
	for i < len(lhs) && j < len(rhs) {
		switch {
		case lhs[i] < rhs[j]:
			merged = append(merged, lhs[i])
			i++
		case rhs[j] < lhs[i]:
			merged = append(merged, rhs[j])
			j++
		default:
			merged = append(merged, lhs[i])
			i++
			j++
		}
	}
	merged = append(merged, lhs[i:]...)
	merged = append(merged, rhs[j:]...)
	return in.canonical(merged)
}

// NumElements returns the number of candidates in a function set.
func (in *Interner) NumElements(t Type) int {
	return len(in.record(t).candidates)
}

// Candidate returns the i-th smallest candidate of a function set.
func (in *Interner) Candidate(t Type, i int) ast.NodeID {
	rec := in.record(t)
	if i < 0 || i >= len(rec.candidates) {
		panic(fmt.Errorf("types: candidate index %d out of range [0,%d)", i, len(rec.candidates)))
	}
	return rec.candidates[i]
}

// Candidates returns a copy of the candidate vector of a function set.
func (in *Interner) Candidates(t Type) []ast.NodeID {
	rec := in.record(t)
	out := make([]ast.NodeID, len(rec.candidates))
	copy(out, rec.candidates)
	return out
}

// Contains reports whether fn is a candidate of the function set t.
func (in *Interner) Contains(t Type, fn ast.NodeID) bool {
	c := in.record(t).candidates
	k := sort.Search(len(c), func(i int) bool { return c[i] >= fn })
	return k < len(c) && c[k] == fn
}

// TypeString renders t for diagnostics.
func (in *Interner) TypeString(t Type) string {
	if s, ok := t.Sentinel(); ok {
		return s.String()
	}
	rec := in.record(t)
	var b strings.Builder
	b.WriteByte('{')
	for i, fn := range rec.candidates {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatUint(uint64(fn), 10))
	}
	b.WriteString("} : AbstractFunctionSet")
	return b.String()
}

// record returns the storage of a function set, panicking on primitives
// and foreign handles.
func (in *Interner) record(t Type) *setRecord {
	id, ok := t.Set()
	if !ok {
		panic(fmt.Errorf("types: %s is not a function set", t.sentinel))
	}
	if id == NoSetID || int(id) >= len(in.records) {
		panic(fmt.Errorf("types: unknown function set %d", id))
	}
	return &in.records[id]
}

// canonical returns the unique Type for a sorted deduplicated vector,
// allocating a record only the first time the vector is seen.
func (in *Interner) canonical(candidates []ast.NodeID) Type {
	key := keyOf(candidates)
	if id, ok := in.index[key]; ok {
		return Type{kind: KindFunctionSet, set: id}
	}
	n, err := safecast.Conv[uint32](len(in.records))
	if err != nil {
		panic(fmt.Errorf("len(records) overflow: %w", err))
	}
	id := SetID(n)
	in.records = append(in.records, setRecord{candidates: candidates})
	in.index[key] = id
	return Type{kind: KindFunctionSet, set: id}
}

func keyOf(candidates []ast.NodeID) setKey {
	buf := make([]byte, 4*len(candidates))
	for i, fn := range candidates {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(fn))
	}
	return setKey(buf)
}
