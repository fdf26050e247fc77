package types

import "fmt"

// Sentinel enumerates the primitive types of the checker.
type Sentinel uint8

const (
	Failure Sentinel = iota
	Void
	Boolean
	String
	Numeric
	Unknown

	numSentinels
)

var sentinelNames = [numSentinels]string{
	Failure: "Failure",
	Void:    "Void",
	Boolean: "Boolean",
	String:  "String",
	Numeric: "Numeric",
	Unknown: "Unknown",
}

func (s Sentinel) String() string {
	if s < numSentinels {
		return sentinelNames[s]
	}
	return fmt.Sprintf("Sentinel(%d)", s)
}

// SetID identifies a canonical function set inside an Interner.
type SetID uint32

// NoSetID is never handed out; record 0 is reserved.
const NoSetID SetID = 0

// Kind tags the variant a Type holds.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindFunctionSet
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindFunctionSet:
		return "function-set"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a comparable type value: either a primitive sentinel or a handle
// to a canonical abstract function set. Two function-set values are equal
// iff they denote the same candidate set within one Interner.
// The zero value is Primitive(Failure).
type Type struct {
	kind     Kind
	sentinel Sentinel
	set      SetID
}

// Primitive wraps a sentinel.
func Primitive(s Sentinel) Type {
	return Type{kind: KindPrimitive, sentinel: s}
}

func (t Type) Kind() Kind { return t.kind }

// IsFunctionSet reports whether t denotes an abstract function set.
func (t Type) IsFunctionSet() bool { return t.kind == KindFunctionSet }

// Sentinel returns the primitive tag; ok is false for function sets.
func (t Type) Sentinel() (Sentinel, bool) {
	if t.kind != KindPrimitive {
		return 0, false
	}
	return t.sentinel, true
}

// Set returns the set handle; ok is false for primitives.
func (t Type) Set() (SetID, bool) {
	if t.kind != KindFunctionSet {
		return NoSetID, false
	}
	return t.set, true
}
