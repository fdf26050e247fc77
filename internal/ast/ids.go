package ast

// NodeID is an opaque handle into a Tree.
type NodeID uint32

// NoNodeID marks an absent node (empty argument slot, no closure).
const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// Unset is the value of an operand slot nothing has written yet.
const Unset = ^uint32(0)
