package ast

import "fmt"

// Op is the operator tag of a node.
type Op uint8

const (
	OpInvalid Op = iota
	// OpIdentifier is a declaration site or a read of a stack local.
	OpIdentifier
	// OpReadGlobal reads a top-level variable through GlobalIndex.
	OpReadGlobal
	// OpReadUpvalue reads a closure cell through ClosureIndex.
	OpReadUpvalue
	OpList
	OpBlock
	// OpAlgorithm is a named multi-statement function.
	OpAlgorithm
	// OpLambda is an anonymous expression function.
	OpLambda
	OpCall
	OpAssign
	OpNumber
)

func (op Op) String() string {
	switch op {
	case OpIdentifier:
		return "Identifier"
	case OpReadGlobal:
		return "ReadGlobal"
	case OpReadUpvalue:
		return "ReadUpvalue"
	case OpList:
		return "List"
	case OpBlock:
		return "Block"
	case OpAlgorithm:
		return "Algorithm"
	case OpLambda:
		return "Lambda"
	case OpCall:
		return "Call"
	case OpAssign:
		return "Assign"
	case OpNumber:
		return "Number"
	case OpInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("Op(%d)", op)
	}
}

// IsClosure reports whether nodes with this op open a closure.
func (op Op) IsClosure() bool {
	return op == OpAlgorithm || op == OpLambda
}

// Argument layout of closure-defining nodes.
//
//	Algorithm: [name, params, upvalues, body, captured]
//	Lambda:    [upvalues, params, body, captured]
//
// "upvalues" is filled in by the resolver; "captured" lists explicit
// by-value capture bindings written in the source.
const (
	AlgorithmNameArg     = 0
	AlgorithmParamsArg   = 1
	AlgorithmUpvaluesArg = 2
	AlgorithmBodyArg     = 3
	AlgorithmCapturedArg = 4

	LambdaUpvaluesArg = 0
	LambdaParamsArg   = 1
	LambdaBodyArg     = 2
	LambdaCapturedArg = 3
)

// UpvaluesArg returns the argument slot holding the capture list of a
// closure-defining op.
func UpvaluesArg(op Op) (int, bool) {
	switch op {
	case OpAlgorithm:
		return AlgorithmUpvaluesArg, true
	case OpLambda:
		return LambdaUpvaluesArg, true
	default:
		return 0, false
	}
}
