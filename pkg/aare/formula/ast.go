// Package formula implements the Formula Compiler: a recursive
// translator from JSON formula trees to a typed SMT abstract syntax,
// with strict well-formedness checking performed at compile time.
package formula

import "github.com/aare-ai/aarecore/pkg/aare/value"

// Op tags which operator family a Node holds. Matching the Design Note
// in spec §9, this is a tagged variant with one case per operator
// family rather than a string-keyed dispatch table.
type Op int

const (
	OpLiteral Op = iota
	OpVar
	OpNot
	OpAnd
	OpOr
	OpImplies
	OpIte
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
)

// Node is a formula tree node: a tagged variant over logical op,
// comparison op, arithmetic op, literal, variable reference, and
// if-then-else, per spec §3's "Formula node" entity.
type Node struct {
	Op Op

	// OpLiteral
	LitIsBool bool // true: use LitBool; false: use LitNum/LitIsInt
	LitBool   bool
	LitNum    float64
	LitIsInt  bool

	// OpVar
	Var string

	// OpNot, OpIte: Args[0] is the condition/negated operand
	// OpAnd/OpOr: Args is n-ary (n >= 1)
	// OpImplies, comparisons, arithmetic: Args is binary (len 2),
	//   except OpIte which is ternary (len 3): [cond, then, else]
	Args []*Node
}

// Decl is a variable declaration scoped to one constraint: the name
// referenced inside the constraint's formula and its declared sort.
type Decl struct {
	Name string
	Sort value.Sort
}
