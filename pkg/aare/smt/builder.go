// Package smt defines the abstract SMT expression builder the Formula
// Compiler targets, and the Oracle the Verifier drives, per spec §4.3's
// "black-box oracle exposing fresh_context, declare, assert, check."
// The concrete binding to Z3 lives in z3oracle.go; apart from
// pkg/aare's NewCore, which calls NewZ3Factory, the rest of this module
// depends only on this file's interfaces, so tests can substitute a
// fake builder/oracle (fake.go) without cgo.
package smt

import "github.com/aare-ai/aarecore/pkg/aare/value"

// Expr is an opaque compiled expression handle. Its concrete type is
// whatever the active Builder produces; callers never inspect it.
type Expr any

// Builder constructs SMT expressions for one solver context. The
// Formula Compiler is the only caller.
type Builder interface {
	BoolLit(b bool) Expr
	IntLit(i int64) Expr
	RealLit(r float64) Expr

	// Declare introduces a fresh symbolic constant of the given sort,
	// per spec §4.3's declare(name, sort) oracle operation. The Formula
	// Compiler declares one constant per variable reference and pins it
	// to the environment's value with an Eq assertion, rather than
	// baking the value into the formula as a literal.
	Declare(name string, sort value.Sort) Expr

	Not(a Expr) Expr
	And(args ...Expr) Expr
	Or(args ...Expr) Expr
	Implies(a, b Expr) Expr
	Ite(cond, then, els Expr) Expr

	Eq(a, b Expr) Expr
	Neq(a, b Expr) Expr
	Lt(a, b Expr) Expr
	Lte(a, b Expr) Expr
	Gt(a, b Expr) Expr
	Gte(a, b Expr) Expr

	Add(args ...Expr) Expr
	Sub(a, b Expr) Expr
	Mul(args ...Expr) Expr
	Div(a, b Expr, realDiv bool) Expr

	// ToReal promotes an Int-sorted expression to Real, for the mixed-
	// sort arithmetic promotion rule in spec §4.2.
	ToReal(a Expr) Expr
}

// CheckResult is the solver's verdict for one check() call.
type CheckResult int

const (
	Unknown CheckResult = iota
	Sat
	Unsat
)

func (r CheckResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Oracle is one solver context scoped to a single verification
// request, per spec §4.3 and §9 ("Scope each solver context to a
// single verification request; acquire on entry, release on all exit
// paths"). It is also a Builder: expressions and assertions share one
// context.
type Oracle interface {
	Builder

	// Assert adds a constraint to the context.
	Assert(e Expr)

	// Check asks the solver whether the asserted constraints are
	// satisfiable, returning Unknown with a reason string on timeout
	// or solver failure.
	Check() (CheckResult, string)

	// Close releases the underlying native solver/context resources.
	// It is safe to call more than once.
	Close()
}

// OracleFactory creates a fresh Oracle for one verification request,
// per spec §4.3's fresh_context(). timeoutMS guards every Check() call
// made on the returned Oracle.
type OracleFactory interface {
	FreshContext(timeoutMS int) Oracle
}
