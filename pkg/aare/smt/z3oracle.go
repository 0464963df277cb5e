//go:build cgo

package smt

import (
	"fmt"
	"strconv"

	z3 "github.com/vhavlena/z3-go/z3"

	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// z3Factory creates Z3-backed oracles. One factory is shared process-
// wide; each FreshContext call still mints its own z3.Context and
// z3.Solver so that no native Z3 state crosses request boundaries,
// matching spec §5's "confine each solver context to a single thread
// for its lifetime."
type z3Factory struct{}

// NewZ3Factory returns the default OracleFactory, backed by Z3 via
// github.com/vhavlena/z3-go.
func NewZ3Factory() OracleFactory { return z3Factory{} }

func (z3Factory) FreshContext(timeoutMS int) Oracle {
	cfg := z3.NewConfig()
	if timeoutMS > 0 {
		cfg.SetParam("timeout", strconv.Itoa(timeoutMS))
	}
	ctx := z3.NewContext(cfg)
	cfg.Close()

	return &z3Oracle{
		ctx:    ctx,
		solver: ctx.NewSolver(),
	}
}

type z3Oracle struct {
	ctx    *z3.Context
	solver *z3.Solver
	closed bool

	divCounter int
}

func (o *z3Oracle) BoolLit(b bool) Expr { return z3Expr{o.ctx.BoolVal(b)} }
func (o *z3Oracle) IntLit(i int64) Expr { return z3Expr{o.ctx.IntVal(i)} }
func (o *z3Oracle) RealLit(r float64) Expr {
	return z3Expr{o.ctx.RealVal(strconv.FormatFloat(r, 'f', -1, 64))}
}

// Declare creates a named Z3 constant of the given sort. The compiler
// pins it to a concrete value with an Eq assertion rather than this
// method taking a value directly, matching spec §4.3's
// declare/assert split.
func (o *z3Oracle) Declare(name string, sort value.Sort) Expr {
	var s z3.Sort
	switch sort {
	case value.SortBool:
		s = o.ctx.BoolSort()
	case value.SortInt:
		s = o.ctx.IntSort()
	default: // value.SortReal
		s = o.ctx.RealSort()
	}
	return z3Expr{o.ctx.Const(name, s)}
}

func (o *z3Oracle) Not(a Expr) Expr { return z3Expr{asAST(a).Not()} }

func (o *z3Oracle) And(args ...Expr) Expr { return z3Expr{z3.And(asASTs(args)...)} }
func (o *z3Oracle) Or(args ...Expr) Expr  { return z3Expr{z3.Or(asASTs(args)...)} }

func (o *z3Oracle) Implies(a, b Expr) Expr { return z3Expr{z3.Implies(asAST(a), asAST(b))} }
func (o *z3Oracle) Ite(cond, then, els Expr) Expr {
	return z3Expr{z3.Ite(asAST(cond), asAST(then), asAST(els))}
}

func (o *z3Oracle) Eq(a, b Expr) Expr  { return z3Expr{z3.Eq(asAST(a), asAST(b))} }
func (o *z3Oracle) Neq(a, b Expr) Expr { return z3Expr{z3.Eq(asAST(a), asAST(b)).Not()} }
func (o *z3Oracle) Lt(a, b Expr) Expr  { return z3Expr{z3.Lt(asAST(a), asAST(b))} }
func (o *z3Oracle) Lte(a, b Expr) Expr { return z3Expr{z3.Le(asAST(a), asAST(b))} }
func (o *z3Oracle) Gt(a, b Expr) Expr  { return z3Expr{z3.Gt(asAST(a), asAST(b))} }
func (o *z3Oracle) Gte(a, b Expr) Expr { return z3Expr{z3.Ge(asAST(a), asAST(b))} }

func (o *z3Oracle) Add(args ...Expr) Expr { return z3Expr{z3.Add(asASTs(args)...)} }
func (o *z3Oracle) Sub(a, b Expr) Expr    { return z3Expr{z3.Sub(asAST(a), asAST(b))} }
func (o *z3Oracle) Mul(args ...Expr) Expr { return z3Expr{z3.Mul(asASTs(args)...)} }

// Div has no native constructor anywhere in the binding (no mk_div
// wrapper exists alongside Add/Sub/Mul), so the quotient is built the
// same way Declare builds a symbolic constant: mint a fresh named
// result constant with Const, then define it with an SMT-LIB2 "/" (Real
// field division) or "div" (Int division) assertion parsed straight
// into the solver via AssertSMTLIB2String, the one escape hatch the
// binding exposes for operators it doesn't wrap directly. Z3's own
// pretty-printer output for a and b (AST.String(), backed by
// Z3_ast_to_string) is valid SMT-LIB2 term syntax, so it can be spliced
// directly into the assertion text.
func (o *z3Oracle) Div(a, b Expr, realDiv bool) Expr {
	sort := o.ctx.RealSort()
	op := "/"
	if !realDiv {
		sort = o.ctx.IntSort()
		op = "div"
	}
	o.divCounter++
	name := fmt.Sprintf("$aare_div_%d", o.divCounter)
	ref := o.ctx.Const(name, sort)
	script := fmt.Sprintf("(assert (= %s (%s %s %s)))", name, op, asAST(a).String(), asAST(b).String())
	if err := o.solver.AssertSMTLIB2String(script); err != nil {
		panic(fmt.Sprintf("smt: division constraint rejected by solver: %v", err))
	}
	return z3Expr{ref}
}

func (o *z3Oracle) ToReal(a Expr) Expr {
	// Promote by multiplying by the real literal 1.0; Z3 unifies the
	// resulting sort to Real, which is sufficient for the mixed-sort
	// arithmetic promotion rule and avoids depending on a ToReal
	// primitive the prototype binding doesn't expose.
	return z3Expr{z3.Mul(asAST(a), o.ctx.RealVal("1"))}
}

func (o *z3Oracle) Assert(e Expr) { o.solver.Assert(asAST(e)) }

func (o *z3Oracle) Check() (CheckResult, string) {
	res, err := o.solver.Check()
	switch res {
	case z3.Sat:
		return Sat, ""
	case z3.Unsat:
		return Unsat, ""
	default:
		reason := "unknown"
		if err != nil {
			reason = err.Error()
		}
		return Unknown, reason
	}
}

func (o *z3Oracle) Close() {
	if o.closed {
		return
	}
	o.closed = true
	o.solver.Close()
	o.ctx.Close()
}

type z3Expr struct{ a z3.AST }

func asAST(e Expr) z3.AST {
	ze, ok := e.(z3Expr)
	if !ok {
		panic(fmt.Sprintf("smt: expected z3Expr, got %T", e))
	}
	return ze.a
}

func asASTs(es []Expr) []z3.AST {
	out := make([]z3.AST, len(es))
	for i, e := range es {
		out[i] = asAST(e)
	}
	return out
}
