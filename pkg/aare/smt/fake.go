package smt

import (
	"fmt"

	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// FakeFactory builds in-process Oracles that evaluate expressions
// directly in Go instead of delegating to Z3. It exists so the Formula
// Compiler and Verifier can be unit tested without cgo, mirroring how
// korel's tests swap store.Store for memstore.Store rather than
// exercising real infrastructure.
//
// A fakeExpr is either a closed Go value (bool | int64 | float64) or an
// unresolved reference to a Declare'd variable. The compiler always
// pins a declared variable to a concrete value with an Eq assertion
// before using it anywhere else, so by the time a reference reaches
// any operator other than Assert it already resolves to a ground
// value; this lets Check() decide by literal evaluation instead of
// search.
type FakeFactory struct{}

func (FakeFactory) FreshContext(timeoutMS int) Oracle {
	return &fakeOracle{vars: make(map[string]fakeExpr)}
}

type fakeOracle struct {
	asserted []bool
	vars     map[string]fakeExpr
}

type fakeExpr struct {
	boolVal bool
	numVal  float64
	isInt   bool
	isBool  bool

	// ref names an as-yet-unresolved Declare'd variable; every other
	// field is meaningless until resolve() looks it up in the owning
	// oracle's vars map.
	ref string

	// pin fields are set only by Eq when exactly one operand is an
	// unresolved reference. Assert recognizes them and binds the
	// variable instead of treating the expression as an ordinary
	// boolean assertion, mirroring how a real solver's Check()
	// resolves a declared constant through an equality constraint
	// rather than the compiler baking the value in directly.
	pinName    string
	pinNumVal  float64
	pinBoolVal bool
	pinIsBool  bool
	pinIsInt   bool
}

func fb(b bool) Expr    { return fakeExpr{boolVal: b, isBool: true} }
func fi(i int64) Expr   { return fakeExpr{numVal: float64(i), isInt: true} }
func fr(r float64) Expr { return fakeExpr{numVal: r} }

func asFakeExpr(e Expr) fakeExpr {
	fe, ok := e.(fakeExpr)
	if !ok {
		panic(fmt.Sprintf("smt: fake oracle got non-fake expr %T", e))
	}
	return fe
}

// resolve looks up an unresolved variable reference against the
// oracle's current bindings, established by Assert's pin handling.
func (o *fakeOracle) resolve(e Expr) fakeExpr {
	fe := asFakeExpr(e)
	if fe.ref == "" {
		return fe
	}
	if bound, ok := o.vars[fe.ref]; ok {
		return bound
	}
	return fe
}

// Declare returns an unresolved reference to name; resolve() falls
// back to its zero value if the compiler's Assert(Eq(ref, literal))
// pin never runs, which never happens in practice since compileVar
// always pins immediately after declaring.
func (o *fakeOracle) Declare(name string, sort value.Sort) Expr {
	return fakeExpr{ref: name}
}

func (o *fakeOracle) BoolLit(b bool) Expr    { return fb(b) }
func (o *fakeOracle) IntLit(i int64) Expr    { return fi(i) }
func (o *fakeOracle) RealLit(r float64) Expr { return fr(r) }

func (o *fakeOracle) Not(a Expr) Expr { return fb(!o.resolve(a).boolVal) }

func (o *fakeOracle) And(args ...Expr) Expr {
	for _, a := range args {
		if !o.resolve(a).boolVal {
			return fb(false)
		}
	}
	return fb(true)
}

func (o *fakeOracle) Or(args ...Expr) Expr {
	for _, a := range args {
		if o.resolve(a).boolVal {
			return fb(true)
		}
	}
	return fb(false)
}

func (o *fakeOracle) Implies(a, b Expr) Expr {
	return fb(!o.resolve(a).boolVal || o.resolve(b).boolVal)
}

func (o *fakeOracle) Ite(cond, then, els Expr) Expr {
	if o.resolve(cond).boolVal {
		return then
	}
	return els
}

// Eq evaluates genuine equality by resolved value. When exactly one
// operand is an unresolved Declare'd reference, the result additionally
// carries pin metadata that Assert recognizes to bind the reference —
// matching how compileVar pins a variable to its environment value.
// Everywhere else (And/Or/Not/Neq/...) only the resolved boolVal is
// read, so the pin metadata is inert unless the expression is Asserted
// directly and unwrapped, exactly compileVar's own usage.
func (o *fakeOracle) Eq(a, b Expr) Expr {
	fa, fbv := asFakeExpr(a), asFakeExpr(b)
	ra, rb := o.resolve(a), o.resolve(b)

	eq := ra.numVal == rb.numVal
	if ra.isBool || rb.isBool {
		eq = ra.boolVal == rb.boolVal
	}
	result := fakeExpr{boolVal: eq, isBool: true}

	switch {
	case fa.ref != "" && fbv.ref == "":
		result.pinName, result.pinNumVal = fa.ref, fbv.numVal
		result.pinBoolVal, result.pinIsBool, result.pinIsInt = fbv.boolVal, fbv.isBool, fbv.isInt
	case fbv.ref != "" && fa.ref == "":
		result.pinName, result.pinNumVal = fbv.ref, fa.numVal
		result.pinBoolVal, result.pinIsBool, result.pinIsInt = fa.boolVal, fa.isBool, fa.isInt
	}
	return result
}

func (o *fakeOracle) Neq(a, b Expr) Expr {
	return fb(!asFakeExpr(o.Eq(a, b)).boolVal)
}
func (o *fakeOracle) Lt(a, b Expr) Expr {
	return fb(o.resolve(a).numVal < o.resolve(b).numVal)
}
func (o *fakeOracle) Lte(a, b Expr) Expr {
	return fb(o.resolve(a).numVal <= o.resolve(b).numVal)
}
func (o *fakeOracle) Gt(a, b Expr) Expr {
	return fb(o.resolve(a).numVal > o.resolve(b).numVal)
}
func (o *fakeOracle) Gte(a, b Expr) Expr {
	return fb(o.resolve(a).numVal >= o.resolve(b).numVal)
}

func (o *fakeOracle) Add(args ...Expr) Expr {
	sum, allInt := 0.0, true
	for _, a := range args {
		fa := o.resolve(a)
		sum += fa.numVal
		allInt = allInt && fa.isInt
	}
	return numExpr(sum, allInt)
}

func (o *fakeOracle) Sub(a, b Expr) Expr {
	fa, fbv := o.resolve(a), o.resolve(b)
	return numExpr(fa.numVal-fbv.numVal, fa.isInt && fbv.isInt)
}

func (o *fakeOracle) Mul(args ...Expr) Expr {
	product, allInt := 1.0, true
	for _, a := range args {
		fa := o.resolve(a)
		product *= fa.numVal
		allInt = allInt && fa.isInt
	}
	return numExpr(product, allInt)
}

func (o *fakeOracle) Div(a, b Expr, realDiv bool) Expr {
	fa, fbv := o.resolve(a), o.resolve(b)
	if fbv.numVal == 0 {
		return numExpr(0, !realDiv)
	}
	if realDiv {
		return numExpr(fa.numVal/fbv.numVal, false)
	}
	return numExpr(float64(int64(fa.numVal)/int64(fbv.numVal)), true)
}

func (o *fakeOracle) ToReal(a Expr) Expr { return numExpr(o.resolve(a).numVal, false) }

func numExpr(v float64, isInt bool) Expr { return fakeExpr{numVal: v, isInt: isInt} }

// Assert records an ordinary boolean assertion, or — when e is a pin
// produced by Eq(ref, literal) — binds the declared variable to that
// literal instead, per spec §4.3's declare/assert split.
func (o *fakeOracle) Assert(e Expr) {
	fe := asFakeExpr(e)
	if fe.pinName != "" {
		o.vars[fe.pinName] = fakeExpr{
			boolVal: fe.pinBoolVal, numVal: fe.pinNumVal,
			isBool: fe.pinIsBool, isInt: fe.pinIsInt,
		}
		o.asserted = append(o.asserted, true)
		return
	}
	o.asserted = append(o.asserted, fe.boolVal)
}

func (o *fakeOracle) Check() (CheckResult, string) {
	for _, v := range o.asserted {
		if !v {
			return Unsat, ""
		}
	}
	return Sat, ""
}

func (o *fakeOracle) Close() {}
