package formula

import (
	"fmt"

	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
	"github.com/aare-ai/aarecore/pkg/aare/smt"
	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// Compile translates a validated formula tree, plus the constraint's
// variable declarations and a fully-resolved environment (every
// declared name already present with a value of its declared sort —
// the Verifier guarantees this at step 1, substituting typed defaults
// for anything missing or sort-incompatible), into a closed Boolean
// SMT expression against the given Oracle.
//
// Per §4.3's declare/assert oracle contract, each bare-string operand
// is compiled by declaring a fresh symbolic constant for its variable
// name and asserting an equality pinning it to the environment's
// value (see compileVar), rather than substituting the value directly
// as a literal. The resulting formula is still closed under the
// environment in the sense of §3 — every declared name is pinned to a
// single ground value before Check() ever runs — but the pinning
// itself is expressed as a solver assertion, not a compile-time
// substitution.
func Compile(node *Node, decls []Decl, env map[string]value.Value, b smt.Oracle) (smt.Expr, error) {
	declByName := make(map[string]value.Sort, len(decls))
	seen := make(map[string]value.Sort, len(decls))
	for _, d := range decls {
		if prior, dup := seen[d.Name]; dup && prior != d.Sort {
			return nil, fmt.Errorf("variable %q declared twice with conflicting sorts", d.Name)
		}
		seen[d.Name] = d.Sort
		declByName[d.Name] = d.Sort
	}

	expr, sort, err := compileNode(node, declByName, env, b)
	if err != nil {
		return nil, err
	}
	if sort != value.SortBool {
		return nil, fmt.Errorf("formula must be boolean, got %s", sort)
	}
	return expr, nil
}

// compileNode returns the compiled expression together with the sort
// it produces, so callers (binary/ternary operators, Compile's root
// check) can validate operand and result sorts per §4.2's
// well-formedness rules.
func compileNode(n *Node, decls map[string]value.Sort, env map[string]value.Value, b smt.Oracle) (smt.Expr, value.Sort, error) {
	switch n.Op {
	case OpLiteral:
		return compileLiteral(n, b)

	case OpVar:
		return compileVar(n.Var, decls, env, b)

	case OpNot:
		a, sort, err := compileNode(n.Args[0], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		if sort != value.SortBool {
			return nil, 0, fmt.Errorf("not: operand must be boolean, got %s", sort)
		}
		return b.Not(a), value.SortBool, nil

	case OpAnd, OpOr:
		if len(n.Args) < 1 {
			return nil, 0, fmt.Errorf("and/or requires at least one operand")
		}
		exprs := make([]smt.Expr, len(n.Args))
		for i, arg := range n.Args {
			e, sort, err := compileNode(arg, decls, env, b)
			if err != nil {
				return nil, 0, err
			}
			if sort != value.SortBool {
				return nil, 0, fmt.Errorf("and/or operand %d must be boolean, got %s", i, sort)
			}
			exprs[i] = e
		}
		if n.Op == OpAnd {
			return b.And(exprs...), value.SortBool, nil
		}
		return b.Or(exprs...), value.SortBool, nil

	case OpImplies:
		left, leftSort, err := compileNode(n.Args[0], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		right, rightSort, err := compileNode(n.Args[1], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		if leftSort != value.SortBool || rightSort != value.SortBool {
			return nil, 0, fmt.Errorf("implies: both operands must be boolean")
		}
		return b.Implies(left, right), value.SortBool, nil

	case OpIte:
		cond, condSort, err := compileNode(n.Args[0], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		if condSort != value.SortBool {
			return nil, 0, fmt.Errorf("ite: condition must be boolean, got %s", condSort)
		}
		then, thenSort, err := compileNode(n.Args[1], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		els, elsSort, err := compileNode(n.Args[2], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		then, els, resultSort, err := unifyBranches(then, thenSort, els, elsSort, b)
		if err != nil {
			return nil, 0, fmt.Errorf("ite: %w", err)
		}
		return b.Ite(cond, then, els), resultSort, nil

	case OpEq, OpNeq:
		left, leftSort, err := compileNode(n.Args[0], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		right, rightSort, err := compileNode(n.Args[1], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		left, right, _, err = unifyBranches(left, leftSort, right, rightSort, b)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", opName(n.Op), err)
		}
		if n.Op == OpEq {
			return b.Eq(left, right), value.SortBool, nil
		}
		return b.Neq(left, right), value.SortBool, nil

	case OpLt, OpLte, OpGt, OpGte:
		left, leftSort, err := compileNode(n.Args[0], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		right, rightSort, err := compileNode(n.Args[1], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		if leftSort == value.SortBool || rightSort == value.SortBool {
			return nil, 0, fmt.Errorf("%s: operands must be numeric", opName(n.Op))
		}
		left, right, _, err = unifyBranches(left, leftSort, right, rightSort, b)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", opName(n.Op), err)
		}
		return compileComparison(n.Op, left, right, b), value.SortBool, nil

	case OpAdd, OpMul:
		if len(n.Args) < 1 {
			return nil, 0, fmt.Errorf("%s requires at least one operand", opName(n.Op))
		}
		exprs := make([]smt.Expr, len(n.Args))
		resultSort := value.SortInt
		sorts := make([]value.Sort, len(n.Args))
		for i, arg := range n.Args {
			e, sort, err := compileNode(arg, decls, env, b)
			if err != nil {
				return nil, 0, err
			}
			if sort == value.SortBool {
				return nil, 0, fmt.Errorf("%s: operand %d must be numeric", opName(n.Op), i)
			}
			exprs[i] = e
			sorts[i] = sort
		}
		for _, sort := range sorts {
			if sort == value.SortReal {
				resultSort = value.SortReal
			}
		}
		if resultSort == value.SortReal {
			for i, sort := range sorts {
				if sort == value.SortInt {
					exprs[i] = b.ToReal(exprs[i])
				}
			}
		}
		if n.Op == OpAdd {
			return b.Add(exprs...), resultSort, nil
		}
		return b.Mul(exprs...), resultSort, nil

	case OpSub, OpDiv, OpMin, OpMax:
		left, leftSort, err := compileNode(n.Args[0], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		right, rightSort, err := compileNode(n.Args[1], decls, env, b)
		if err != nil {
			return nil, 0, err
		}
		if leftSort == value.SortBool || rightSort == value.SortBool {
			return nil, 0, fmt.Errorf("%s: operands must be numeric", opName(n.Op))
		}
		left, right, resultSort, err := unifyBranches(left, leftSort, right, rightSort, b)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", opName(n.Op), err)
		}
		switch n.Op {
		case OpSub:
			return b.Sub(left, right), resultSort, nil
		case OpDiv:
			// Integer division when both operands are Int, field
			// division as soon as either is Real, per §4.2.
			return b.Div(left, right, resultSort == value.SortReal), resultSort, nil
		case OpMin:
			return b.Ite(b.Lte(left, right), left, right), resultSort, nil
		default: // OpMax
			return b.Ite(b.Gte(left, right), left, right), resultSort, nil
		}

	default:
		return nil, 0, fmt.Errorf("formula: unhandled operator %d", n.Op)
	}
}

func compileLiteral(n *Node, b smt.Oracle) (smt.Expr, value.Sort, error) {
	if n.LitIsBool {
		return b.BoolLit(n.LitBool), value.SortBool, nil
	}
	if n.LitIsInt {
		return b.IntLit(int64(n.LitNum)), value.SortInt, nil
	}
	return b.RealLit(n.LitNum), value.SortReal, nil
}

// compileVar implements spec §4.3's declare(name, sort) oracle
// operation: it declares a fresh symbolic constant for name and pins
// it to the environment's value with an equality assertion, rather
// than substituting the value directly as a compile-time literal. The
// symbolic constant — not the literal — is what the rest of the
// formula is built from, so a real solver backend reasons over an
// actual declared constant, matching how the original implementation
// hands the compiler symbolic Z3 objects instead of ground values.
func compileVar(name string, decls map[string]value.Sort, env map[string]value.Value, b smt.Oracle) (smt.Expr, value.Sort, error) {
	sort, declared := decls[name]
	if !declared {
		return nil, 0, &internalerr.CompileError{Reason: fmt.Sprintf("undeclared variable %q", name)}
	}
	v, ok := env[name]
	if !ok {
		v = value.Default(sort)
	}
	ref := b.Declare(name, sort)
	var lit smt.Expr
	switch sort {
	case value.SortBool:
		lit = b.BoolLit(v.Bool)
	case value.SortInt:
		lit = b.IntLit(v.Int)
	case value.SortReal:
		lit = b.RealLit(v.Real)
	default:
		return nil, 0, fmt.Errorf("variable %q has unsupported sort", name)
	}
	b.Assert(b.Eq(ref, lit))
	return ref, sort, nil
}

// unifyBranches applies the mixed-sort arithmetic promotion rule:
// if either side is Real, the other (if Int) is promoted with ToReal.
// Boolean/boolean and equal-numeric-sort pairs pass through unchanged.
func unifyBranches(left smt.Expr, leftSort value.Sort, right smt.Expr, rightSort value.Sort, b smt.Oracle) (smt.Expr, smt.Expr, value.Sort, error) {
	if leftSort == rightSort {
		return left, right, leftSort, nil
	}
	if leftSort == value.SortBool || rightSort == value.SortBool {
		return nil, nil, 0, fmt.Errorf("branches have incompatible sorts %s and %s", leftSort, rightSort)
	}
	// one Int, one Real
	if leftSort == value.SortInt {
		return b.ToReal(left), right, value.SortReal, nil
	}
	return left, b.ToReal(right), value.SortReal, nil
}

func compileComparison(op Op, left, right smt.Expr, b smt.Oracle) smt.Expr {
	switch op {
	case OpLt:
		return b.Lt(left, right)
	case OpLte:
		return b.Lte(left, right)
	case OpGt:
		return b.Gt(left, right)
	default: // OpGte
		return b.Gte(left, right)
	}
}

func opName(op Op) string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	default:
		return fmt.Sprintf("op(%d)", op)
	}
}
