package extract

import (
	"fmt"

	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// resolveComputed evaluates every computed extractor's formula against
// the environment built so far, iterating to a fixed point so computed
// extractors may reference one another. The dependency graph is
// required to be acyclic by ontology validation, so a bounded number of
// passes (one more than the extractor count) is always enough; any
// extractor still unresolved after that is left out of the result and
// the caller records a warning.
func resolveComputed(base map[string]value.Value, extractors map[string]*Spec, names []string) map[string]value.Value {
	env := make(map[string]value.Value, len(base)+len(names))
	for k, v := range base {
		env[k] = v
	}

	remaining := make(map[string]*Spec, len(names))
	for _, name := range names {
		remaining[name] = extractors[name]
	}

	maxPasses := len(names) + 1
	for pass := 0; pass < maxPasses && len(remaining) > 0; pass++ {
		progressed := false
		for name, spec := range remaining {
			v, err := evalComputed(spec.Formula, env)
			if err != nil {
				continue
			}
			env[name] = v
			delete(remaining, name)
			progressed = true
		}
		if !progressed {
			break
		}
	}

	resolved := make(map[string]value.Value, len(names))
	for _, name := range names {
		if v, ok := env[name]; ok {
			if _, wasBase := base[name]; !wasBase {
				resolved[name] = v
			}
		}
	}
	return resolved
}

// evalComputed evaluates one node of the computed-extractor mini
// language against env. Nodes are either a bare variable name
// (string), a literal (bool/number), or a single-key object naming one
// of the supported operators.
func evalComputed(node any, env map[string]value.Value) (value.Value, error) {
	switch n := node.(type) {
	case bool:
		return value.Bool(n), nil
	case float64:
		if n == float64(int64(n)) {
			return value.Int(int64(n)), nil
		}
		return value.Real(n), nil
	case string:
		v, ok := env[n]
		if !ok {
			return value.Value{}, fmt.Errorf("computed: undefined reference %q", n)
		}
		return v, nil
	case map[string]any:
		return evalComputedObject(n, env)
	default:
		return value.Value{}, fmt.Errorf("computed: unsupported node type %T", node)
	}
}

func evalComputedObject(m map[string]any, env map[string]value.Value) (value.Value, error) {
	if len(m) != 1 {
		return value.Value{}, fmt.Errorf("computed: object node must have exactly one operator key")
	}
	for op, body := range m {
		switch op {
		case "count_true":
			return evalCountTrue(body, env)
		case "count_fields":
			return evalCountFields(body, env)
		case "sum":
			return evalSum(body, env)
		case "any":
			return evalAnyAll(body, env, false)
		case "all":
			return evalAnyAll(body, env, true)
		case "gt", "gte", "lt", "lte":
			return evalCompare(op, body, env)
		case "add":
			return evalArith(op, body, env)
		case "mul":
			return evalArith(op, body, env)
		case "if":
			return evalIf(body, env)
		case "not":
			return evalNot(body, env)
		case "and":
			return evalAndOr(body, env, true)
		case "or":
			return evalAndOr(body, env, false)
		default:
			return value.Value{}, fmt.Errorf("computed: unknown operator %q", op)
		}
	}
	panic("unreachable")
}

func asList(body any) ([]any, error) {
	l, ok := body.([]any)
	if !ok {
		return nil, fmt.Errorf("computed: expected an array of operands, got %T", body)
	}
	return l, nil
}

func asNumber(v value.Value) (float64, error) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.Int), nil
	case value.KindReal:
		return v.Real, nil
	case value.KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("computed: value of kind %s is not numeric", v.Kind)
	}
}

func asBool(v value.Value) bool {
	switch v.Kind {
	case value.KindBool:
		return v.Bool
	case value.KindInt:
		return v.Int != 0
	case value.KindReal:
		return v.Real != 0
	case value.KindNull:
		return false
	default:
		return true
	}
}

func evalCountTrue(body any, env map[string]value.Value) (value.Value, error) {
	items, err := asList(body)
	if err != nil {
		return value.Value{}, err
	}
	var count int64
	for _, item := range items {
		v, err := evalComputed(item, env)
		if err != nil {
			return value.Value{}, err
		}
		if asBool(v) {
			count++
		}
	}
	return value.Int(count), nil
}

// count_fields counts how many of the named fields are present (not
// null) in the environment, independent of their boolean value.
func evalCountFields(body any, env map[string]value.Value) (value.Value, error) {
	items, err := asList(body)
	if err != nil {
		return value.Value{}, err
	}
	var count int64
	for _, item := range items {
		name, ok := item.(string)
		if !ok {
			return value.Value{}, fmt.Errorf("computed: count_fields operands must be field names")
		}
		if v, ok := env[name]; ok && !v.IsNull() {
			count++
		}
	}
	return value.Int(count), nil
}

func evalSum(body any, env map[string]value.Value) (value.Value, error) {
	items, err := asList(body)
	if err != nil {
		return value.Value{}, err
	}
	var total float64
	allInt := true
	for _, item := range items {
		v, err := evalComputed(item, env)
		if err != nil {
			return value.Value{}, err
		}
		n, err := asNumber(v)
		if err != nil {
			return value.Value{}, err
		}
		total += n
		allInt = allInt && v.Kind != value.KindReal
	}
	if allInt {
		return value.Int(int64(total)), nil
	}
	return value.Real(total), nil
}

func evalAnyAll(body any, env map[string]value.Value, all bool) (value.Value, error) {
	items, err := asList(body)
	if err != nil {
		return value.Value{}, err
	}
	for _, item := range items {
		v, err := evalComputed(item, env)
		if err != nil {
			return value.Value{}, err
		}
		b := asBool(v)
		if all && !b {
			return value.Bool(false), nil
		}
		if !all && b {
			return value.Bool(true), nil
		}
	}
	return value.Bool(all), nil
}

func evalPair(body any, env map[string]value.Value) (float64, float64, error) {
	items, err := asList(body)
	if err != nil {
		return 0, 0, err
	}
	if len(items) != 2 {
		return 0, 0, fmt.Errorf("computed: operator requires exactly 2 operands, got %d", len(items))
	}
	left, err := evalComputed(items[0], env)
	if err != nil {
		return 0, 0, err
	}
	right, err := evalComputed(items[1], env)
	if err != nil {
		return 0, 0, err
	}
	l, err := asNumber(left)
	if err != nil {
		return 0, 0, err
	}
	r, err := asNumber(right)
	if err != nil {
		return 0, 0, err
	}
	return l, r, nil
}

func evalCompare(op string, body any, env map[string]value.Value) (value.Value, error) {
	l, r, err := evalPair(body, env)
	if err != nil {
		return value.Value{}, err
	}
	switch op {
	case "gt":
		return value.Bool(l > r), nil
	case "gte":
		return value.Bool(l >= r), nil
	case "lt":
		return value.Bool(l < r), nil
	default: // lte
		return value.Bool(l <= r), nil
	}
}

func evalArith(op string, body any, env map[string]value.Value) (value.Value, error) {
	items, err := asList(body)
	if err != nil {
		return value.Value{}, err
	}
	if len(items) < 1 {
		return value.Value{}, fmt.Errorf("computed: %s requires at least one operand", op)
	}
	result := 0.0
	if op == "mul" {
		result = 1.0
	}
	allInt := true
	for _, item := range items {
		v, err := evalComputed(item, env)
		if err != nil {
			return value.Value{}, err
		}
		n, err := asNumber(v)
		if err != nil {
			return value.Value{}, err
		}
		if op == "add" {
			result += n
		} else {
			result *= n
		}
		allInt = allInt && v.Kind != value.KindReal
	}
	if allInt {
		return value.Int(int64(result)), nil
	}
	return value.Real(result), nil
}

func evalIf(body any, env map[string]value.Value) (value.Value, error) {
	items, err := asList(body)
	if err != nil {
		return value.Value{}, err
	}
	if len(items) != 3 {
		return value.Value{}, fmt.Errorf("computed: if requires exactly 3 operands, got %d", len(items))
	}
	cond, err := evalComputed(items[0], env)
	if err != nil {
		return value.Value{}, err
	}
	if asBool(cond) {
		return evalComputed(items[1], env)
	}
	return evalComputed(items[2], env)
}

func evalNot(body any, env map[string]value.Value) (value.Value, error) {
	v, err := evalComputed(body, env)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(!asBool(v)), nil
}

func evalAndOr(body any, env map[string]value.Value, and bool) (value.Value, error) {
	items, err := asList(body)
	if err != nil {
		return value.Value{}, err
	}
	if len(items) < 1 {
		return value.Value{}, fmt.Errorf("computed: and/or requires at least one operand")
	}
	for _, item := range items {
		v, err := evalComputed(item, env)
		if err != nil {
			return value.Value{}, err
		}
		b := asBool(v)
		if and && !b {
			return value.Bool(false), nil
		}
		if !and && b {
			return value.Bool(true), nil
		}
	}
	return value.Bool(and), nil
}
