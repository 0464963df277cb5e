package formula

import "fmt"

// Parse turns a decoded JSON formula tree (the result of
// json.Unmarshal into `any`) into a Node tree. Parse recognizes shape
// and operator arity (binary comparisons, implies, -, /, min, max;
// ternary ite/if; n-ary and/or/+/* with at least one operand); sort and
// name-declaration checks are deferred to Compile so that a single
// "compile error" site can attribute those failures to its constraint,
// per §4.2.
func Parse(raw any) (*Node, error) {
	switch v := raw.(type) {
	case bool:
		return &Node{Op: OpLiteral, LitIsBool: true, LitBool: v}, nil
	case float64:
		return &Node{Op: OpLiteral, LitNum: v, LitIsInt: v == float64(int64(v))}, nil
	case string:
		return &Node{Op: OpVar, Var: v}, nil
	case map[string]any:
		return parseObject(v)
	case nil:
		return nil, fmt.Errorf("formula: nil node")
	default:
		return nil, fmt.Errorf("formula: unsupported node type %T", raw)
	}
}

func parseObject(m map[string]any) (*Node, error) {
	if len(m) != 1 {
		return nil, fmt.Errorf("formula: object node must have exactly one operator key, got %d", len(m))
	}

	for key, body := range m {
		switch key {
		case "const":
			return parseConst(body)
		case "not":
			arg, err := Parse(body)
			if err != nil {
				return nil, err
			}
			return &Node{Op: OpNot, Args: []*Node{arg}}, nil
		case "and":
			return parseNary(OpAnd, body)
		case "or":
			return parseNary(OpOr, body)
		case "implies":
			return parseBinary(OpImplies, body)
		case "ite", "if":
			return parseTernary(OpIte, body)
		case "==":
			return parseBinary(OpEq, body)
		case "!=":
			return parseBinary(OpNeq, body)
		case "<":
			return parseBinary(OpLt, body)
		case "<=":
			return parseBinary(OpLte, body)
		case ">":
			return parseBinary(OpGt, body)
		case ">=":
			return parseBinary(OpGte, body)
		case "+":
			return parseNary(OpAdd, body)
		case "-":
			return parseBinary(OpSub, body)
		case "*":
			return parseNary(OpMul, body)
		case "/":
			return parseBinary(OpDiv, body)
		case "min":
			return parseBinary(OpMin, body)
		case "max":
			return parseBinary(OpMax, body)
		default:
			return nil, fmt.Errorf("formula: unknown operator %q", key)
		}
	}

	panic("unreachable")
}

func parseConst(body any) (*Node, error) {
	switch v := body.(type) {
	case bool:
		return &Node{Op: OpLiteral, LitIsBool: true, LitBool: v}, nil
	case string:
		switch v {
		case "true":
			return &Node{Op: OpLiteral, LitIsBool: true, LitBool: true}, nil
		case "false":
			return &Node{Op: OpLiteral, LitIsBool: true, LitBool: false}, nil
		default:
			return nil, fmt.Errorf("formula: const string must be true/false, got %q", v)
		}
	case float64:
		return &Node{Op: OpLiteral, LitNum: v, LitIsInt: v == float64(int64(v))}, nil
	default:
		return nil, fmt.Errorf("formula: unsupported const type %T", body)
	}
}

func parseList(body any) ([]any, error) {
	l, ok := body.([]any)
	if !ok {
		return nil, fmt.Errorf("formula: expected array of operands, got %T", body)
	}
	return l, nil
}

func parseNary(op Op, body any) (*Node, error) {
	items, err := parseList(body)
	if err != nil {
		return nil, err
	}
	if len(items) < 1 {
		return nil, fmt.Errorf("formula: %v requires at least one operand", op)
	}
	args := make([]*Node, len(items))
	for i, item := range items {
		n, err := Parse(item)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return &Node{Op: op, Args: args}, nil
}

func parseBinary(op Op, body any) (*Node, error) {
	items, err := parseList(body)
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, fmt.Errorf("formula: binary operator requires exactly 2 operands, got %d", len(items))
	}
	left, err := Parse(items[0])
	if err != nil {
		return nil, err
	}
	right, err := Parse(items[1])
	if err != nil {
		return nil, err
	}
	return &Node{Op: op, Args: []*Node{left, right}}, nil
}

func parseTernary(op Op, body any) (*Node, error) {
	items, err := parseList(body)
	if err != nil {
		return nil, err
	}
	if len(items) != 3 {
		return nil, fmt.Errorf("formula: ternary operator requires exactly 3 operands, got %d", len(items))
	}
	args := make([]*Node, 3)
	for i, item := range items {
		n, err := Parse(item)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	return &Node{Op: op, Args: args}, nil
}
