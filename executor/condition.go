package executor

import (
	"fmt"
	"strconv"
	"strings"
)

// evalExpression evaluates a Loop node's Expression condition against
// execution context, returning whether it is truthy. spec.md §4.2 names
// only the contract ("an Expression condition is evaluated against context
// after each iteration (truthy -> continue)") without naming an expression
// language, and no example repo in the retrieval pack wires a condition
// language for this exact contract (cel-go appears only as an indirect,
// unused dependency in one example's go.mod). Rather than adopt a full
// expression-engine dependency this can't exercise or validate without
// running the toolchain, the supported grammar is deliberately small:
//
//	name             truthy(ctx[name])
//	!name            not truthy(ctx[name])
//	name == LITERAL  string or numeric equality
//	name != LITERAL  string or numeric inequality
//	name > N, >=, <, <=   numeric comparison; false if ctx[name] isn't numeric
//
// An unrecognized form is treated as falsy rather than erroring, so a loop
// with a malformed condition exits after one iteration instead of looping
// forever.
func evalExpression(expr string, ctx map[string]any) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false
	}

	for _, op := range []string{"==", "!=", ">=", "<=", ">", "<"} {
		if idx := strings.Index(expr, op); idx >= 0 {
			name := strings.TrimSpace(expr[:idx])
			rhs := strings.TrimSpace(expr[idx+len(op):])
			return evalComparison(ctx[name], op, rhs)
		}
	}

	if strings.HasPrefix(expr, "!") {
		return !truthy(ctx[strings.TrimSpace(expr[1:])])
	}
	return truthy(ctx[expr])
}

func evalComparison(lhs any, op, rhsLiteral string) bool {
	rhsLiteral = strings.Trim(rhsLiteral, `"'`)
	lf, lok := toFloat(lhs)
	rf, rerr := strconv.ParseFloat(rhsLiteral, 64)
	numeric := lok && rerr == nil

	switch op {
	case "==":
		if numeric {
			return lf == rf
		}
		return fmt.Sprint(lhs) == rhsLiteral
	case "!=":
		if numeric {
			return lf != rf
		}
		return fmt.Sprint(lhs) != rhsLiteral
	case ">":
		return numeric && lf > rf
	case ">=":
		return numeric && lf >= rf
	case "<":
		return numeric && lf < rf
	case "<=":
		return numeric && lf <= rf
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
