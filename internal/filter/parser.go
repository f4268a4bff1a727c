package filter

import (
	"regexp"
	"strings"
)

const conjunction = "&&"

// Relational operators are matched in this order so that ">=" wins over
// ">" and "<=" over "<". Anything without one of these falls through to
// equality, where "==" and "=" collapse into a single operator.
var orderedOps = []Op{OpGe, OpLe, OpGt, OpLt, OpNeq}

// Parse parses a filter string. A string containing "&&" becomes a
// conjunction of comparisons; anything else is a single comparison.
func Parse(expr string) (Expr, error) {
	if strings.Contains(expr, conjunction) {
		parts := strings.Split(expr, conjunction)
		subs := make([]Expr, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				return nil, &MalformedFilterError{Expr: expr}
			}
			leaf, err := parseComparison(part)
			if err != nil {
				return nil, err
			}
			subs = append(subs, leaf)
		}
		return &And{Subs: subs}, nil
	}
	return parseComparison(strings.TrimSpace(expr))
}

// ParseList parses a comma-separated list of filters into alternatives:
// an event passes when any one expression matches. Empty segments are
// dropped, so "A=1," parses the same as "A=1".
func ParseList(list string) ([]Expr, error) {
	var exprs []Expr
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		expr, err := Parse(part)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 0 {
		return nil, &MalformedFilterError{Expr: list}
	}
	return exprs, nil
}

func parseComparison(expr string) (*Leaf, error) {
	key, op, value, err := splitComparison(expr)
	if err != nil {
		return nil, err
	}

	leaf := &Leaf{Key: key, Op: op, Value: value}
	if op == OpEq || op == OpNeq {
		pattern, err := regexp.Compile("(?i)" + value)
		if err != nil {
			return nil, &MalformedFilterError{Expr: expr, Err: err}
		}
		leaf.pattern = pattern
	}
	return leaf, nil
}

func splitComparison(expr string) (key string, op Op, value string, err error) {
	for _, candidate := range orderedOps {
		if !strings.Contains(expr, string(candidate)) {
			continue
		}
		parts := strings.Split(expr, string(candidate))
		if len(parts) != 2 {
			return "", "", "", &MalformedFilterError{Expr: expr}
		}
		key, value = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			return "", "", "", &MalformedFilterError{Expr: expr}
		}
		return key, candidate, value, nil
	}

	// Split on "=" with empty segments dropped, so "A==B" and "A=B"
	// parse the same way.
	var fields []string
	for _, part := range strings.Split(expr, string(OpEq)) {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}
	if len(fields) != 2 {
		return "", "", "", &MalformedFilterError{Expr: expr}
	}
	return fields[0], OpEq, fields[1], nil
}
