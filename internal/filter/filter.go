// Package filter parses and evaluates event filter expressions of the
// form "KEY OP VALUE", optionally conjoined with "&&". Parsed expressions
// are immutable and safe to share across goroutines.
package filter

import (
	"fmt"
	"regexp"

	"github.com/goldshtn/etrace/internal/event"
)

// Op is a comparison operator. "==" is accepted in filter strings and
// normalizes to OpEq.
type Op string

const (
	OpEq  Op = "="
	OpNeq Op = "!="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
)

// Expr is a parsed filter expression node.
type Expr interface {
	// Match reports whether the event satisfies the expression.
	Match(ev *event.Event) bool
}

// Leaf is a single KEY OP VALUE comparison. For equality and inequality
// operators the value is also held as a compiled case-insensitive pattern.
type Leaf struct {
	Key   string
	Op    Op
	Value string

	pattern *regexp.Regexp
}

// And is a conjunction of comparisons. Subexpressions are evaluated in
// declaration order and always hold at least two entries.
type And struct {
	Subs []Expr
}

// MalformedFilterError reports a filter string that could not be parsed.
type MalformedFilterError struct {
	Expr string
	Err  error
}

func (e *MalformedFilterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed filter expression %q: %v", e.Expr, e.Err)
	}
	return fmt.Sprintf("malformed filter expression %q", e.Expr)
}

func (e *MalformedFilterError) Unwrap() error { return e.Err }
