package filter

import (
	"strconv"
	"strings"

	"github.com/goldshtn/etrace/internal/event"
)

// Match evaluates the conjunction in declaration order, stopping at the
// first subexpression that fails.
func (a *And) Match(ev *event.Event) bool {
	for _, sub := range a.Subs {
		if !sub.Match(ev) {
			return false
		}
	}
	return true
}

// Match resolves the key against the built-in identity fields first and
// the event payload second. An absent payload field never matches.
func (l *Leaf) Match(ev *event.Event) bool {
	if text, ok := identityField(l.Key, ev); ok {
		return l.matchText(text, true)
	}
	text, ok := ev.FieldText(l.Key)
	if !ok {
		return false
	}
	return l.matchText(text, false)
}

// identityField resolves the built-in fields, matched case-insensitively
// by key: the process id, thread id and process name.
func identityField(key string, ev *event.Event) (string, bool) {
	switch {
	case strings.EqualFold(key, "pid"):
		return strconv.Itoa(ev.ProcessID), true
	case strings.EqualFold(key, "tid"):
		return strconv.Itoa(ev.ThreadID), true
	case strings.EqualFold(key, "pname"), strings.EqualFold(key, "processname"):
		return ev.ProcessName, true
	}
	return "", false
}

func (l *Leaf) matchText(text string, identity bool) bool {
	switch l.Op {
	case OpEq:
		// Identity fields compare as literal strings, payload fields
		// against the compiled pattern.
		if identity {
			return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(l.Value))
		}
		return l.pattern.MatchString(text)
	case OpNeq:
		fieldInt, filterInt, ok := bothInts(text, l.Value)
		return ok && fieldInt != filterInt
	case OpLt, OpLe, OpGt, OpGe:
		fieldInt, filterInt, ok := bothInts(text, l.Value)
		if !ok {
			return false
		}
		// "X>5" matches field values greater than 5; the written
		// direction of the comparison is preserved.
		switch l.Op {
		case OpLt:
			return fieldInt < filterInt
		case OpLe:
			return fieldInt <= filterInt
		case OpGt:
			return fieldInt > filterInt
		case OpGe:
			return fieldInt >= filterInt
		}
	}
	return false
}

// bothInts parses both comparison sides as integers. Ordering and
// inequality operators only apply to integral values.
func bothInts(fieldText, filterValue string) (fieldInt, filterInt int, ok bool) {
	fieldInt, err := strconv.Atoi(strings.TrimSpace(fieldText))
	if err != nil {
		return 0, 0, false
	}
	filterInt, err = strconv.Atoi(filterValue)
	if err != nil {
		return 0, 0, false
	}
	return fieldInt, filterInt, true
}
