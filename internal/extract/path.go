// Package extract evaluates declarative field-selector paths against decoded
// JSON documents. The expression language is a closed JSONPath subset
// interpreted by a small evaluator; there is no general expression engine and
// selectors are compiled once at catalog load, never from request input.
package extract

import (
	"fmt"
	"strconv"
	"strings"
)

type stepKind int

const (
	stepField stepKind = iota // .name
	stepIndex                 // [2] or [-1]
	stepSlice                 // [1:3], [:2], [1:]
	stepWildcard              // [*]
	stepRecursive             // ..name
	stepFilterField           // [?(@.field=='value')]
	stepFilterIndex           // [?(@[0]=='value')]
)

type step struct {
	kind  stepKind
	name  string // field name for stepField/stepRecursive/stepFilterField
	index int    // stepIndex, or position for stepFilterIndex
	from  int
	to    int
	hasFrom bool
	hasTo   bool
	value string // comparison literal for filters
}

// Path is a compiled selector expression. Compile rejects anything outside
// the supported grammar, so a Path in hand is always evaluable.
type Path struct {
	expr  string
	steps []step
}

// String returns the original expression.
func (p Path) String() string { return p.expr }

// Compile parses a selector expression. Supported grammar:
//
//	$.a.b            direct field access
//	$..name          recursive descent by field name
//	$.a[0]  $.a[-1]  array indexing
//	$.a[1:3]         array slicing (half-open, either bound optional)
//	$.a[*]           array wildcard
//	$.a[?(@.f=='v')] filter on a sibling field of each element
//	$.a[?(@[0]=='v')] filter on a positional element (vCard rows)
//
// A malformed expression is a load-time error; callers must fail startup
// rather than skip the selector.
func Compile(expr string) (Path, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Path{}, fmt.Errorf("empty selector expression")
	}
	rest := strings.TrimPrefix(s, "$")

	var steps []step
	for len(rest) > 0 {
		switch {
		case strings.HasPrefix(rest, ".."):
			name, n := scanName(rest[2:])
			if name == "" {
				return Path{}, fmt.Errorf("%s: recursive descent needs a field name", expr)
			}
			steps = append(steps, step{kind: stepRecursive, name: name})
			rest = rest[2+n:]

		case strings.HasPrefix(rest, "."):
			name, n := scanName(rest[1:])
			if name == "" {
				return Path{}, fmt.Errorf("%s: expected field name after '.'", expr)
			}
			steps = append(steps, step{kind: stepField, name: name})
			rest = rest[1+n:]

		case strings.HasPrefix(rest, "["):
			// Filters may themselves contain ']' (positional predicates), so
			// they close on ")]" rather than the first ']'.
			var inner string
			var advance int
			if strings.HasPrefix(rest, "[?(") {
				end := strings.Index(rest, ")]")
				if end < 0 {
					return Path{}, fmt.Errorf("%s: unterminated filter", expr)
				}
				inner = rest[1 : end+1]
				advance = end + 2
			} else {
				end := strings.Index(rest, "]")
				if end < 0 {
					return Path{}, fmt.Errorf("%s: unterminated bracket", expr)
				}
				inner = rest[1:end]
				advance = end + 1
			}
			st, err := parseBracket(inner)
			if err != nil {
				return Path{}, fmt.Errorf("%s: %w", expr, err)
			}
			steps = append(steps, st)
			rest = rest[advance:]

		default:
			return Path{}, fmt.Errorf("%s: unexpected %q", expr, rest)
		}
	}
	if len(steps) == 0 {
		return Path{}, fmt.Errorf("%s: no steps", expr)
	}
	return Path{expr: expr, steps: steps}, nil
}

// MustCompile is for static expressions in tests and built-in tables.
func MustCompile(expr string) Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func scanName(s string) (string, int) {
	for i, r := range s {
		if r == '.' || r == '[' {
			return s[:i], i
		}
	}
	return s, len(s)
}

func parseBracket(inner string) (step, error) {
	inner = strings.TrimSpace(inner)
	switch {
	case inner == "*":
		return step{kind: stepWildcard}, nil

	case strings.HasPrefix(inner, "?("):
		if !strings.HasSuffix(inner, ")") {
			return step{}, fmt.Errorf("unterminated filter %q", inner)
		}
		return parseFilter(strings.TrimSuffix(strings.TrimPrefix(inner, "?("), ")"))

	case strings.Contains(inner, ":"):
		parts := strings.SplitN(inner, ":", 2)
		st := step{kind: stepSlice}
		if strings.TrimSpace(parts[0]) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return step{}, fmt.Errorf("bad slice bound %q", parts[0])
			}
			st.from, st.hasFrom = n, true
		}
		if strings.TrimSpace(parts[1]) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return step{}, fmt.Errorf("bad slice bound %q", parts[1])
			}
			st.to, st.hasTo = n, true
		}
		return st, nil

	default:
		n, err := strconv.Atoi(inner)
		if err != nil {
			return step{}, fmt.Errorf("bad index %q", inner)
		}
		return step{kind: stepIndex, index: n}, nil
	}
}

// parseFilter handles @.field=='value' and @[i]=='value'.
func parseFilter(cond string) (step, error) {
	cond = strings.TrimSpace(cond)
	lhs, rhs, found := strings.Cut(cond, "==")
	if !found {
		return step{}, fmt.Errorf("filter %q: only == comparisons supported", cond)
	}
	lhs = strings.TrimSpace(lhs)
	rhs = strings.TrimSpace(rhs)

	if len(rhs) < 2 || rhs[0] != '\'' || rhs[len(rhs)-1] != '\'' {
		return step{}, fmt.Errorf("filter %q: literal must be single-quoted", cond)
	}
	value := rhs[1 : len(rhs)-1]

	switch {
	case strings.HasPrefix(lhs, "@."):
		name := strings.TrimPrefix(lhs, "@.")
		if name == "" {
			return step{}, fmt.Errorf("filter %q: missing field name", cond)
		}
		return step{kind: stepFilterField, name: name, value: value}, nil

	case strings.HasPrefix(lhs, "@[") && strings.HasSuffix(lhs, "]"):
		idx, err := strconv.Atoi(lhs[2 : len(lhs)-1])
		if err != nil {
			return step{}, fmt.Errorf("filter %q: bad position", cond)
		}
		return step{kind: stepFilterIndex, index: idx, value: value}, nil

	default:
		return step{}, fmt.Errorf("filter %q: must start with @. or @[", cond)
	}
}
