package extract

import (
	"fmt"
	"sort"
)

// Eval runs the compiled path against a decoded JSON document and returns all
// matches. Arrays are visited in document order; object keys are visited in
// sorted order, since decoded JSON objects carry no order of their own.
// Every call is a fresh evaluation; results are never memoized.
func (p Path) Eval(doc any) []any {
	current := []any{doc}
	for _, st := range p.steps {
		var next []any
		for _, node := range current {
			next = applyStep(next, node, st)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// EvalStrings is Eval filtered to string matches, which is what most
// canonical fields want.
func (p Path) EvalStrings(doc any) []string {
	var out []string
	for _, v := range p.Eval(doc) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// First returns the first match, or nil when the path matches nothing.
// Absence of optional fields is expected and is not an error.
func (p Path) First(doc any) any {
	matches := p.Eval(doc)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

func applyStep(acc []any, node any, st step) []any {
	switch st.kind {
	case stepField:
		if obj, ok := node.(map[string]any); ok {
			if v, exists := obj[st.name]; exists {
				acc = append(acc, v)
			}
		}

	case stepIndex:
		if arr, ok := node.([]any); ok {
			idx := st.index
			if idx < 0 {
				idx += len(arr)
			}
			if idx >= 0 && idx < len(arr) {
				acc = append(acc, arr[idx])
			}
		}

	case stepSlice:
		if arr, ok := node.([]any); ok {
			from, to := 0, len(arr)
			if st.hasFrom {
				from = clamp(st.from, len(arr))
			}
			if st.hasTo {
				to = clamp(st.to, len(arr))
			}
			for i := from; i < to; i++ {
				acc = append(acc, arr[i])
			}
		}

	case stepWildcard:
		switch n := node.(type) {
		case []any:
			acc = append(acc, n...)
		case map[string]any:
			for _, k := range sortedKeys(n) {
				acc = append(acc, n[k])
			}
		}

	case stepRecursive:
		acc = descend(acc, node, st.name)

	case stepFilterField:
		if arr, ok := node.([]any); ok {
			for _, elem := range arr {
				if obj, ok := elem.(map[string]any); ok {
					if matchesLiteral(obj[st.name], st.value) {
						acc = append(acc, elem)
					}
				}
			}
		}

	case stepFilterIndex:
		if arr, ok := node.([]any); ok {
			for _, elem := range arr {
				if row, ok := elem.([]any); ok {
					idx := st.index
					if idx >= 0 && idx < len(row) && matchesLiteral(row[idx], st.value) {
						acc = append(acc, elem)
					}
				}
			}
		}
	}
	return acc
}

// descend walks the subtree depth-first collecting every value stored under
// the given field name, nested occurrences included.
func descend(acc []any, node any, name string) []any {
	switch n := node.(type) {
	case map[string]any:
		for _, k := range sortedKeys(n) {
			if k == name {
				acc = append(acc, n[k])
			}
			acc = descend(acc, n[k], name)
		}
	case []any:
		for _, elem := range n {
			acc = descend(acc, elem, name)
		}
	}
	return acc
}

func matchesLiteral(v any, want string) bool {
	switch val := v.(type) {
	case string:
		return val == want
	case fmt.Stringer:
		return val.String() == want
	default:
		return false
	}
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
