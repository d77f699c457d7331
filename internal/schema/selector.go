// Package schema holds the registry schema catalog: per-registry tables of
// named field selectors that map raw RDAP shapes onto canonical fields.
// Schemas load from declarative YAML at process start and are immutable
// afterwards; a malformed schema aborts startup rather than degrade silently.
package schema

import (
	"fmt"

	"rdapgate/internal/extract"
	"rdapgate/internal/rdap"
)

// FieldSelector is a named, compiled selector expression plus the PII
// category of whatever it extracts.
type FieldSelector struct {
	Name        string
	Expression  string
	PIICategory rdap.PIICategory
	path        extract.Path
}

// NewFieldSelector compiles the expression; a syntax error here is a
// load-time failure.
func NewFieldSelector(name, expression string, category rdap.PIICategory) (FieldSelector, error) {
	if category == "" {
		category = rdap.PIINone
	}
	path, err := extract.Compile(expression)
	if err != nil {
		return FieldSelector{}, fmt.Errorf("selector %q: %w", name, err)
	}
	return FieldSelector{Name: name, Expression: expression, PIICategory: category, path: path}, nil
}

// Eval runs the selector against a decoded document.
func (s FieldSelector) Eval(doc any) []any { return s.path.Eval(doc) }

// First returns the first match or nil.
func (s FieldSelector) First(doc any) any { return s.path.First(doc) }

// Strings returns all string matches in document order.
func (s FieldSelector) Strings(doc any) []string { return s.path.EvalStrings(doc) }

func parsePIICategory(raw string) (rdap.PIICategory, error) {
	switch rdap.PIICategory(raw) {
	case "", rdap.PIINone:
		return rdap.PIINone, nil
	case rdap.PIIEmail, rdap.PIIPhone, rdap.PIIAddress, rdap.PIIName, rdap.PIIOrganization:
		return rdap.PIICategory(raw), nil
	default:
		return "", fmt.Errorf("unknown pii category %q", raw)
	}
}
