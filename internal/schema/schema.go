package schema

import (
	"fmt"

	"rdapgate/internal/rdap"
)

// DetectionRule matches one facet of a registry's response shape. When Equals
// is empty the rule passes on any non-empty match; otherwise at least one
// extracted value must equal it exactly.
type DetectionRule struct {
	Selector FieldSelector
	Equals   string
}

// Matches evaluates the rule against a decoded document.
func (r DetectionRule) Matches(doc any) bool {
	matches := r.Selector.Eval(doc)
	if len(matches) == 0 {
		return false
	}
	if r.Equals == "" {
		return true
	}
	for _, m := range matches {
		if s, ok := m.(string); ok && s == r.Equals {
			return true
		}
	}
	return false
}

// RegistrySchema is one registry's complete selector table. Instances are
// built by the loader and never mutated at runtime.
type RegistrySchema struct {
	RegistryID string
	QueryTypes []rdap.QueryType

	// Detection: every rule must match for this registry to claim a response.
	Detection []DetectionRule

	// Fields maps canonical record-level field names (handle, name, country,
	// status, nameservers) to selectors.
	Fields map[string]FieldSelector

	// Events selects the raw event objects; Entities selects the raw entity
	// subtrees, which EntityFields selectors are then evaluated against.
	Events       FieldSelector
	Entities     FieldSelector
	EntityFields map[string]FieldSelector
}

// Supports reports whether the schema covers the given query type.
func (s *RegistrySchema) Supports(qt rdap.QueryType) bool {
	for _, t := range s.QueryTypes {
		if t == qt {
			return true
		}
	}
	return false
}

// Catalog is the ordered set of registered registry schemas. Order is
// significant: Detect returns the first schema whose rules all match, so the
// catalog's registration order is the documented tie-break.
type Catalog struct {
	schemas []*RegistrySchema
	byID    map[string]*RegistrySchema
}

// NewCatalog builds a catalog preserving registration order.
func NewCatalog(schemas ...*RegistrySchema) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*RegistrySchema, len(schemas))}
	for _, s := range schemas {
		if _, dup := c.byID[s.RegistryID]; dup {
			return nil, fmt.Errorf("duplicate registry schema %q", s.RegistryID)
		}
		c.schemas = append(c.schemas, s)
		c.byID[s.RegistryID] = s
	}
	return c, nil
}

// Detect inspects a decoded raw response and returns the identity of the
// registry that produced it. Pure function; identical input yields an
// identical result on every call.
func (c *Catalog) Detect(doc any) (string, bool) {
	for _, s := range c.schemas {
		if matchesAll(s, doc) {
			return s.RegistryID, true
		}
	}
	return "", false
}

func matchesAll(s *RegistrySchema, doc any) bool {
	if len(s.Detection) == 0 {
		return false
	}
	for _, rule := range s.Detection {
		if !rule.Matches(doc) {
			return false
		}
	}
	return true
}

// Schema returns a registered schema by registry ID.
func (c *Catalog) Schema(registryID string) (*RegistrySchema, bool) {
	s, ok := c.byID[registryID]
	return s, ok
}

// Registries lists registered registry IDs in registration order.
func (c *Catalog) Registries() []string {
	out := make([]string, len(c.schemas))
	for i, s := range c.schemas {
		out[i] = s.RegistryID
	}
	return out
}
