package schema

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"rdapgate/internal/rdap"
)

// selectorDoc is the YAML form of a selector or detection rule.
type selectorDoc struct {
	Expression string `yaml:"expression"`
	Equals     string `yaml:"equals"`
	PII        string `yaml:"pii"`
}

// schemaDoc is the YAML form of one registry schema file.
type schemaDoc struct {
	Registry     string                 `yaml:"registry"`
	QueryTypes   []string               `yaml:"query_types"`
	Detection    []selectorDoc          `yaml:"detection"`
	Fields       map[string]selectorDoc `yaml:"fields"`
	Events       selectorDoc            `yaml:"events"`
	Entities     selectorDoc            `yaml:"entities"`
	EntityFields map[string]selectorDoc `yaml:"entity_fields"`
}

// Parse loads one registry schema from YAML. The document is first validated
// structurally against the embedded JSON Schema, then every selector
// expression is compiled. Any failure is fatal to the caller: a catalog with
// a bad selector must never reach serving.
func Parse(name string, raw []byte) (*RegistrySchema, error) {
	if err := validateDocument(name, raw); err != nil {
		return nil, err
	}

	var doc schemaDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}

	out := &RegistrySchema{
		RegistryID:   doc.Registry,
		Fields:       make(map[string]FieldSelector, len(doc.Fields)),
		EntityFields: make(map[string]FieldSelector, len(doc.EntityFields)),
	}

	for _, qt := range doc.QueryTypes {
		switch t := rdap.QueryType(qt); t {
		case rdap.QueryDomain, rdap.QueryIP, rdap.QueryASN:
			out.QueryTypes = append(out.QueryTypes, t)
		default:
			return nil, fmt.Errorf("schema %s: unknown query type %q", name, qt)
		}
	}

	for i, det := range doc.Detection {
		sel, err := NewFieldSelector(fmt.Sprintf("detection[%d]", i), det.Expression, rdap.PIINone)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		out.Detection = append(out.Detection, DetectionRule{Selector: sel, Equals: det.Equals})
	}

	for fieldName, sd := range doc.Fields {
		sel, err := buildSelector(fieldName, sd)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		out.Fields[fieldName] = sel
	}

	var err error
	if out.Events, err = buildSelector("events", doc.Events); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	if out.Entities, err = buildSelector("entities", doc.Entities); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}

	for fieldName, sd := range doc.EntityFields {
		sel, err := buildSelector(fieldName, sd)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		out.EntityFields[fieldName] = sel
	}

	return out, nil
}

func buildSelector(name string, sd selectorDoc) (FieldSelector, error) {
	category, err := parsePIICategory(sd.PII)
	if err != nil {
		return FieldSelector{}, fmt.Errorf("selector %q: %w", name, err)
	}
	return NewFieldSelector(name, sd.Expression, category)
}

// validateDocument checks the YAML document's structure against the embedded
// JSON Schema before any field is interpreted. yaml.v3 decodes mappings into
// map[string]interface{}, which the validator consumes directly.
func validateDocument(name string, raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("schema %s: invalid YAML: %w", name, err)
	}
	if err := compiledSchema().Validate(doc); err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}
	return nil
}

var schemaValidator *jsonschema.Schema

func compiledSchema() *jsonschema.Schema {
	if schemaValidator == nil {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("registry-schema.json", bytes.NewReader(registrySchemaJSON)); err != nil {
			panic(err)
		}
		schemaValidator = compiler.MustCompile("registry-schema.json")
	}
	return schemaValidator
}
