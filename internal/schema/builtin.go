package schema

import (
	"embed"
	"fmt"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

//go:embed registry-schema.json
var registrySchemaJSON []byte

// catalogOrder is the detection priority between built-in registries. Thin
// registries (most specific detection) come first; the order is configuration,
// not code, and is deliberately explicit rather than alphabetical.
var catalogOrder = []string{
	"verisign.yaml",
	"arin.yaml",
	"ripe.yaml",
	"apnic.yaml",
	"lacnic.yaml",
}

// Builtin loads the embedded registry catalog. Any parse or compile failure
// is returned so the host can abort startup.
func Builtin() (*Catalog, error) {
	schemas := make([]*RegistrySchema, 0, len(catalogOrder))
	for _, name := range catalogOrder {
		raw, err := catalogFS.ReadFile("catalog/" + name)
		if err != nil {
			return nil, fmt.Errorf("builtin catalog: %w", err)
		}
		s, err := Parse(name, raw)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return NewCatalog(schemas...)
}
