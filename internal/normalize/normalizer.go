// Package normalize turns raw registry responses into canonical records:
// detect the source registry, extract canonical fields through the schema
// catalog, assemble entities, then hand the result to the redaction engine.
// The normalizer performs no I/O; the raw response is an input.
package normalize

import (
	"encoding/json"
	"strconv"
	"time"

	"rdapgate/internal/rdap"
	"rdapgate/internal/redact"
	"rdapgate/internal/schema"
	dErrors "rdapgate/pkg/domain-errors"
)

// Normalizer is stateless with respect to requests and safe for concurrent
// use; all shared state (catalog, policy table) is immutable.
type Normalizer struct {
	catalog  *schema.Catalog
	redactor *redact.Engine
	now      func() time.Time
}

// Option configures the Normalizer.
type Option func(*Normalizer)

// WithClock overrides the timestamp source; tests pin it.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New builds a Normalizer over an immutable catalog and redaction engine.
func New(catalog *schema.Catalog, redactor *redact.Engine, opts ...Option) *Normalizer {
	n := &Normalizer{catalog: catalog, redactor: redactor, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize produces the canonical record for a raw registry response. The
// returned record is owned entirely by the caller.
func (n *Normalizer) Normalize(query rdap.Query, raw json.RawMessage, ctx rdap.SecurityContext) (rdap.NormalizedRecord, error) {
	doc, err := decodeRaw(raw)
	if err != nil {
		return rdap.NormalizedRecord{}, err
	}

	registryID, ok := n.catalog.Detect(doc)
	if !ok {
		return rdap.NormalizedRecord{}, dErrors.New(dErrors.CodeUnknownRegistry,
			"response shape matches no registered registry")
	}
	reg, _ := n.catalog.Schema(registryID)

	record := rdap.NormalizedRecord{
		Query:       query,
		Registry:    registryID,
		Entities:    []rdap.Entity{},
		Events:      []rdap.Event{},
		Notices:     []rdap.Notice{},
		RetrievedAt: n.now().UTC(),
	}

	if sel, ok := reg.Fields["handle"]; ok {
		record.Handle, _ = toString(sel.First(doc))
	}
	if sel, ok := reg.Fields["name"]; ok {
		record.Name, _ = toString(sel.First(doc))
	}
	if sel, ok := reg.Fields["country"]; ok {
		record.Country, _ = toString(sel.First(doc))
	}
	if sel, ok := reg.Fields["status"]; ok {
		record.Status = sel.Strings(doc)
	}
	if record.Status == nil {
		record.Status = []string{}
	}
	if sel, ok := reg.Fields["nameservers"]; ok {
		record.Nameservers = sel.Strings(doc)
	}

	record.Events = collectEvents(reg, doc)
	record.Entities = collectEntities(reg, doc)

	redacted, err := n.redactor.Redact(record, ctx)
	if err != nil {
		return rdap.NormalizedRecord{}, err
	}
	return redacted, nil
}

// decodeRaw enforces the minimal structural contract: valid JSON, a
// top-level object, and the RDAP object class marker.
func decodeRaw(raw json.RawMessage) (any, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeMalformedResponse, "raw response is not valid JSON", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, dErrors.New(dErrors.CodeMalformedResponse, "raw response is not a JSON object")
	}
	if _, ok := obj["objectClassName"]; !ok {
		return nil, dErrors.New(dErrors.CodeMalformedResponse, "raw response missing objectClassName")
	}
	return doc, nil
}

func collectEvents(reg *schema.RegistrySchema, doc any) []rdap.Event {
	events := []rdap.Event{}
	for _, raw := range reg.Events.Eval(doc) {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		action, _ := toString(obj["eventAction"])
		date, _ := toString(obj["eventDate"])
		if action == "" && date == "" {
			continue
		}
		events = append(events, rdap.Event{Action: action, Date: date})
	}
	return events
}

// collectEntities walks the entity subtrees the schema selects and extracts
// the per-entity fields. Handle and roles come straight off the subtree:
// they are structural in RDAP (RFC 7483), not registry-specific. Nested
// duplicates of the same handle keep their first occurrence.
func collectEntities(reg *schema.RegistrySchema, doc any) []rdap.Entity {
	entities := []rdap.Entity{}
	seen := make(map[string]struct{})

	for _, raw := range reg.Entities.Eval(doc) {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		entity := rdap.Entity{
			Roles:  []string{},
			Fields: make(map[string]rdap.FieldValue),
		}
		entity.Handle, _ = toString(obj["handle"])
		if roles, ok := obj["roles"].([]any); ok {
			for _, r := range roles {
				if s, ok := toString(r); ok {
					entity.Roles = append(entity.Roles, s)
				}
			}
		}

		if entity.Handle != "" {
			if _, dup := seen[entity.Handle]; dup {
				continue
			}
			seen[entity.Handle] = struct{}{}
		}

		for name, sel := range reg.EntityFields {
			value, ok := toString(sel.First(obj))
			if !ok || value == "" {
				continue
			}
			entity.Fields[name] = rdap.NewFieldValue(value, sel.PIICategory)
		}

		if entity.Handle == "" && len(entity.Roles) == 0 && len(entity.Fields) == 0 {
			continue
		}
		entities = append(entities, entity)
	}
	return entities
}

func toString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
