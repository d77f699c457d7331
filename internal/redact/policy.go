// Package redact applies jurisdiction-aware PII redaction policy to
// normalized records. Policies form a closed registration table; an
// unrecognized jurisdiction falls back to the strictest built-in policy,
// never to "no redaction".
package redact

import (
	"strings"

	"rdapgate/internal/rdap"
)

// RedactedPlaceholder is the full placeholder for removed values.
const RedactedPlaceholder = "[REDACTED]"

// Policy decides the redaction level per PII category. A category absent
// from Levels is preserved as-is.
type Policy struct {
	Name        string
	Levels      map[rdap.PIICategory]rdap.RedactionLevel
	NoticeTitle string
	// NoticeLines are the compliance notice body; the caller's legal basis is
	// appended as its own line when present.
	NoticeLines []string
}

// Built-in policies. gdprStrict is also the fail-safe fallback.
var (
	gdprStrict = &Policy{
		Name: "gdpr-strict",
		Levels: map[rdap.PIICategory]rdap.RedactionLevel{
			rdap.PIIEmail:        rdap.RedactionRemoved,
			rdap.PIIPhone:        rdap.RedactionRemoved,
			rdap.PIIAddress:      rdap.RedactionRemoved,
			rdap.PIIName:         rdap.RedactionRemoved,
			rdap.PIIOrganization: rdap.RedactionRemoved,
		},
		NoticeTitle: "GDPR Data Redaction Notice",
		NoticeLines: []string{
			"Personal data in this record has been redacted in accordance with the EU General Data Protection Regulation (GDPR).",
			"Redacted fields are replaced by markers carrying the applied redaction level.",
		},
	}

	ccpaPartial = &Policy{
		Name: "ccpa-partial",
		Levels: map[rdap.PIICategory]rdap.RedactionLevel{
			rdap.PIIEmail: rdap.RedactionMasked,
			rdap.PIIPhone: rdap.RedactionMasked,
		},
		NoticeTitle: "CCPA Privacy Notice",
		NoticeLines: []string{
			"Contact details in this record have been partially masked under the California Consumer Privacy Act (CCPA).",
		},
	}
)

// Table maps jurisdictions to policies. Immutable after construction; build
// a new table to change policy rather than mutating a shared one.
type Table struct {
	byJurisdiction map[string]*Policy
	fallback       *Policy
}

// NewTable returns the built-in policy table: EU/EEA/UK route to the strict
// GDPR policy, US-CA to the partial CCPA policy. Everything else falls back
// to strict.
func NewTable() *Table {
	return &Table{
		byJurisdiction: map[string]*Policy{
			"EU":    gdprStrict,
			"EEA":   gdprStrict,
			"UK":    gdprStrict,
			"US-CA": ccpaPartial,
		},
		fallback: gdprStrict,
	}
}

// Register returns a copy of the table with an additional jurisdiction
// mapping. Used by hosts that carry bespoke policies.
func (t *Table) Register(jurisdiction string, p *Policy) *Table {
	out := &Table{
		byJurisdiction: make(map[string]*Policy, len(t.byJurisdiction)+1),
		fallback:       t.fallback,
	}
	for k, v := range t.byJurisdiction {
		out.byJurisdiction[k] = v
	}
	out.byJurisdiction[normalizeJurisdiction(jurisdiction)] = p
	return out
}

// For resolves the policy for a jurisdiction, falling back to the strictest
// policy for anything unrecognized.
func (t *Table) For(jurisdiction string) *Policy {
	if p, ok := t.byJurisdiction[normalizeJurisdiction(jurisdiction)]; ok {
		return p
	}
	return t.fallback
}

func normalizeJurisdiction(j string) string {
	return strings.ToUpper(strings.TrimSpace(j))
}
