package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"rdapgate/internal/rdap"
	dErrors "rdapgate/pkg/domain-errors"
)

// businessExemptRoles are RDAP roles whose fields identify an organization
// acting in a business capacity, not a person. They are fully exempt from
// redaction regardless of jurisdiction. This is a deliberate policy decision;
// see DESIGN.md for the legal reading it encodes.
var businessExemptRoles = map[string]struct{}{
	"registrar": {},
	"abuse":     {},
	"technical": {},
}

// Engine applies the active policy table to records. Stateless and safe for
// concurrent use.
type Engine struct {
	table *Table
}

// NewEngine builds an engine over the given policy table.
func NewEngine(table *Table) *Engine {
	return &Engine{table: table}
}

// Redact returns a redacted copy of the record; the input is never mutated.
// Idempotent: fields already carrying a marker are left untouched and the
// compliance notice is appended at most once, so re-redacting a redacted
// record is a no-op.
func (e *Engine) Redact(record rdap.NormalizedRecord, ctx rdap.SecurityContext) (rdap.NormalizedRecord, error) {
	out := record.Clone()

	if !ctx.RedactPII {
		out.RedactionApplied = false
		return out, nil
	}

	policy := e.table.For(ctx.Jurisdiction)
	if policy == nil || len(policy.Levels) == 0 && policy.NoticeTitle == "" {
		// Unreachable given the table's fail-safe fallback; surfaced rather
		// than silently returning unredacted PII if it ever happens.
		return rdap.NormalizedRecord{}, dErrors.New(dErrors.CodeRedactionPolicy,
			"no policy resolved for jurisdiction "+ctx.Jurisdiction)
	}

	for i := range out.Entities {
		if isBusinessExempt(out.Entities[i]) {
			continue
		}
		for name, fv := range out.Entities[i].Fields {
			if fv.Category == rdap.PIINone || fv.Redacted() {
				continue
			}
			level, governed := policy.Levels[fv.Category]
			if !governed {
				continue
			}
			fv.Marker = applyLevel(level, fv.Value)
			fv.Value = ""
			out.Entities[i].Fields[name] = fv
		}
	}

	out.RedactionApplied = true
	appendNoticeOnce(&out, policy, ctx)
	return out, nil
}

func isBusinessExempt(e rdap.Entity) bool {
	for _, role := range e.Roles {
		if _, ok := businessExemptRoles[strings.ToLower(role)]; ok {
			return true
		}
	}
	return false
}

func applyLevel(level rdap.RedactionLevel, value string) *rdap.RedactionMarker {
	switch level {
	case rdap.RedactionMasked:
		return &rdap.RedactionMarker{Level: level, Placeholder: mask(value)}
	case rdap.RedactionAnonymized:
		return &rdap.RedactionMarker{Level: level, Placeholder: "anon-" + shortHash(value)}
	case rdap.RedactionHashed:
		return &rdap.RedactionMarker{Level: level, Placeholder: fullHash(value)}
	default:
		return &rdap.RedactionMarker{Level: rdap.RedactionRemoved, Placeholder: RedactedPlaceholder}
	}
}

// mask keeps just enough of the value to correlate without identifying:
// first character plus the mail domain for emails, first and last two
// characters for everything else long enough to survive it.
func mask(value string) string {
	if at := strings.LastIndex(value, "@"); at > 0 {
		return value[:1] + "***@" + value[at+1:]
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:1] + strings.Repeat("*", len(value)-3) + value[len(value)-2:]
}

func shortHash(value string) string {
	return fullHash(value)[:12]
}

func fullHash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func appendNoticeOnce(record *rdap.NormalizedRecord, policy *Policy, ctx rdap.SecurityContext) {
	for _, n := range record.Notices {
		if n.Title == policy.NoticeTitle {
			return
		}
	}
	lines := append([]string(nil), policy.NoticeLines...)
	if ctx.LegalBasis != "" {
		lines = append(lines, "Legal basis: "+ctx.LegalBasis)
	}
	record.Notices = append(record.Notices, rdap.Notice{
		Title:       policy.NoticeTitle,
		Description: lines,
	})
}
