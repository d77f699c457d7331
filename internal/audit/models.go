package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance,
	// such as PII redaction decisions. These require long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics, such as blocked lookup targets. These feed into SIEM pipelines.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key pipeline actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category     EventCategory
	Timestamp    time.Time
	Action       string
	QueryType    string
	QueryValue   string
	Jurisdiction string
	Registry     string
	Outcome      string
	Reason       string
	RequestID    string
}

type AuditEvent string

const (
	// Security events
	EventTargetBlocked    AuditEvent = "target_blocked"
	EventRedirectBlocked  AuditEvent = "redirect_blocked"
	EventPrivateRangeOpt  AuditEvent = "private_range_allowed"
	EventAuthFailed       AuditEvent = "auth_failed"
	EventCacheInvalidated AuditEvent = "cache_invalidated"

	// Compliance events
	EventRedactionApplied AuditEvent = "redaction_applied"
	EventRedactionSkipped AuditEvent = "redaction_skipped"

	// Operations events
	EventLookupCompleted  AuditEvent = "lookup_completed"
	EventLookupFailed     AuditEvent = "lookup_failed"
	EventUnknownRegistry  AuditEvent = "unknown_registry"
	EventMalformedUpstream AuditEvent = "malformed_upstream"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventTargetBlocked:    CategorySecurity,
	EventRedirectBlocked:  CategorySecurity,
	EventPrivateRangeOpt:  CategorySecurity,
	EventAuthFailed:       CategorySecurity,
	EventCacheInvalidated: CategorySecurity,

	EventRedactionApplied: CategoryCompliance,
	EventRedactionSkipped: CategoryCompliance,

	EventLookupCompleted:  CategoryOperations,
	EventLookupFailed:     CategoryOperations,
	EventUnknownRegistry:  CategoryOperations,
	EventMalformedUpstream: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
