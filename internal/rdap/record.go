package rdap

import "time"

// PIICategory classifies what kind of personal data a field holds. Selectors
// in the registry catalog tag each extracted field; the redaction engine keys
// its policy decisions off this.
type PIICategory string

const (
	PIINone         PIICategory = "none"
	PIIEmail        PIICategory = "email"
	PIIPhone        PIICategory = "phone"
	PIIAddress      PIICategory = "address"
	PIIName         PIICategory = "name"
	PIIOrganization PIICategory = "organization"
)

// NormalizedRecord is the canonical, registry-agnostic output. Ownership
// transfers fully to the caller on return; nothing in the pipeline retains or
// mutates it afterwards.
type NormalizedRecord struct {
	Query            Query     `json:"query"`
	Registry         string    `json:"registry"`
	Handle           string    `json:"handle,omitempty"`
	Name             string    `json:"name,omitempty"`
	Entities         []Entity  `json:"entities"`
	Events           []Event   `json:"events"`
	Nameservers      []string  `json:"nameservers,omitempty"`
	Status           []string  `json:"status"`
	Country          string    `json:"country,omitempty"`
	RedactionApplied bool      `json:"redaction_applied"`
	Notices          []Notice  `json:"notices"`
	RetrievedAt      time.Time `json:"retrieved_at"`
}

// Entity is a contact or organization attached to the record. Fields hold
// either the original value or a redaction marker, never both.
type Entity struct {
	Handle string                `json:"handle,omitempty"`
	Roles  []string              `json:"roles"`
	Fields map[string]FieldValue `json:"fields"`
}

// Event is a lifecycle event (registration, last changed, expiration).
type Event struct {
	Action string `json:"action"`
	Date   string `json:"date"`
}

// Notice carries registry- or compliance-level remarks attached to the record.
type Notice struct {
	Title       string   `json:"title"`
	Description []string `json:"description"`
}

// Clone returns a deep copy. The redaction engine works on a clone so a
// record shared through the cache can never be aliased into a half-redacted
// state by a concurrent normalization.
func (r NormalizedRecord) Clone() NormalizedRecord {
	out := r
	out.Entities = make([]Entity, len(r.Entities))
	for i, e := range r.Entities {
		out.Entities[i] = e.clone()
	}
	out.Events = append([]Event(nil), r.Events...)
	out.Nameservers = append([]string(nil), r.Nameservers...)
	out.Status = append([]string(nil), r.Status...)
	out.Notices = make([]Notice, len(r.Notices))
	for i, n := range r.Notices {
		out.Notices[i] = Notice{Title: n.Title, Description: append([]string(nil), n.Description...)}
	}
	return out
}

func (e Entity) clone() Entity {
	out := e
	out.Roles = append([]string(nil), e.Roles...)
	out.Fields = make(map[string]FieldValue, len(e.Fields))
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	return out
}

// HasRole reports whether the entity carries the given RDAP role.
func (e Entity) HasRole(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}
