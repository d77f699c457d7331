package rdap

import "encoding/json"

// RedactionLevel is how aggressively a field was transformed.
type RedactionLevel string

const (
	RedactionMasked     RedactionLevel = "masked"
	RedactionAnonymized RedactionLevel = "anonymized"
	RedactionRemoved    RedactionLevel = "removed"
	RedactionHashed     RedactionLevel = "hashed"
)

// RedactionMarker replaces a personal-data value after policy is applied. The
// placeholder is what renders in output; the original value is gone.
type RedactionMarker struct {
	Level       RedactionLevel `json:"level"`
	Placeholder string         `json:"placeholder"`
}

// FieldValue is a tagged variant: either the original string value or a
// redaction marker. A non-nil Marker means the value has been redacted and
// Value no longer holds personal data.
type FieldValue struct {
	Value    string
	Category PIICategory
	Marker   *RedactionMarker
}

// NewFieldValue returns an unredacted field value.
func NewFieldValue(value string, category PIICategory) FieldValue {
	return FieldValue{Value: value, Category: category}
}

// Redacted reports whether a marker has replaced the original value.
func (f FieldValue) Redacted() bool { return f.Marker != nil }

// String renders the presentable form: the placeholder when redacted, the
// original value otherwise.
func (f FieldValue) String() string {
	if f.Marker != nil {
		return f.Marker.Placeholder
	}
	return f.Value
}

type fieldValueJSON struct {
	Value    string           `json:"value,omitempty"`
	Category PIICategory      `json:"pii_category,omitempty"`
	Redacted *RedactionMarker `json:"redacted,omitempty"`
}

// MarshalJSON emits the original value or the marker, never both. Redacted
// fields omit Value entirely so serialized records cannot leak.
func (f FieldValue) MarshalJSON() ([]byte, error) {
	out := fieldValueJSON{Category: f.Category}
	if f.Marker != nil {
		out.Redacted = f.Marker
	} else {
		out.Value = f.Value
	}
	return json.Marshal(out)
}

func (f *FieldValue) UnmarshalJSON(data []byte) error {
	var in fieldValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f.Value = in.Value
	f.Category = in.Category
	f.Marker = in.Redacted
	return nil
}
