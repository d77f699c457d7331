package rdap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "rdapgate/pkg/domain-errors"
)

func TestNewQuery(t *testing.T) {
	t.Run("valid domain lowercased", func(t *testing.T) {
		q, err := NewQuery(QueryDomain, " Example.COM ")
		require.NoError(t, err)
		require.Equal(t, "example.com", q.Value)
	})

	t.Run("domain without dot rejected", func(t *testing.T) {
		_, err := NewQuery(QueryDomain, "localhost")
		require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidQuery))
	})

	t.Run("domain with underscore rejected", func(t *testing.T) {
		_, err := NewQuery(QueryDomain, "bad_label.example.com")
		require.Error(t, err)
	})

	t.Run("ipv4 and ipv6 accepted", func(t *testing.T) {
		for _, v := range []string{"198.51.100.1", "2001:db8::1", "10.0.0.0/8"} {
			_, err := NewQuery(QueryIP, v)
			require.NoError(t, err, v)
		}
	})

	t.Run("asn prefix stripped", func(t *testing.T) {
		q, err := NewQuery(QueryASN, "AS64512")
		require.NoError(t, err)
		require.Equal(t, "64512", q.Value)
	})

	t.Run("empty value rejected", func(t *testing.T) {
		_, err := NewQuery(QueryDomain, "   ")
		require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidQuery))
	})
}

func TestFieldValueJSONNeverLeaksRedactedValue(t *testing.T) {
	fv := NewFieldValue("person@example.com", PIIEmail)
	fv.Marker = &RedactionMarker{Level: RedactionRemoved, Placeholder: "[REDACTED]"}

	raw, err := json.Marshal(fv)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "person@example.com")

	var back FieldValue
	require.NoError(t, json.Unmarshal(raw, &back))
	require.True(t, back.Redacted())
	require.Equal(t, RedactionRemoved, back.Marker.Level)
}

func TestCloneIsDeep(t *testing.T) {
	rec := NormalizedRecord{
		Registry: "verisign",
		Entities: []Entity{{
			Handle: "H1",
			Roles:  []string{"registrant"},
			Fields: map[string]FieldValue{"email": NewFieldValue("a@b.example", PIIEmail)},
		}},
		Nameservers: []string{"ns1.example.com"},
		Status:      []string{"active"},
	}

	cp := rec.Clone()
	cp.Entities[0].Fields["email"] = NewFieldValue("changed", PIIEmail)
	cp.Nameservers[0] = "changed"
	cp.Entities[0].Roles[0] = "changed"

	require.Equal(t, "a@b.example", rec.Entities[0].Fields["email"].Value)
	require.Equal(t, "ns1.example.com", rec.Nameservers[0])
	require.Equal(t, "registrant", rec.Entities[0].Roles[0])
}
