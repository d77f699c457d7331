package redact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"rdapgate/internal/rdap"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine(NewTable())
}

func registrantRecord() rdap.NormalizedRecord {
	return rdap.NormalizedRecord{
		Registry: "verisign",
		Entities: []rdap.Entity{
			{
				Handle: "P-100",
				Roles:  []string{"registrant"},
				Fields: map[string]rdap.FieldValue{
					"full_name": rdap.NewFieldValue("Jane Holder", rdap.PIIName),
					"email":     rdap.NewFieldValue("jane@holder.example", rdap.PIIEmail),
					"phone":     rdap.NewFieldValue("+1.5551234567", rdap.PIIPhone),
					"address":   rdap.NewFieldValue("1 Main St, Springfield", rdap.PIIAddress),
				},
			},
			{
				Handle: "REG-1",
				Roles:  []string{"registrar"},
				Fields: map[string]rdap.FieldValue{
					"organization": rdap.NewFieldValue("Example Registrar Inc.", rdap.PIIOrganization),
					"email":        rdap.NewFieldValue("abuse@registrar.example", rdap.PIIEmail),
				},
			},
		},
		Status: []string{"active"},
	}
}

func (s *EngineSuite) TestStrictPolicyRemovesAllPIICategories() {
	out, err := s.engine.Redact(registrantRecord(), rdap.SecurityContext{
		Jurisdiction: "EU", RedactPII: true, LegalBasis: "GDPR Article 6(1)(f)",
	})
	s.Require().NoError(err)
	s.True(out.RedactionApplied)

	registrant := out.Entities[0]
	for name, fv := range registrant.Fields {
		s.Require().True(fv.Redacted(), "field %s must be redacted", name)
		s.Equal(rdap.RedactionRemoved, fv.Marker.Level)
		s.Equal(RedactedPlaceholder, fv.Marker.Placeholder)
	}

	raw, err := json.Marshal(out)
	s.Require().NoError(err)
	for _, verbatim := range []string{"Jane Holder", "jane@holder.example", "+1.5551234567", "1 Main St"} {
		s.NotContains(string(raw), verbatim)
	}

	s.Require().Len(out.Notices, 1)
	s.Contains(out.Notices[0].Title, "GDPR")
	s.Contains(out.Notices[0].Description[len(out.Notices[0].Description)-1], "GDPR Article 6(1)(f)")
}

func (s *EngineSuite) TestBusinessRolesExempt() {
	out, err := s.engine.Redact(registrantRecord(), rdap.SecurityContext{Jurisdiction: "EU", RedactPII: true})
	s.Require().NoError(err)

	registrar := out.Entities[1]
	s.False(registrar.Fields["organization"].Redacted())
	s.Equal("Example Registrar Inc.", registrar.Fields["organization"].Value)
	s.Equal("abuse@registrar.example", registrar.Fields["email"].Value)
}

func (s *EngineSuite) TestPartialPolicyMasksContactFields() {
	out, err := s.engine.Redact(registrantRecord(), rdap.SecurityContext{Jurisdiction: "US-CA", RedactPII: true})
	s.Require().NoError(err)

	registrant := out.Entities[0]

	email := registrant.Fields["email"]
	s.Require().True(email.Redacted())
	s.Equal(rdap.RedactionMasked, email.Marker.Level)
	s.Equal("j***@holder.example", email.Marker.Placeholder)

	phone := registrant.Fields["phone"]
	s.Require().True(phone.Redacted())
	s.NotContains(phone.Marker.Placeholder, "5551234")

	// Name and address are preserved under the partial policy.
	s.False(registrant.Fields["full_name"].Redacted())
	s.False(registrant.Fields["address"].Redacted())

	s.Require().Len(out.Notices, 1)
	s.Contains(out.Notices[0].Title, "CCPA")
}

func (s *EngineSuite) TestUnknownJurisdictionFallsBackToStrict() {
	out, err := s.engine.Redact(registrantRecord(), rdap.SecurityContext{Jurisdiction: "ZZ", RedactPII: true})
	s.Require().NoError(err)
	s.True(out.Entities[0].Fields["email"].Redacted())
	s.Equal(rdap.RedactionRemoved, out.Entities[0].Fields["email"].Marker.Level)
}

func (s *EngineSuite) TestRedactPIIFalseIsPassThrough() {
	in := registrantRecord()
	out, err := s.engine.Redact(in, rdap.SecurityContext{Jurisdiction: "EU", RedactPII: false})
	s.Require().NoError(err)
	s.False(out.RedactionApplied)
	s.Empty(out.Notices)
	s.Equal("jane@holder.example", out.Entities[0].Fields["email"].Value)
}

func (s *EngineSuite) TestIdempotence() {
	ctx := rdap.SecurityContext{Jurisdiction: "EU", RedactPII: true, LegalBasis: "GDPR Article 6(1)(f)"}

	once, err := s.engine.Redact(registrantRecord(), ctx)
	s.Require().NoError(err)
	twice, err := s.engine.Redact(once, ctx)
	s.Require().NoError(err)

	s.Equal(once, twice)
	s.Len(twice.Notices, 1)
}

func (s *EngineSuite) TestInputNeverMutated() {
	in := registrantRecord()
	_, err := s.engine.Redact(in, rdap.SecurityContext{Jurisdiction: "EU", RedactPII: true})
	s.Require().NoError(err)
	s.Equal("jane@holder.example", in.Entities[0].Fields["email"].Value)
	s.False(in.RedactionApplied)
	s.Empty(in.Notices)
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"jane@holder.example": "j***@holder.example",
		"+1.5551234567":       "+**********67",
		"ab":                  "****",
		"abcd":                "****",
	}
	for in, want := range cases {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}
