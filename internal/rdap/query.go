package rdap

import (
	"net/netip"
	"strconv"
	"strings"

	dErrors "rdapgate/pkg/domain-errors"
)

// QueryType selects which class of registration data is being looked up.
type QueryType string

const (
	QueryDomain QueryType = "domain"
	QueryIP     QueryType = "ip"
	QueryASN    QueryType = "asn"
)

// Query is the immutable lookup request. Construct it through NewQuery so a
// Query in hand is always a validated one.
type Query struct {
	Type  QueryType `json:"type"`
	Value string    `json:"value"`
}

// NewQuery validates and normalizes the raw value for the given type. Values
// are lowercased and trimmed; ASN queries accept both "AS65536" and "65536"
// and normalize to the bare number.
func NewQuery(qt QueryType, value string) (Query, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return Query{}, dErrors.New(dErrors.CodeInvalidQuery, "empty query value")
	}

	switch qt {
	case QueryDomain:
		if err := validateDomainName(value); err != nil {
			return Query{}, err
		}
	case QueryIP:
		if _, err := netip.ParseAddr(value); err != nil {
			if _, perr := netip.ParsePrefix(value); perr != nil {
				return Query{}, dErrors.New(dErrors.CodeInvalidQuery, "not an IP address or prefix: "+value)
			}
		}
	case QueryASN:
		value = strings.TrimPrefix(value, "as")
		if _, err := strconv.ParseUint(value, 10, 32); err != nil {
			return Query{}, dErrors.New(dErrors.CodeInvalidQuery, "not an AS number: "+value)
		}
	default:
		return Query{}, dErrors.New(dErrors.CodeInvalidQuery, "unsupported query type: "+string(qt))
	}

	return Query{Type: qt, Value: value}, nil
}

func validateDomainName(name string) error {
	if len(name) > 253 || !strings.Contains(name, ".") {
		return dErrors.New(dErrors.CodeInvalidQuery, "not a domain name: "+name)
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return dErrors.New(dErrors.CodeInvalidQuery, "empty label in domain name: "+name)
		}
		if len(label) > 63 {
			return dErrors.New(dErrors.CodeInvalidQuery, "label too long in domain name: "+name)
		}
		for _, r := range label {
			isLDH := r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
			if !isLDH {
				return dErrors.New(dErrors.CodeInvalidQuery, "non-LDH character in domain name: "+name)
			}
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return dErrors.New(dErrors.CodeInvalidQuery, "label starts or ends with hyphen: "+name)
		}
	}
	return nil
}

// SecurityContext carries the per-request security posture. It is supplied by
// the caller and never persisted beyond the request and its cache key.
type SecurityContext struct {
	Jurisdiction    string `json:"jurisdiction"`
	LegalBasis      string `json:"legal_basis,omitempty"`
	RedactPII       bool   `json:"redact_pii"`
	AllowPrivateIPs bool   `json:"allow_private_ips"`
}
