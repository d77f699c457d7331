package fetch

import (
	"strings"

	dErrors "rdapgate/pkg/domain-errors"

	"rdapgate/internal/rdap"
)

// Bootstrap maps query types to candidate registry base URLs, tried in order.
// Mirrors the IANA RDAP bootstrap registries with a static default set.
type Bootstrap struct {
	Domain []string
	IP     []string
	ASN    []string
}

// DefaultBootstrap covers the major gTLD and RIR endpoints.
func DefaultBootstrap() Bootstrap {
	return Bootstrap{
		Domain: []string{
			"https://rdap.verisign.com/com/v1",
			"https://rdap.org",
		},
		IP: []string{
			"https://rdap.arin.net/registry",
			"https://rdap.db.ripe.net",
			"https://rdap.apnic.net",
			"https://rdap.lacnic.net/rdap",
		},
		ASN: []string{
			"https://rdap.arin.net/registry",
			"https://rdap.db.ripe.net",
			"https://rdap.lacnic.net/rdap",
		},
	}
}

// URLsFor builds the candidate lookup URLs for a query.
func (b Bootstrap) URLsFor(q rdap.Query) ([]string, error) {
	var bases []string
	var segment string
	switch q.Type {
	case rdap.QueryDomain:
		bases, segment = b.Domain, "domain"
	case rdap.QueryIP:
		bases, segment = b.IP, "ip"
	case rdap.QueryASN:
		bases, segment = b.ASN, "autnum"
	default:
		return nil, dErrors.New(dErrors.CodeInvalidQuery, "unsupported query type: "+string(q.Type))
	}
	if len(bases) == 0 {
		return nil, dErrors.New(dErrors.CodeUnknownRegistry, "no registry endpoint for query type "+string(q.Type))
	}

	urls := make([]string, 0, len(bases))
	for _, base := range bases {
		urls = append(urls, strings.TrimRight(base, "/")+"/"+segment+"/"+q.Value)
	}
	return urls, nil
}
