// Package ssrf validates lookup targets before any outbound request is made.
// The guard is pure: no network access, no DNS resolution. The fetch layer
// must call Validate again on every redirect hop it follows.
package ssrf

import (
	"net/netip"
	"strings"

	"rdapgate/internal/rdap"
	dErrors "rdapgate/pkg/domain-errors"
)

// privatePrefixes are the address ranges a lookup may never target unless the
// caller explicitly opts in. IPv4-mapped IPv6 addresses are unmapped before
// checking so ::ffff:10.0.0.1 cannot slip through.
var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
}

// reservedMarkers reject hostnames that name internal infrastructure even
// when they would resolve publicly.
var reservedMarkers = []string{"localhost", "internal"}

// suspiciousSubstrings are known SSRF bypass encodings. Matched verbatim on
// the lowercased target; the guard does not decode, it rejects.
var suspiciousSubstrings = []string{
	"../",
	"..\\",
	"%2e%2e",
	"%252e",
	"%25%32%65",
	"%00",
	"\x00",
}

// Validate checks a lookup target (hostname, IP address, or URL) against the
// guard's blocklists. A nil return means the target is safe to fetch.
func Validate(target string, ctx rdap.SecurityContext) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return dErrors.New(dErrors.CodeInvalidFormat, "empty target")
	}

	lower := strings.ToLower(target)

	// Embedded scheme: only http(s) may pass, and the host part is then
	// validated like a bare target.
	host := lower
	if idx := strings.Index(lower, "://"); idx >= 0 {
		scheme := lower[:idx]
		if scheme != "http" && scheme != "https" {
			return dErrors.New(dErrors.CodeDisallowedProtocol, "disallowed scheme: "+scheme)
		}
		host = lower[idx+3:]
	} else if idx := strings.Index(lower, ":"); idx >= 0 && strings.HasPrefix(lower[idx:], ":/") {
		// Catch scheme-relative smuggling like "file:/etc/passwd".
		return dErrors.New(dErrors.CodeDisallowedProtocol, "disallowed scheme prefix")
	}

	for _, pattern := range suspiciousSubstrings {
		if strings.Contains(lower, pattern) {
			return dErrors.New(dErrors.CodeSuspiciousPattern, "bypass pattern in target: "+pattern)
		}
	}
	if n := strings.Count(host, "@"); n > 1 {
		return dErrors.New(dErrors.CodeSuspiciousPattern, "multiple @ separators in target")
	} else if n == 1 {
		return dErrors.New(dErrors.CodeSuspiciousPattern, "credentials embedded in target")
	}

	// Reduce "host/path:port" to the bare hostname.
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	host = stripPort(host)
	if host == "" {
		return dErrors.New(dErrors.CodeInvalidFormat, "no host in target")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return validateAddr(addr, ctx)
	}
	if prefix, err := netip.ParsePrefix(host); err == nil {
		return validateAddr(prefix.Addr(), ctx)
	}

	for _, marker := range reservedMarkers {
		if host == marker || strings.Contains(host, marker+".") || strings.HasSuffix(host, "."+marker) {
			return dErrors.New(dErrors.CodeReservedHostname, "reserved hostname: "+host)
		}
	}
	if strings.HasSuffix(host, ".local") {
		return dErrors.New(dErrors.CodeReservedHostname, "mDNS hostname: "+host)
	}

	return nil
}

func validateAddr(addr netip.Addr, ctx rdap.SecurityContext) error {
	if ctx.AllowPrivateIPs {
		return nil
	}
	addr = addr.Unmap()
	for _, prefix := range privatePrefixes {
		if prefix.Contains(addr) {
			return dErrors.New(dErrors.CodePrivateAddress, "target in private range "+prefix.String())
		}
	}
	return nil
}

// stripPort removes a trailing :port from host, handling bracketed IPv6
// literals. Bare IPv6 addresses (multiple colons) are left intact.
func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end >= 0 {
			return host[1:end]
		}
		return host
	}
	if strings.Count(host, ":") == 1 {
		return host[:strings.Index(host, ":")]
	}
	return host
}
