package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dErrors "rdapgate/pkg/domain-errors"

	"rdapgate/internal/rdap"
	"rdapgate/internal/ssrf"
)

const (
	defaultTimeout = 10 * time.Second
	defaultMaxBody = 1 << 20 // 1 MiB
	maxRedirects   = 5

	rdapContentType = "application/rdap+json"
)

type secCtxKey struct{}

func withSecurityContext(ctx context.Context, sec rdap.SecurityContext) context.Context {
	return context.WithValue(ctx, secCtxKey{}, sec)
}

func securityContextFrom(ctx context.Context) rdap.SecurityContext {
	if sec, ok := ctx.Value(secCtxKey{}).(rdap.SecurityContext); ok {
		return sec
	}
	// No context means no opt-ins, strictest posture.
	return rdap.SecurityContext{}
}

// Client fetches raw registry responses. Every outbound URL is validated
// before the request is sent, and every redirect hop is validated again
// before it is followed.
type Client struct {
	http      *http.Client
	bootstrap Bootstrap
	maxBody   int64
	logger    *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBootstrap replaces the default endpoint table.
func WithBootstrap(b Bootstrap) ClientOption {
	return func(c *Client) { c.bootstrap = b }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithMaxBodySize caps the response body size in bytes.
func WithMaxBodySize(n int64) ClientOption {
	return func(c *Client) { c.maxBody = n }
}

func NewClient(logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		bootstrap: DefaultBootstrap(),
		maxBody:   defaultMaxBody,
		logger:    logger,
	}
	c.http = &http.Client{
		Timeout:       defaultTimeout,
		CheckRedirect: checkRedirect,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// checkRedirect re-validates each redirect hop against the security context
// carried on the request. A registry must not be able to bounce the client
// into internal address space.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("stopped after %d redirects", maxRedirects))
	}
	sec := securityContextFrom(req.Context())
	if err := ssrf.Validate(req.URL.String(), sec); err != nil {
		return dErrors.Wrap(dErrors.CodeOf(err), "redirect target rejected", err)
	}
	return nil
}

// Fetch retrieves the raw JSON response for the query, trying the bootstrap
// candidates in order. Unreachable endpoints fall through to the next
// candidate; guard violations and not-found answers are final.
func (c *Client) Fetch(ctx context.Context, q rdap.Query, sec rdap.SecurityContext) ([]byte, error) {
	urls, err := c.bootstrap.URLsFor(q)
	if err != nil {
		return nil, err
	}

	ctx = withSecurityContext(ctx, sec)

	var lastErr error
	for _, target := range urls {
		if err := ssrf.Validate(target, sec); err != nil {
			return nil, err
		}

		body, err := c.fetchOne(ctx, target)
		if err == nil {
			return body, nil
		}
		if dErrors.HasCode(err, dErrors.CodeNotFound) || isGuardError(err) {
			return nil, err
		}
		c.logger.WarnContext(ctx, "registry endpoint failed, trying next candidate",
			"url", target,
			"error", err,
		)
		lastErr = err
	}
	return nil, dErrors.Wrap(dErrors.CodeUpstream, "all registry endpoints failed", lastErr)
}

func (c *Client) fetchOne(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "build registry request", err)
	}
	req.Header.Set("Accept", rdapContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(dErrors.CodeTimeout, "registry request timed out", err)
		}
		// url.Error wraps the CheckRedirect rejection; surface the coded error.
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return nil, coded
		}
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "registry request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "object not found in registry")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("registry returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "read registry response", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("registry response exceeds %d bytes", c.maxBody))
	}
	return body, nil
}

// isGuardError reports whether err is one of the target-validation failures,
// which must never be retried against another endpoint.
func isGuardError(err error) bool {
	for _, code := range []dErrors.Code{
		dErrors.CodePrivateAddress,
		dErrors.CodeReservedHostname,
		dErrors.CodeDisallowedProtocol,
		dErrors.CodeSuspiciousPattern,
	} {
		if dErrors.HasCode(err, code) {
			return true
		}
	}
	return false
}
