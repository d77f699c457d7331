// Package domainerrors carries typed, code-bearing errors across layer
// boundaries. Services and engines return these; transport translates them to
// HTTP status codes. Infra facts (missing rows, expired entries) use
// pkg/platform/sentinel instead.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a stable error class. Codes are part of the API surface:
// hosts route on them, so renaming one is a breaking change.
type Code string

const (
	// Request validation.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidQuery Code = "invalid_query"

	// SSRF guard violations.
	CodeInvalidFormat      Code = "invalid_format"
	CodePrivateAddress     Code = "private_address"
	CodeReservedHostname   Code = "reserved_hostname"
	CodeDisallowedProtocol Code = "disallowed_protocol"
	CodeSuspiciousPattern  Code = "suspicious_pattern"

	// Normalization failures.
	CodeUnknownRegistry   Code = "unknown_registry_format"
	CodeMalformedResponse Code = "malformed_response"
	CodeRedactionPolicy   Code = "redaction_policy_error"

	// Infrastructure and host plumbing.
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"
	CodeUpstream     Code = "upstream_error"
	CodeInternal     Code = "internal_error"
)

// Error is the concrete coded error type. Wrapped causes stay reachable via
// errors.Unwrap so sentinel checks keep working through this layer.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is is shorthand for HasCode, matching how call sites read.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for plain
// errors so transport never leaks an uncoded failure as anything but a 500.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps codes to HTTP statuses at the transport boundary. Guard
// violations are 403: the input parsed fine, the target is blocked by policy.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidQuery, CodeInvalidFormat, CodeMalformedResponse:
		return http.StatusBadRequest
	case CodePrivateAddress, CodeReservedHostname, CodeDisallowedProtocol,
		CodeSuspiciousPattern, CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnknownRegistry, CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
