package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the cache layer return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: cache entry or audit record does not exist
// - ErrExpired: cache entry is past its TTL
// - ErrUnavailable: backing store (Redis, Postgres, broker) temporarily down
//
// For validation errors (bad input, blocked targets), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
