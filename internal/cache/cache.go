// Package cache memoizes normalized records keyed by query plus the
// security-context fields that affect output. It guarantees at most one
// concurrent computation per key; failures are returned to every waiter but
// never stored.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"rdapgate/internal/rdap"
	"rdapgate/pkg/platform/sentinel"
)

// Key is the composite cache key. Two requests differing only in
// jurisdiction or redaction flag are distinct entries; a record redacted for
// one jurisdiction must never serve another.
type Key struct {
	Type         rdap.QueryType
	Value        string
	Jurisdiction string
	RedactPII    bool
}

// NewKey derives the cache key for a query and security context.
func NewKey(q rdap.Query, ctx rdap.SecurityContext) Key {
	return Key{
		Type:         q.Type,
		Value:        q.Value,
		Jurisdiction: ctx.Jurisdiction,
		RedactPII:    ctx.RedactPII,
	}
}

// String renders the opaque storage form of the key.
func (k Key) String() string {
	redacted := "plain"
	if k.RedactPII {
		redacted = "redacted"
	}
	return fmt.Sprintf("%s|%s|%s|%s", k.Type, k.Value, k.Jurisdiction, redacted)
}

// Store is the entry storage backend. Get returns sentinel.ErrNotFound for
// absent keys and sentinel.ErrExpired for entries past their TTL; both mean
// "recompute" to the cache.
type Store interface {
	Get(ctx context.Context, key Key) (rdap.NormalizedRecord, error)
	Set(ctx context.Context, key Key, record rdap.NormalizedRecord, ttl time.Duration) error
	Delete(ctx context.Context, key Key) error
}

// TTLConfig carries per-query-type entry lifetimes. Domains churn fastest,
// ASN allocations slowest.
type TTLConfig struct {
	Domain time.Duration
	IP     time.Duration
	ASN    time.Duration
}

// DefaultTTLs reflects the relative volatility of the three record classes.
func DefaultTTLs() TTLConfig {
	return TTLConfig{
		Domain: time.Hour,
		IP:     4 * time.Hour,
		ASN:    24 * time.Hour,
	}
}

func (c TTLConfig) For(qt rdap.QueryType) time.Duration {
	switch qt {
	case rdap.QueryIP:
		return c.IP
	case rdap.QueryASN:
		return c.ASN
	default:
		return c.Domain
	}
}

// ComputeFn produces a record on cache miss. It receives a context detached
// from any single caller's cancellation: once a computation is in flight it
// completes for every waiter.
type ComputeFn func(ctx context.Context) (rdap.NormalizedRecord, error)

// Cache is the read-through memoization layer. Safe for concurrent use.
type Cache struct {
	store Store
	ttls  TTLConfig
	group singleflight.Group
}

// New builds a cache over the given store.
func New(store Store, ttls TTLConfig) *Cache {
	return &Cache{store: store, ttls: ttls}
}

// GetOrCompute returns the cached record for key, or runs compute exactly
// once across all concurrent callers of the same key. The boolean reports a
// cache hit. Compute failures propagate to every current waiter and are not
// stored, so the next call re-attempts.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute ComputeFn) (rdap.NormalizedRecord, bool, error) {
	if rec, err := c.store.Get(ctx, key); err == nil {
		return rec, true, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrExpired) {
		return rdap.NormalizedRecord{}, false, err
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		// Detached context: one caller giving up must not abort a
		// computation other callers are awaiting.
		bg := context.WithoutCancel(ctx)

		// Re-check under the flight: another caller may have populated the
		// store between our miss and this flight starting.
		if rec, err := c.store.Get(bg, key); err == nil {
			return rec, nil
		}

		rec, err := compute(bg)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(bg, key, rec, c.ttls.For(key.Type)); err != nil {
			// A broken store must not fail the lookup; the record is good.
			return rec, nil
		}
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return rdap.NormalizedRecord{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return rdap.NormalizedRecord{}, false, res.Err
		}
		return res.Val.(rdap.NormalizedRecord), false, nil
	}
}

// Invalidate drops the entry for a composite key.
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	return c.store.Delete(ctx, key)
}
