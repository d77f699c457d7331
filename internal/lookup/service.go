package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	dErrors "rdapgate/pkg/domain-errors"

	"rdapgate/internal/audit"
	"rdapgate/internal/cache"
	"rdapgate/internal/platform/metrics"
	"rdapgate/internal/rdap"
)

// Fetcher retrieves the raw registry response for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q rdap.Query, sec rdap.SecurityContext) ([]byte, error)
}

// Normalizer converts a raw registry response into the canonical record.
type Normalizer interface {
	Normalize(q rdap.Query, raw json.RawMessage, sec rdap.SecurityContext) (rdap.NormalizedRecord, error)
}

// Service runs the lookup pipeline: cache, fetch, normalize, audit.
type Service struct {
	cache      *cache.Cache
	fetcher    Fetcher
	normalizer Normalizer
	recorder   *audit.Recorder
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(
	c *cache.Cache,
	fetcher Fetcher,
	normalizer Normalizer,
	recorder *audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		cache:      c,
		fetcher:    fetcher,
		normalizer: normalizer,
		recorder:   recorder,
		metrics:    m,
		logger:     logger,
	}
}

// Lookup validates the raw query, serves it from cache when possible, and
// otherwise fetches and normalizes the registry response. Every outcome is
// audited.
func (s *Service) Lookup(ctx context.Context, qt rdap.QueryType, value string, sec rdap.SecurityContext) (rdap.NormalizedRecord, error) {
	q, err := rdap.NewQuery(qt, value)
	if err != nil {
		return rdap.NormalizedRecord{}, err
	}

	key := cache.NewKey(q, sec)
	record, hit, err := s.cache.GetOrCompute(ctx, key, func(flightCtx context.Context) (rdap.NormalizedRecord, error) {
		return s.compute(flightCtx, q, sec)
	})
	if err != nil {
		s.recordFailure(ctx, q, sec, err)
		return rdap.NormalizedRecord{}, err
	}

	if s.metrics != nil {
		if hit {
			s.metrics.CacheHits.Inc()
		} else {
			s.metrics.CacheMisses.Inc()
		}
		s.metrics.Lookups.WithLabelValues(string(q.Type), record.Registry).Inc()
	}

	s.recorder.Record(ctx, audit.Event{
		Action:       string(audit.EventLookupCompleted),
		QueryType:    string(q.Type),
		QueryValue:   q.Value,
		Jurisdiction: sec.Jurisdiction,
		Registry:     record.Registry,
		Outcome:      outcomeFor(hit),
	})
	if record.RedactionApplied {
		if s.metrics != nil {
			s.metrics.FieldsRedacted.WithLabelValues(sec.Jurisdiction).Inc()
		}
		s.recorder.Record(ctx, audit.Event{
			Action:       string(audit.EventRedactionApplied),
			QueryType:    string(q.Type),
			QueryValue:   q.Value,
			Jurisdiction: sec.Jurisdiction,
			Registry:     record.Registry,
		})
	}
	return record, nil
}

// Invalidate drops the cache entry for the given query and security context.
func (s *Service) Invalidate(ctx context.Context, qt rdap.QueryType, value string, sec rdap.SecurityContext) error {
	q, err := rdap.NewQuery(qt, value)
	if err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cache.NewKey(q, sec)); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Event{
		Action:       string(audit.EventCacheInvalidated),
		QueryType:    string(q.Type),
		QueryValue:   q.Value,
		Jurisdiction: sec.Jurisdiction,
	})
	return nil
}

func (s *Service) compute(ctx context.Context, q rdap.Query, sec rdap.SecurityContext) (rdap.NormalizedRecord, error) {
	start := time.Now()

	raw, err := s.fetcher.Fetch(ctx, q, sec)
	if err != nil {
		return rdap.NormalizedRecord{}, err
	}

	record, err := s.normalizer.Normalize(q, raw, sec)
	if err != nil {
		return rdap.NormalizedRecord{}, err
	}
	s.logger.DebugContext(ctx, "record normalized",
		"query_type", q.Type,
		"query_value", q.Value,
		"registry", record.Registry,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.metrics != nil {
		s.metrics.NormalizeSeconds.Observe(time.Since(start).Seconds())
	}
	return record, nil
}

func (s *Service) recordFailure(ctx context.Context, q rdap.Query, sec rdap.SecurityContext, err error) {
	code := dErrors.CodeOf(err)

	action := audit.EventLookupFailed
	switch code {
	case dErrors.CodePrivateAddress, dErrors.CodeReservedHostname,
		dErrors.CodeDisallowedProtocol, dErrors.CodeSuspiciousPattern:
		action = audit.EventTargetBlocked
		if s.metrics != nil {
			s.metrics.TargetsBlocked.WithLabelValues(string(code)).Inc()
		}
	case dErrors.CodeUnknownRegistry:
		action = audit.EventUnknownRegistry
	case dErrors.CodeMalformedResponse:
		action = audit.EventMalformedUpstream
	}
	if s.metrics != nil {
		s.metrics.LookupFailures.WithLabelValues(string(code)).Inc()
	}

	s.recorder.Record(ctx, audit.Event{
		Action:       string(action),
		QueryType:    string(q.Type),
		QueryValue:   q.Value,
		Jurisdiction: sec.Jurisdiction,
		Reason:       err.Error(),
	})
}

func outcomeFor(hit bool) string {
	if hit {
		return "cache_hit"
	}
	return "cache_miss"
}
