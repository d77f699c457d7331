package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rdapgate/internal/rdap"
)

type CacheSuite struct {
	suite.Suite
	ctx context.Context
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.ctx = context.Background()
}

func testKey(value string) Key {
	return Key{Type: rdap.QueryDomain, Value: value, Jurisdiction: "EU", RedactPII: true}
}

func recordNamed(name string) rdap.NormalizedRecord {
	return rdap.NormalizedRecord{Registry: "verisign", Name: name}
}

func (s *CacheSuite) TestAtMostOneConcurrentCompute() {
	c := New(NewMemoryStore(100), DefaultTTLs())
	key := testKey("example.com")

	var computes atomic.Int64
	release := make(chan struct{})

	const callers = 20
	var wg sync.WaitGroup
	results := make([]rdap.NormalizedRecord, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _, errs[i] = c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
				computes.Add(1)
				<-release
				return recordNamed("example.com"), nil
			})
		}()
	}

	// Let every caller reach the flight before releasing the compute.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Equal(int64(1), computes.Load())
	for i := range callers {
		s.Require().NoError(errs[i])
		s.Equal("example.com", results[i].Name)
	}
}

func (s *CacheSuite) TestFailureNotCached() {
	c := New(NewMemoryStore(100), DefaultTTLs())
	key := testKey("flaky.example")

	boom := errors.New("upstream timeout")
	var calls atomic.Int64

	_, _, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		calls.Add(1)
		return rdap.NormalizedRecord{}, boom
	})
	s.Require().ErrorIs(err, boom)

	rec, hit, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		calls.Add(1)
		return recordNamed("flaky.example"), nil
	})
	s.Require().NoError(err)
	s.False(hit)
	s.Equal("flaky.example", rec.Name)
	s.Equal(int64(2), calls.Load())
}

func (s *CacheSuite) TestSecondCallIsAHit() {
	c := New(NewMemoryStore(100), DefaultTTLs())
	key := testKey("example.com")

	_, hit, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		return recordNamed("example.com"), nil
	})
	s.Require().NoError(err)
	s.False(hit)

	rec, hit, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		s.Fail("compute must not run on a warm key")
		return rdap.NormalizedRecord{}, nil
	})
	s.Require().NoError(err)
	s.True(hit)
	s.Equal("example.com", rec.Name)
}

func (s *CacheSuite) TestTTLExpiryTriggersRecompute() {
	c := New(NewMemoryStore(100), TTLConfig{Domain: time.Millisecond})
	key := testKey("expiring.example")

	_, _, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		return recordNamed("stale"), nil
	})
	s.Require().NoError(err)

	time.Sleep(5 * time.Millisecond)

	rec, hit, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		return recordNamed("fresh"), nil
	})
	s.Require().NoError(err)
	s.False(hit)
	s.Equal("fresh", rec.Name)
}

func (s *CacheSuite) TestJurisdictionSeparatesEntries() {
	c := New(NewMemoryStore(100), DefaultTTLs())
	q, err := rdap.NewQuery(rdap.QueryDomain, "example.com")
	s.Require().NoError(err)

	euKey := NewKey(q, rdap.SecurityContext{Jurisdiction: "EU", RedactPII: true})
	usKey := NewKey(q, rdap.SecurityContext{Jurisdiction: "US-CA", RedactPII: true})
	plainKey := NewKey(q, rdap.SecurityContext{Jurisdiction: "EU", RedactPII: false})
	s.NotEqual(euKey.String(), usKey.String())
	s.NotEqual(euKey.String(), plainKey.String())

	var computes atomic.Int64
	for _, key := range []Key{euKey, usKey, plainKey} {
		_, _, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
			computes.Add(1)
			return recordNamed("example.com"), nil
		})
		s.Require().NoError(err)
	}
	s.Equal(int64(3), computes.Load())
}

func (s *CacheSuite) TestInvalidate() {
	c := New(NewMemoryStore(100), DefaultTTLs())
	key := testKey("example.com")

	_, _, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		return recordNamed("v1"), nil
	})
	s.Require().NoError(err)

	s.Require().NoError(c.Invalidate(s.ctx, key))

	rec, hit, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
		return recordNamed("v2"), nil
	})
	s.Require().NoError(err)
	s.False(hit)
	s.Equal("v2", rec.Name)
}

func (s *CacheSuite) TestWaiterCancellationDoesNotAbortComputation() {
	c := New(NewMemoryStore(100), DefaultTTLs())
	key := testKey("slow.example")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	cancelled, cancel := context.WithCancel(s.ctx)
	go func() {
		_, _, err := c.GetOrCompute(cancelled, key, func(context.Context) (rdap.NormalizedRecord, error) {
			close(started)
			<-release
			return recordNamed("slow.example"), nil
		})
		done <- err
	}()

	<-started
	cancel()
	s.Require().ErrorIs(<-done, context.Canceled)

	close(release)

	// The computation finished and populated the store despite the caller
	// bailing out; poll briefly for the flight goroutine to complete.
	s.Require().Eventually(func() bool {
		_, hit, err := c.GetOrCompute(s.ctx, key, func(context.Context) (rdap.NormalizedRecord, error) {
			return recordNamed("recomputed"), nil
		})
		return err == nil && hit
	}, time.Second, 5*time.Millisecond)
}
