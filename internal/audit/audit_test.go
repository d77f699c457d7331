package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type AuditSuite struct {
	suite.Suite
	ctx context.Context
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.ctx = context.Background()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AuditSuite) TestEventCategoryDerivation() {
	s.Equal(CategorySecurity, AuditEvent("target_blocked").Category())
	s.Equal(CategoryCompliance, AuditEvent("redaction_applied").Category())
	s.Equal(CategoryOperations, AuditEvent("lookup_completed").Category())
	s.Equal(CategoryOperations, AuditEvent("never_heard_of_it").Category())
}

func (s *AuditSuite) TestRecorderDerivesCategoryAndTimestamp() {
	store := NewInMemoryStore()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecorder(store, discardLogger(), WithRecorderClock(func() time.Time { return fixed }))

	rec.Record(s.ctx, Event{
		// Category deliberately wrong; the recorder must override it.
		Category:   CategoryOperations,
		Action:     string(EventTargetBlocked),
		QueryValue: "http://169.254.169.254/latest/meta-data",
		Reason:     "private address",
	})

	events, err := store.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(CategorySecurity, events[0].Category)
	s.Equal(fixed, events[0].Timestamp)
}

func (s *AuditSuite) TestRecorderFanOutToSink() {
	store := NewInMemoryStore()
	sink := &captureSink{}
	rec := NewRecorder(store, discardLogger(), WithSink(sink))

	rec.Record(s.ctx, Event{Action: string(EventLookupCompleted), QueryValue: "example.com"})

	s.Require().Len(sink.events, 1)
	s.Equal("example.com", sink.events[0].QueryValue)
	s.Equal(CategoryOperations, sink.events[0].Category)
}

func (s *AuditSuite) TestRecorderSurvivesFailingBackends() {
	rec := NewRecorder(failingStore{}, discardLogger(), WithSink(failingSink{}))

	// Must not panic or propagate the error.
	rec.Record(s.ctx, Event{Action: string(EventLookupFailed), QueryValue: "example.com"})
}

func (s *AuditSuite) TestMemoryStoreListRecentOrder() {
	store := NewInMemoryStore()
	for _, action := range []string{"first", "second", "third"} {
		s.Require().NoError(store.Append(s.ctx, Event{Action: action}))
	}

	events, err := store.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("third", events[0].Action)
	s.Equal("second", events[1].Action)
}

func (s *AuditSuite) TestMemoryStoreListByCategory() {
	store := NewInMemoryStore()
	s.Require().NoError(store.Append(s.ctx, Event{Category: CategorySecurity, Action: "target_blocked"}))
	s.Require().NoError(store.Append(s.ctx, Event{Category: CategoryOperations, Action: "lookup_completed"}))
	s.Require().NoError(store.Append(s.ctx, Event{Category: CategorySecurity, Action: "auth_failed"}))

	events, err := store.ListByCategory(s.ctx, CategorySecurity, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("auth_failed", events[0].Action)
	s.Equal("target_blocked", events[1].Action)
}

func (s *AuditSuite) TestTopicRouting() {
	s.Equal(TopicSecurity, topicFor(CategorySecurity))
	s.Equal(TopicCompliance, topicFor(CategoryCompliance))
	s.Equal(TopicOperations, topicFor(CategoryOperations))
	s.Equal(TopicOperations, topicFor(EventCategory("bogus")))
}

type captureSink struct {
	events []Event
}

func (c *captureSink) Publish(_ context.Context, event Event) error {
	c.events = append(c.events, event)
	return nil
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("db down") }
func (failingStore) ListRecent(context.Context, int) ([]Event, error) {
	return nil, errors.New("db down")
}
func (failingStore) ListByCategory(context.Context, EventCategory, int) ([]Event, error) {
	return nil, errors.New("db down")
}

type failingSink struct{}

func (failingSink) Publish(context.Context, Event) error { return errors.New("broker down") }
