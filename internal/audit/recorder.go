package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives events after they are persisted, e.g. a broker publisher.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder is the entry point for emitting audit events. Events are written
// to the store synchronously; sink delivery is best effort and failures are
// logged, never surfaced to the caller. The store write itself is also
// fail-open for security and operations events, so a degraded audit backend
// cannot take lookups down with it.
type Recorder struct {
	store  Store
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithSink attaches a downstream publisher.
func WithSink(sink Sink) RecorderOption {
	return func(r *Recorder) { r.sink = sink }
}

// WithRecorderClock overrides the timestamp source. Test hook.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(store Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists the event. The category is always derived from the action
// so callers cannot misfile an event.
func (r *Recorder) Record(ctx context.Context, event Event) {
	event.Category = AuditEvent(event.Action).Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}

	if err := r.store.Append(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "audit store append failed",
			"action", event.Action,
			"category", event.Category,
			"error", err,
		)
	}

	if r.sink != nil {
		if err := r.sink.Publish(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"category", event.Category,
				"error", err,
			)
		}
	}
}
