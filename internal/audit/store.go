package audit

import "context"

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListByCategory(ctx context.Context, category EventCategory, limit int) ([]Event, error)
}
