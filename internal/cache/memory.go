package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"rdapgate/internal/rdap"
	"rdapgate/pkg/platform/sentinel"
)

// MemoryStore is an in-process LRU store with per-entry TTL. Entries are
// superseded on Set, never mutated; expired entries read as absent and are
// dropped lazily. For multi-replica deployments use RedisStore instead.
type MemoryStore struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	now        func() time.Time
}

type memoryEntry struct {
	key        string
	record     rdap.NormalizedRecord
	insertedAt time.Time
	ttl        time.Duration
}

// MemoryOption configures the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock pins the time source for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore builds a store evicting least-recently-used entries beyond
// maxEntries. maxEntries <= 0 means unbounded.
func NewMemoryStore(maxEntries int, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key Key) (rdap.NormalizedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key.String()]
	if !ok {
		return rdap.NormalizedRecord{}, sentinel.ErrNotFound
	}
	entry := elem.Value.(*memoryEntry)
	if entry.ttl > 0 && s.now().Sub(entry.insertedAt) >= entry.ttl {
		s.removeLocked(elem)
		return rdap.NormalizedRecord{}, sentinel.ErrExpired
	}
	s.order.MoveToFront(elem)
	return entry.record.Clone(), nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, record rdap.NormalizedRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ks := key.String()
	entry := &memoryEntry{key: ks, record: record.Clone(), insertedAt: s.now(), ttl: ttl}
	if elem, ok := s.entries[ks]; ok {
		elem.Value = entry
		s.order.MoveToFront(elem)
		return nil
	}
	s.entries[ks] = s.order.PushFront(entry)

	if s.maxEntries > 0 {
		for len(s.entries) > s.maxEntries {
			s.removeLocked(s.order.Back())
		}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.entries[key.String()]; ok {
		s.removeLocked(elem)
	}
	return nil
}

// Len reports the live entry count, expired entries included until touched.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*memoryEntry)
	delete(s.entries, entry.key)
	s.order.Remove(elem)
}
