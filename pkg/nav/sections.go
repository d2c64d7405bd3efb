package nav

import (
	"context"
	"log/slog"
	"sync"
)

// SectionStore persists the last query string seen per section. The
// in-memory store is the default; pkg/sectionstore provides a Redis one so
// that deep links keep working across page loads.
type SectionStore interface {
	Get(ctx context.Context, section string) (query string, ok bool, err error)
	Put(ctx context.Context, section, query string) error
}

// MemoryStore is a SectionStore backed by a map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get implements SectionStore.
func (s *MemoryStore) Get(_ context.Context, section string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.data[section]
	return q, ok, nil
}

// Put implements SectionStore.
func (s *MemoryStore) Put(_ context.Context, section, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[section] = query
	return nil
}

// SectionCache maps a section id to the last query string committed while
// that section held the deepest active tab. Store failures are logged and
// treated as misses; the cache is an optimization for anchor-only links.
type SectionCache struct {
	store  SectionStore
	logger *slog.Logger
}

// NewSectionCache wraps store. A nil store means an in-memory one.
func NewSectionCache(store SectionStore, logger *slog.Logger) *SectionCache {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SectionCache{store: store, logger: logger}
}

// Put records query for section.
func (c *SectionCache) Put(ctx context.Context, section, query string) {
	if section == "" {
		return
	}
	if err := c.store.Put(ctx, section, query); err != nil {
		c.logger.Warn("section cache write failed", "section", section, "error", err)
	}
}

// Get returns the cached query for section.
func (c *SectionCache) Get(ctx context.Context, section string) (string, bool) {
	if section == "" {
		return "", false
	}
	q, ok, err := c.store.Get(ctx, section)
	if err != nil {
		c.logger.Warn("section cache read failed", "section", section, "error", err)
		return "", false
	}
	return q, ok
}
