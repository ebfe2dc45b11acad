package historystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
	"github.com/yanqian/synergy-circle/pkg/util"
)

type memoryEntry struct {
	record    discovery.Record
	expiresAt time.Time
}

// MemoryStore keeps analyses in process memory. Used for dev and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     util.Clock
}

// NewMemoryStore constructs a store whose records expire after ttl (0 keeps them forever).
func NewMemoryStore(ttl time.Duration, now util.Clock) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now.OrNow(),
	}
}

// Save implements discovery.HistoryStore.
func (s *MemoryStore) Save(_ context.Context, rec discovery.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if s.ttl > 0 {
		exp = s.now().Add(s.ttl)
	}
	s.entries[rec.ID] = memoryEntry{record: rec, expiresAt: exp}
	return nil
}

// Get implements discovery.HistoryStore.
func (s *MemoryStore) Get(_ context.Context, id string) (discovery.Record, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return discovery.Record{}, false, nil
	}
	if s.expired(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		return discovery.Record{}, false, nil
	}
	return entry.record, true, nil
}

// Recent returns the newest records first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]discovery.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]discovery.Record, 0, len(s.entries))
	for id, entry := range s.entries {
		if s.expired(entry.expiresAt) {
			delete(s.entries, id)
			continue
		}
		items = append(items, entry.record)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

func (s *MemoryStore) expired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ discovery.HistoryStore = (*MemoryStore)(nil)
