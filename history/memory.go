package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	timestamp time.Time
}

// MemoryStore keeps records in process, bounded by TTL and size
type MemoryStore struct {
	mutex           sync.RWMutex
	entries         map[string]memoryEntry
	ttl             time.Duration
	maxSize         int
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

// NewMemoryStore creates a store and starts its cleanup goroutine.
// A zero ttl or maxSize disables that bound.
func NewMemoryStore(ttl time.Duration, maxSize int) *MemoryStore {
	s := &MemoryStore{
		entries:         make(map[string]memoryEntry),
		ttl:             ttl,
		maxSize:         maxSize,
		cleanupInterval: 5 * time.Minute,
		done:            make(chan struct{}),
		now:             time.Now,
	}

	go s.periodicCleanup()

	return s
}

func (s *MemoryStore) periodicCleanup() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the size limit
func (s *MemoryStore) cleanup() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	if s.ttl > 0 {
		for id, entry := range s.entries {
			if now.Sub(entry.timestamp) > s.ttl {
				delete(s.entries, id)
			}
		}
	}

	s.evictOldest()
}

// evictOldest drops the oldest entries beyond maxSize. Caller holds the lock.
func (s *MemoryStore) evictOldest() {
	if s.maxSize <= 0 || len(s.entries) <= s.maxSize {
		return
	}

	type aged struct {
		id        string
		timestamp time.Time
	}
	entries := make([]aged, 0, len(s.entries))
	for id, entry := range s.entries {
		entries = append(entries, aged{id, entry.timestamp})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})

	for i := 0; i < len(entries)-s.maxSize; i++ {
		delete(s.entries, entries[i].id)
	}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[rec.ID] = memoryEntry{record: rec, timestamp: s.now()}
	s.evictOldest()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.entries[id]
	if !ok || (s.ttl > 0 && s.now().Sub(entry.timestamp) > s.ttl) {
		return Record{}, ErrNotFound
	}
	return entry.record, nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
