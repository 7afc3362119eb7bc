package session

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

type memoryEntry struct {
	loyaltyNet          float64
	loyaltySet          bool
	freeItemUnavailable bool
	expiresAt           time.Time
}

// MemoryStore is the single-instance default. Entries are evicted lazily on
// read and by a janitor goroutine.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[snowflake.ID]*memoryEntry
	ttl     time.Duration
	done    chan struct{}
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: map[snowflake.ID]*memoryEntry{},
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	close(s.done)
	return nil
}

func (s *MemoryStore) janitor() {
	interval := s.ttl
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// entry returns the live entry for id, or nil. Caller holds s.mu.
func (s *MemoryStore) entry(id snowflake.ID) *memoryEntry {
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil
	}
	return e
}

// touch returns the entry for id, creating it if needed, and refreshes the
// TTL. Caller holds s.mu.
func (s *MemoryStore) touch(id snowflake.ID) *memoryEntry {
	e := s.entry(id)
	if e == nil {
		e = &memoryEntry{}
		s.entries[id] = e
	}
	e.expiresAt = time.Now().Add(s.ttl)
	return e
}

func (s *MemoryStore) LoyaltyNet(_ context.Context, cartID snowflake.ID) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entry(cartID); e != nil && e.loyaltySet {
		return e.loyaltyNet, true, nil
	}
	return 0, false, nil
}

func (s *MemoryStore) SetLoyaltyNet(_ context.Context, cartID snowflake.ID, points float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.touch(cartID)
	e.loyaltyNet = points
	e.loyaltySet = true
	return nil
}

func (s *MemoryStore) ClearLoyaltyNet(_ context.Context, cartID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entry(cartID); e != nil {
		e.loyaltyNet = 0
		e.loyaltySet = false
	}
	return nil
}

func (s *MemoryStore) MarkFreeItemUnavailable(_ context.Context, cartID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(cartID).freeItemUnavailable = true
	return nil
}

func (s *MemoryStore) ConsumeFreeItemUnavailable(_ context.Context, cartID snowflake.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(cartID)
	if e == nil || !e.freeItemUnavailable {
		return false, nil
	}
	e.freeItemUnavailable = false
	return true, nil
}
