package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/surfcast/internal/forecast"
)

var (
	// ErrNotFound is returned when no fresh series is cached for a spot.
	ErrNotFound = errors.New("no series for spot")
)

// Snapshot is the latest merged series for a spot.
type Snapshot struct {
	Name      string
	Series    forecast.HourlySeries
	FetchedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of the latest series per
// spot. Only one snapshot is kept per spot; there is no history.
type MemoryStore struct {
	mu sync.RWMutex

	// key: lower-cased spot name
	data map[string]Snapshot

	// maxAge <= 0 means snapshots never go stale
	maxAge time.Duration
	clock  clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore. A nil clock uses the wall clock.
func NewMemoryStore(maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:   make(map[string]Snapshot),
		maxAge: maxAge,
		clock:  clock,
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Save replaces the snapshot for name.
func (s *MemoryStore) Save(name string, series forecast.HourlySeries) Snapshot {
	snap := Snapshot{
		Name:      name,
		Series:    series,
		FetchedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key(name)] = snap
	return snap
}

// Latest returns the snapshot for name. Stale snapshots are reported as
// ErrNotFound and dropped.
func (s *MemoryStore) Latest(name string) (Snapshot, error) {
	k := key(name)

	s.mu.RLock()
	snap, ok := s.data[k]
	s.mu.RUnlock()

	if !ok {
		return Snapshot{}, ErrNotFound
	}
	if s.maxAge > 0 && s.clock.Since(snap.FetchedAt) > s.maxAge {
		s.mu.Lock()
		if cur, ok := s.data[k]; ok && cur.FetchedAt.Equal(snap.FetchedAt) {
			delete(s.data, k)
		}
		s.mu.Unlock()
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Len returns the number of cached spots, stale ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
