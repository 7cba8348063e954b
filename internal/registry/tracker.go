package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/surfcast/internal/forecast"
)

// SavedSpot is the persisted form of a searched spot.
type SavedSpot struct {
	ID         string
	Name       string
	Coordinate forecast.Coordinate
}

// State is the persisted visibility state of a registry.
type State struct {
	Hidden   []string
	Searched []SavedSpot // most recent first
}

// Repository persists registry visibility state.
type Repository interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
}

// Tracker serializes access to a Registry. Each operation is atomic and,
// when a repository is configured, visibility changes are saved after it.
type Tracker struct {
	mu     sync.Mutex
	reg    Registry
	repo   Repository
	logger *slog.Logger
}

// NewTracker creates a tracker around reg. repo may be nil.
func NewTracker(reg Registry, repo Repository, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{reg: reg, repo: repo, logger: logger}
}

// Load restores persisted state, if any.
func (t *Tracker) Load(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}
	st, err := t.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load registry state: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.reg = t.reg.Restore(st)
	return nil
}

// Snapshot returns the current registry value.
func (t *Tracker) Snapshot() Registry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reg
}

// Visible returns the currently visible spots.
func (t *Tracker) Visible() []Spot {
	return t.Snapshot().Visible()
}

// Lookup finds a spot by id.
func (t *Tracker) Lookup(id string) (Spot, bool) {
	return t.Snapshot().Lookup(id)
}

// AddSearched adds spot unless a visible spot has the same name. It returns
// the visible spot carrying that name and whether the registry changed.
func (t *Tracker) AddSearched(ctx context.Context, spot Spot) (Spot, bool) {
	var current Spot
	changed := t.mutate(ctx, true, func(r Registry) (Registry, bool) {
		next, ok := r.AddSearched(spot)
		current = findVisible(next, spot.Name)
		return next, ok
	})
	return current, changed
}

// Remove hides a builtin or drops a searched spot. It reports false for an
// unknown or already removed id.
func (t *Tracker) Remove(ctx context.Context, id string) bool {
	return t.mutate(ctx, true, func(r Registry) (Registry, bool) {
		return r.Remove(id)
	})
}

// SetSeries attaches a freshly fetched series to the spot with id.
func (t *Tracker) SetSeries(id string, series forecast.HourlySeries, fetchedAt time.Time) bool {
	return t.mutate(context.Background(), false, func(r Registry) (Registry, bool) {
		return r.WithSeries(id, series, fetchedAt)
	})
}

func (t *Tracker) mutate(ctx context.Context, persist bool, fn func(Registry) (Registry, bool)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, changed := fn(t.reg)
	if !changed {
		return false
	}
	t.reg = next

	if persist && t.repo != nil {
		if err := t.repo.Save(ctx, next.State()); err != nil {
			t.logger.Error("failed to persist registry state", "error", err)
		}
	}
	return true
}

func findVisible(r Registry, name string) Spot {
	key := nameKey(name)
	for _, s := range r.Visible() {
		if nameKey(s.Name) == key {
			return s
		}
	}
	return Spot{}
}
