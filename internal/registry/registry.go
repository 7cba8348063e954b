// Package registry tracks which spots are displayed: the built-in defaults
// plus spots added by search, capped and deduplicated by name.
package registry

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/i474232898/surfcast/internal/forecast"
)

// MaxVisible caps the number of displayed spots.
const MaxVisible = 6

// Origin tells built-in spots from searched ones.
type Origin string

const (
	OriginBuiltin  Origin = "builtin"
	OriginSearched Origin = "searched"
)

// Spot is a tracked location. Series is nil until the first successful fetch.
type Spot struct {
	ID         string
	Name       string
	Coordinate forecast.Coordinate
	Origin     Origin
	Series     *forecast.HourlySeries
	FetchedAt  time.Time
}

// Ready reports whether the spot has a merged series.
func (s Spot) Ready() bool {
	return s.Series != nil
}

// NewBuiltin creates a built-in spot with a stable id derived from its name.
func NewBuiltin(name string, coord forecast.Coordinate) Spot {
	return Spot{
		ID:         "builtin-" + slug(name),
		Name:       name,
		Coordinate: coord,
		Origin:     OriginBuiltin,
	}
}

// NewSearched creates a searched spot for a resolved place.
func NewSearched(place forecast.Place) Spot {
	return Spot{
		ID:         uuid.NewString(),
		Name:       place.Name,
		Coordinate: place.Coordinate,
		Origin:     OriginSearched,
	}
}

// Registry is an immutable set of tracked spots. Every transition returns a
// new Registry and leaves the receiver untouched.
type Registry struct {
	builtins []Spot
	hidden   map[string]struct{} // lower-cased builtin names
	searched []Spot              // most recent first
}

// New creates a registry seeded with builtins in display order.
func New(builtins []Spot) Registry {
	r := Registry{
		builtins: make([]Spot, len(builtins)),
		hidden:   map[string]struct{}{},
	}
	for i, b := range builtins {
		b.Origin = OriginBuiltin
		if b.ID == "" {
			b.ID = "builtin-" + slug(b.Name)
		}
		r.builtins[i] = b
	}
	return r
}

func (r Registry) clone() Registry {
	c := Registry{
		builtins: append([]Spot(nil), r.builtins...),
		hidden:   make(map[string]struct{}, len(r.hidden)),
		searched: append([]Spot(nil), r.searched...),
	}
	for k := range r.hidden {
		c.hidden[k] = struct{}{}
	}
	return c
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r Registry) isHidden(name string) bool {
	_, ok := r.hidden[nameKey(name)]
	return ok
}

func (r Registry) unhiddenBuiltins() int {
	n := 0
	for _, b := range r.builtins {
		if !r.isHidden(b.Name) {
			n++
		}
	}
	return n
}

// AddSearched prepends spot to the searched list. It is a no-op, reported by
// false, when a visible spot already has the same name ignoring case. The
// oldest searched spots are dropped to keep the visible set within MaxVisible.
func (r Registry) AddSearched(spot Spot) (Registry, bool) {
	key := nameKey(spot.Name)
	if key == "" {
		return r, false
	}
	for _, v := range r.Visible() {
		if nameKey(v.Name) == key {
			return r, false
		}
	}

	room := MaxVisible - r.unhiddenBuiltins()
	if room <= 0 {
		return r, false
	}

	spot.Origin = OriginSearched
	if spot.ID == "" {
		spot.ID = uuid.NewString()
	}

	c := r.clone()
	c.searched = append([]Spot{spot}, c.searched...)
	if len(c.searched) > room {
		c.searched = c.searched[:room]
	}
	return c, true
}

// HideBuiltin removes the named builtin from view. Unknown or already hidden
// names leave the registry unchanged.
func (r Registry) HideBuiltin(name string) (Registry, bool) {
	key := nameKey(name)
	if r.isHidden(key) {
		return r, false
	}
	for _, b := range r.builtins {
		if nameKey(b.Name) == key {
			c := r.clone()
			c.hidden[key] = struct{}{}
			return c, true
		}
	}
	return r, false
}

// RemoveSearched drops the searched spot with id. Unknown ids leave the
// registry unchanged.
func (r Registry) RemoveSearched(id string) (Registry, bool) {
	for i, s := range r.searched {
		if s.ID == id {
			c := r.clone()
			c.searched = append(c.searched[:i], c.searched[i+1:]...)
			return c, true
		}
	}
	return r, false
}

// Remove hides a builtin or drops a searched spot by id.
func (r Registry) Remove(id string) (Registry, bool) {
	for _, b := range r.builtins {
		if b.ID == id {
			return r.HideBuiltin(b.Name)
		}
	}
	return r.RemoveSearched(id)
}

// WithSeries replaces the series of the spot with id, hidden builtins included.
func (r Registry) WithSeries(id string, series forecast.HourlySeries, fetchedAt time.Time) (Registry, bool) {
	set := func(spots []Spot) bool {
		for i := range spots {
			if spots[i].ID == id {
				s := series
				spots[i].Series = &s
				spots[i].FetchedAt = fetchedAt
				return true
			}
		}
		return false
	}

	c := r.clone()
	if set(c.builtins) || set(c.searched) {
		return c, true
	}
	return r, false
}

// Visible returns unhidden builtins in their fixed order followed by searched
// spots, most recent first, at most MaxVisible in total.
func (r Registry) Visible() []Spot {
	out := make([]Spot, 0, MaxVisible)
	for _, b := range r.builtins {
		if len(out) == MaxVisible {
			return out
		}
		if !r.isHidden(b.Name) {
			out = append(out, b)
		}
	}
	for _, s := range r.searched {
		if len(out) == MaxVisible {
			break
		}
		out = append(out, s)
	}
	return out
}

// Lookup finds a spot by id, hidden builtins included.
func (r Registry) Lookup(id string) (Spot, bool) {
	for _, b := range r.builtins {
		if b.ID == id {
			return b, true
		}
	}
	for _, s := range r.searched {
		if s.ID == id {
			return s, true
		}
	}
	return Spot{}, false
}

// Builtins returns every builtin, hidden ones included.
func (r Registry) Builtins() []Spot {
	return append([]Spot(nil), r.builtins...)
}

// State returns the visibility state worth persisting. Series are excluded.
func (r Registry) State() State {
	st := State{Hidden: make([]string, 0, len(r.hidden))}
	for _, b := range r.builtins {
		if r.isHidden(b.Name) {
			st.Hidden = append(st.Hidden, nameKey(b.Name))
		}
	}
	for _, s := range r.searched {
		st.Searched = append(st.Searched, SavedSpot{ID: s.ID, Name: s.Name, Coordinate: s.Coordinate})
	}
	return st
}

// Restore applies a persisted state on top of the builtins. Hidden names that
// no longer match a builtin are ignored; searched spots are re-added oldest
// first so the usual dedupe and cap rules hold.
func (r Registry) Restore(st State) Registry {
	c := New(r.builtins)
	for _, name := range st.Hidden {
		c, _ = c.HideBuiltin(name)
	}
	for i := len(st.Searched) - 1; i >= 0; i-- {
		s := st.Searched[i]
		c, _ = c.AddSearched(Spot{ID: s.ID, Name: s.Name, Coordinate: s.Coordinate})
	}
	return c
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
