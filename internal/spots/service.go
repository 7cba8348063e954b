package spots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/observability"
	"github.com/i474232898/surfcast/internal/registry"
	"github.com/i474232898/surfcast/internal/store"
)

// SeriesStore caches the latest merged series per spot name.
type SeriesStore interface {
	Save(name string, series forecast.HourlySeries) store.Snapshot
	Latest(name string) (store.Snapshot, error)
}

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	SuggestLimit int
	Clock        clockwork.Clock
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Service runs the resolve, fetch and merge pipeline for spots and keeps the
// registry and series cache up to date.
type Service struct {
	resolver forecast.GeoResolver
	fetcher  forecast.SeriesFetcher
	store    SeriesStore
	tracker  *registry.Tracker

	suggestLimit int
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewService creates a new Service.
func NewService(resolver forecast.GeoResolver, fetcher forecast.SeriesFetcher, st SeriesStore, tracker *registry.Tracker, opts Options) *Service {
	if opts.SuggestLimit <= 0 {
		opts.SuggestLimit = 5
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Service{
		resolver:     resolver,
		fetcher:      fetcher,
		store:        st,
		tracker:      tracker,
		suggestLimit: opts.SuggestLimit,
		clock:        opts.Clock,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
	s.updateVisibleGauge()
	return s
}

// SpotSeries pairs a spot with its merged series.
type SpotSeries struct {
	Spot   registry.Spot
	Series forecast.HourlySeries
}

// Builtins fetches every built-in spot concurrently. One spot failing does not
// affect the others: successful spots are returned and attached to the
// registry, and the failures are returned joined.
func (s *Service) Builtins(ctx context.Context) ([]SpotSeries, error) {
	builtins := s.tracker.Snapshot().Builtins()

	var (
		wg      sync.WaitGroup
		results = make([]*SpotSeries, len(builtins))
		errs    = make([]error, len(builtins))
	)

	for i, spot := range builtins {
		wg.Add(1)
		go func(i int, spot registry.Spot) {
			defer wg.Done()

			series, err := s.fetchSeries(ctx, spot.Name, spot.Coordinate)
			if err != nil {
				s.logger.Warn("builtin spot fetch failed", "spot", spot.Name, "error", err)
				errs[i] = fmt.Errorf("%s: %w", spot.Name, err)
				return
			}
			s.tracker.SetSeries(spot.ID, series, s.clock.Now().UTC())
			results[i] = &SpotSeries{Spot: spot, Series: series}
		}(i, spot)
	}
	wg.Wait()

	out := make([]SpotSeries, 0, len(builtins))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, errors.Join(errs...)
}

// RefreshBuiltins refetches the built-in spots and logs the outcome.
func (s *Service) RefreshBuiltins(ctx context.Context) {
	start := s.clock.Now()
	fetched, err := s.Builtins(ctx)
	if err != nil {
		s.logger.Error("builtin refresh incomplete", "fetched", len(fetched), "error", err)
		return
	}
	s.logger.Info("builtin refresh completed", "fetched", len(fetched), "duration", s.clock.Since(start))
}

// Search resolves q and returns the place with its merged series. A fresh
// cached series for the place is reused.
func (s *Service) Search(ctx context.Context, q string) (forecast.Place, forecast.HourlySeries, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return forecast.Place{}, forecast.HourlySeries{}, fmt.Errorf("%w: query is required", forecast.ErrInvalidInput)
	}

	place, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		return forecast.Place{}, forecast.HourlySeries{}, err
	}

	if snap, err := s.store.Latest(place.Name); err == nil {
		return place, snap.Series, nil
	}

	series, err := s.fetchSeries(ctx, place.Name, place.Coordinate)
	if err != nil {
		return forecast.Place{}, forecast.HourlySeries{}, err
	}
	return place, series, nil
}

// Suggest returns ranked place candidates for partial input. Empty input
// yields an empty list.
func (s *Service) Suggest(ctx context.Context, q string) ([]forecast.Place, error) {
	if strings.TrimSpace(q) == "" {
		return []forecast.Place{}, nil
	}
	places, err := s.resolver.Suggest(ctx, q, s.suggestLimit)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []forecast.Place{}
	}
	return places, nil
}

// Track searches q and adds the place to the registry. It returns the view of
// the visible spot with that name and whether the registry changed.
func (s *Service) Track(ctx context.Context, q string) (SpotView, bool, error) {
	place, series, err := s.Search(ctx, q)
	if err != nil {
		return SpotView{}, false, err
	}

	fetchedAt := s.clock.Now().UTC()
	spot := registry.NewSearched(place)
	spot.Series = &series
	spot.FetchedAt = fetchedAt

	current, added := s.tracker.AddSearched(ctx, spot)
	if current.ID == "" {
		// No room left next to the builtins. The spot is not tracked and
		// has no id.
		view := s.view(spot)
		view.ID = ""
		return view, false, nil
	}
	if !added {
		s.tracker.SetSeries(current.ID, series, fetchedAt)
		current, _ = s.tracker.Lookup(current.ID)
	}
	s.updateVisibleGauge()
	return s.view(current), added, nil
}

// Untrack hides a builtin or removes a searched spot.
func (s *Service) Untrack(ctx context.Context, id string) error {
	if _, ok := s.tracker.Lookup(id); !ok {
		return fmt.Errorf("%w: spot %q", forecast.ErrNotFound, id)
	}
	s.tracker.Remove(ctx, id)
	s.updateVisibleGauge()
	return nil
}

// Visible returns views of the visible spots in display order.
func (s *Service) Visible() []SpotView {
	spots := s.tracker.Visible()
	views := make([]SpotView, len(spots))
	for i, spot := range spots {
		views[i] = s.view(spot)
	}
	return views
}

// fetchSeries fetches, merges and caches the series at coord. An upstream
// failure aborts the spot; nothing is merged or cached.
func (s *Service) fetchSeries(ctx context.Context, name string, coord forecast.Coordinate) (forecast.HourlySeries, error) {
	marine, weather, err := s.fetcher.Fetch(ctx, coord)
	if err != nil {
		s.countFetch("error")
		return forecast.HourlySeries{}, err
	}
	series := forecast.Merge(marine, weather)
	s.store.Save(name, series)
	s.countFetch("success")
	return series, nil
}

func (s *Service) countFetch(outcome string) {
	if s.metrics != nil {
		s.metrics.SpotFetches.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) updateVisibleGauge() {
	if s.metrics != nil {
		s.metrics.VisibleSpots.Set(float64(len(s.tracker.Visible())))
	}
}

// SlotView is one scored forecast hour.
type SlotView struct {
	Index        int                  `json:"index"`
	Time         string               `json:"time"`
	WaveHeightFt forecast.Value       `json:"waveHeightFt"`
	WavePeriod   forecast.Value       `json:"wavePeriodS"`
	WindSpeed    forecast.Value       `json:"windSpeedKmh"`
	Score        forecast.ScoreResult `json:"score"`
}

// SpotView is a display-ready spot. Current and Best are only set once the
// spot has a series. ID is empty for a spot that could not be tracked.
type SpotView struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Origin    registry.Origin `json:"origin"`
	Ready     bool            `json:"ready"`
	FetchedAt *time.Time      `json:"fetchedAt,omitempty"`
	Current   *SlotView       `json:"current,omitempty"`
	Best      *SlotView       `json:"best,omitempty"`
}

func (s *Service) view(spot registry.Spot) SpotView {
	v := SpotView{
		ID:        spot.ID,
		Name:      spot.Name,
		Latitude:  spot.Coordinate.Latitude,
		Longitude: spot.Coordinate.Longitude,
		Origin:    spot.Origin,
		Ready:     spot.Ready(),
	}
	if !spot.Ready() {
		return v
	}

	fetchedAt := spot.FetchedAt
	v.FetchedAt = &fetchedAt

	series := *spot.Series
	if i, ok := series.Current(s.clock.Now()); ok {
		v.Current = slotView(series, i)
	}
	if i, ok := forecast.PickBestSlot(series); ok {
		v.Best = slotView(series, i)
	}
	return v
}

func slotView(series forecast.HourlySeries, i int) *SlotView {
	slot := series.Slots[i]
	return &SlotView{
		Index:        i,
		Time:         slot.Label,
		WaveHeightFt: forecast.MetersToFeet(slot.WaveHeight),
		WavePeriod:   slot.WavePeriod,
		WindSpeed:    slot.WindSpeed,
		Score:        forecast.ScoreSlot(slot),
	}
}
