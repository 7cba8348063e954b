package spots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/observability"
	"github.com/i474232898/surfcast/internal/registry"
	"github.com/i474232898/surfcast/internal/store"
)

var (
	herzliya  = forecast.Coordinate{Latitude: 32.165, Longitude: 34.808}
	netanya   = forecast.Coordinate{Latitude: 32.332, Longitude: 34.856}
	beitYanai = forecast.Coordinate{Latitude: 32.385, Longitude: 34.855}
	haifa     = forecast.Coordinate{Latitude: 32.794, Longitude: 34.989}
)

type fakeResolver struct {
	mu           sync.Mutex
	places       map[string]forecast.Place
	resolveCalls int
	suggestCalls int
}

func (f *fakeResolver) Resolve(_ context.Context, q string) (forecast.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	p, ok := f.places[q]
	if !ok {
		return forecast.Place{}, fmt.Errorf("%w: %s", forecast.ErrNotFound, q)
	}
	return p, nil
}

func (f *fakeResolver) Suggest(_ context.Context, q string, limit int) ([]forecast.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestCalls++
	var out []forecast.Place
	for _, p := range f.places {
		if len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	failing map[forecast.Coordinate]forecast.Source
}

func (f *fakeFetcher) Fetch(_ context.Context, coord forecast.Coordinate) (forecast.RawMarine, forecast.RawWeather, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if src, ok := f.failing[coord]; ok {
		return forecast.RawMarine{}, forecast.RawWeather{}, &forecast.UpstreamError{Source: src, Status: http.StatusInternalServerError}
	}
	marine := forecast.RawMarine{
		Latitude:             coord.Latitude,
		Longitude:            coord.Longitude,
		Timezone:             "Asia/Jerusalem",
		TimezoneAbbreviation: "IDT",
		UTCOffsetSeconds:     3 * 3600,
		Hourly: forecast.MarineHourly{
			Time:           []string{"2024-06-01T00:00", "2024-06-01T01:00", "2024-06-01T02:00"},
			WaveHeight:     []forecast.Value{forecast.Known(0.6), forecast.Known(1.5), forecast.Known(1.5)},
			WavePeriod:     []forecast.Value{forecast.Known(10), forecast.Known(14), forecast.Known(8)},
			WindWaveHeight: []forecast.Value{forecast.Known(0.2), forecast.Known(0.3), forecast.Known(0.4)},
		},
	}
	weather := forecast.RawWeather{Hourly: forecast.WeatherHourly{
		WindSpeed10m: []forecast.Value{forecast.Known(10), forecast.Known(12), forecast.Known(14)},
	}}
	return marine, weather, nil
}

type fixture struct {
	svc      *Service
	resolver *fakeResolver
	fetcher  *fakeFetcher
	store    *store.MemoryStore
	tracker  *registry.Tracker
	metrics  *observability.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 1, 30, 0, 0, time.FixedZone("IDT", 3*3600)))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		resolver: &fakeResolver{places: map[string]forecast.Place{
			"haifa":   {Name: "Haifa", Coordinate: haifa, Country: "Israel"},
			"netanya": {Name: "Netanya", Coordinate: netanya, Country: "Israel"},
		}},
		fetcher: &fakeFetcher{failing: map[forecast.Coordinate]forecast.Source{}},
		store:   store.NewMemoryStore(time.Hour, clock),
		tracker: registry.NewTracker(registry.New([]registry.Spot{
			registry.NewBuiltin("Herzliya", herzliya),
			registry.NewBuiltin("Netanya", netanya),
			registry.NewBuiltin("Beit Yanai", beitYanai),
		}), nil, logger),
		metrics: observability.NewMetricsForTesting(),
	}
	f.svc = NewService(f.resolver, f.fetcher, f.store, f.tracker, Options{
		SuggestLimit: 5,
		Clock:        clock,
		Logger:       logger,
		Metrics:      f.metrics,
	})
	return f
}

func TestService_Builtins(t *testing.T) {
	f := newFixture(t)

	results, err := f.svc.Builtins(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Herzliya", results[0].Spot.Name)
	assert.Equal(t, 3, results[0].Series.Len())

	for _, v := range f.svc.Visible() {
		assert.True(t, v.Ready, v.Name)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.SpotFetches.WithLabelValues("success")))
}

func TestService_BuiltinsIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	f.fetcher.failing[netanya] = forecast.SourceWeather

	results, err := f.svc.Builtins(context.Background())

	var upErr *forecast.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, forecast.SourceWeather, upErr.Source)
	assert.Contains(t, err.Error(), "Netanya")

	require.Len(t, results, 2)
	assert.Equal(t, "Herzliya", results[0].Spot.Name)
	assert.Equal(t, "Beit Yanai", results[1].Spot.Name)

	spot, _ := f.tracker.Lookup("builtin-netanya")
	assert.False(t, spot.Ready(), "failed spot is not given a partial series")
	_, err = f.store.Latest("Netanya")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_SearchEmptyQuery(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, forecast.ErrInvalidInput)
	assert.Equal(t, 0, f.resolver.resolveCalls)
}

func TestService_SearchNotFound(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Search(context.Background(), "atlantis")
	assert.ErrorIs(t, err, forecast.ErrNotFound)
	assert.Equal(t, 0, f.fetcher.calls)
}

func TestService_SearchUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.fetcher.failing[haifa] = forecast.SourceWeather

	_, series, err := f.svc.Search(context.Background(), "haifa")

	var upErr *forecast.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, forecast.SourceWeather, upErr.Source)
	assert.Zero(t, series.Len())
}

func TestService_SearchReusesFreshSeries(t *testing.T) {
	f := newFixture(t)

	place, series, err := f.svc.Search(context.Background(), "haifa")
	require.NoError(t, err)
	assert.Equal(t, "Haifa", place.Name)
	assert.Equal(t, forecast.Known(12), series.Slots[1].WindSpeed)

	_, _, err = f.svc.Search(context.Background(), "haifa")
	require.NoError(t, err)
	assert.Equal(t, 1, f.fetcher.calls)
}

func TestService_SuggestEmpty(t *testing.T) {
	f := newFixture(t)

	places, err := f.svc.Suggest(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)
	assert.Equal(t, 0, f.resolver.suggestCalls)

	places, err = f.svc.Suggest(context.Background(), "ha")
	require.NoError(t, err)
	assert.Len(t, places, 2)
}

func TestService_Track(t *testing.T) {
	f := newFixture(t)

	view, added, err := f.svc.Track(context.Background(), "haifa")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Haifa", view.Name)
	assert.Equal(t, registry.OriginSearched, view.Origin)
	require.True(t, view.Ready)

	require.NotNil(t, view.Current)
	assert.Equal(t, 1, view.Current.Index)
	assert.Equal(t, "2024-06-01T01:00", view.Current.Time)
	assert.Equal(t, forecast.Known(5), view.Current.WaveHeightFt)

	require.NotNil(t, view.Best)
	assert.Equal(t, 1, view.Best.Index)
	assert.Equal(t, forecast.ScoreSlot(forecast.Slot{
		WaveHeight:     forecast.Known(1.5),
		WavePeriod:     forecast.Known(14),
		WindWaveHeight: forecast.Known(0.3),
	}), view.Best.Score)

	_, added, err = f.svc.Track(context.Background(), "haifa")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, f.svc.Visible(), 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.VisibleSpots))
}

func TestService_TrackBuiltinNameIsNoop(t *testing.T) {
	f := newFixture(t)

	view, added, err := f.svc.Track(context.Background(), "netanya")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "builtin-netanya", view.ID)
	assert.True(t, view.Ready, "series attached to the existing builtin")
	assert.Len(t, f.svc.Visible(), 3)
}

func TestService_TrackWithoutRoomHasNoID(t *testing.T) {
	f := newFixture(t)
	builtins := make([]registry.Spot, registry.MaxVisible)
	for i := range builtins {
		builtins[i] = registry.NewBuiltin(fmt.Sprintf("Beach %d", i), herzliya)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := registry.NewTracker(registry.New(builtins), nil, logger)
	svc := NewService(f.resolver, f.fetcher, f.store, tracker, Options{
		SuggestLimit: 5,
		Clock:        clockwork.NewFakeClock(),
		Logger:       logger,
		Metrics:      f.metrics,
	})

	view, added, err := svc.Track(context.Background(), "haifa")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, view.ID)
	assert.Equal(t, "Haifa", view.Name)
	assert.True(t, view.Ready)
	assert.Len(t, svc.Visible(), registry.MaxVisible)
}

func TestService_Untrack(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Untrack(context.Background(), "missing")
	assert.ErrorIs(t, err, forecast.ErrNotFound)

	require.NoError(t, f.svc.Untrack(context.Background(), "builtin-herzliya"))
	visible := f.svc.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "Netanya", visible[0].Name)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.VisibleSpots))
}

func TestService_VisibleBeforeFetch(t *testing.T) {
	f := newFixture(t)

	for _, v := range f.svc.Visible() {
		assert.False(t, v.Ready)
		assert.Nil(t, v.Current)
		assert.Nil(t, v.Best)
		assert.Nil(t, v.FetchedAt)
	}
}
