package providers

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/surfcast/internal/forecast"
)

// Fetcher implements forecast.SeriesFetcher by querying the marine and weather
// APIs concurrently.
type Fetcher struct {
	marine  *MarineClient
	weather *WeatherClient
}

// NewFetcher creates a fetcher over the two series clients.
func NewFetcher(marine *MarineClient, weather *WeatherClient) *Fetcher {
	return &Fetcher{marine: marine, weather: weather}
}

// Fetch retrieves both series for coord. If either request fails the other is
// cancelled and only the error is returned.
func (f *Fetcher) Fetch(ctx context.Context, coord forecast.Coordinate) (forecast.RawMarine, forecast.RawWeather, error) {
	if err := coord.Validate(); err != nil {
		return forecast.RawMarine{}, forecast.RawWeather{}, err
	}

	var (
		marine  forecast.RawMarine
		weather forecast.RawWeather
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		marine, err = f.marine.Fetch(gctx, coord)
		return err
	})
	g.Go(func() error {
		var err error
		weather, err = f.weather.Fetch(gctx, coord)
		return err
	})

	if err := g.Wait(); err != nil {
		return forecast.RawMarine{}, forecast.RawWeather{}, err
	}
	return marine, weather, nil
}
