package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/surfcast/internal/forecast"
)

// The geocoder package keeps its key in a package variable.
var googleKeyMu sync.Mutex

// GoogleResolver implements forecast.GeoResolver with the Google Geocoding API.
// Google returns a single best match, so Suggest yields at most one place.
type GoogleResolver struct {
	apiKey  string
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleResolver creates a resolver using apiKey.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	return &GoogleResolver{
		apiKey:  apiKey,
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

func (g *GoogleResolver) Resolve(ctx context.Context, query string) (forecast.Place, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return forecast.Place{}, fmt.Errorf("%w: empty query", forecast.ErrInvalidInput)
	}

	type result struct {
		place forecast.Place
		err   error
	}
	done := make(chan result, 1)
	go func() {
		place, err := g.lookup(q)
		done <- result{place: place, err: err}
	}()

	select {
	case <-ctx.Done():
		return forecast.Place{}, &forecast.UpstreamError{Source: forecast.SourceGeocoding, Err: ctx.Err()}
	case r := <-done:
		return r.place, r.err
	}
}

func (g *GoogleResolver) Suggest(ctx context.Context, query string, limit int) ([]forecast.Place, error) {
	if strings.TrimSpace(query) == "" {
		return []forecast.Place{}, nil
	}
	place, err := g.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, forecast.ErrNotFound) {
			return []forecast.Place{}, nil
		}
		return nil, err
	}
	return []forecast.Place{place}, nil
}

func (g *GoogleResolver) lookup(q string) (forecast.Place, error) {
	googleKeyMu.Lock()
	defer googleKeyMu.Unlock()
	geocoder.ApiKey = g.apiKey

	loc, err := g.forward(geocoder.Address{City: q})
	if err != nil {
		if strings.Contains(strings.ToUpper(err.Error()), "ZERO_RESULTS") {
			return forecast.Place{}, fmt.Errorf("%w: no place matches %q", forecast.ErrNotFound, q)
		}
		return forecast.Place{}, &forecast.UpstreamError{Source: forecast.SourceGeocoding, Err: err}
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return forecast.Place{}, fmt.Errorf("%w: no place matches %q", forecast.ErrNotFound, q)
	}

	place := forecast.Place{
		Name:       q,
		Coordinate: forecast.Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude},
	}

	// The reverse lookup only improves the display name.
	addresses, err := g.reverse(loc)
	if err == nil && len(addresses) > 0 {
		a := addresses[0]
		if a.City != "" {
			place.Name = a.City
		}
		place.Country = a.Country
		place.Region = a.State
	}
	return place, nil
}
