package forecast

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty or malformed queries and coordinates.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when geocoding yields no place.
	ErrNotFound = errors.New("not found")
)

// Source names an upstream provider.
type Source string

const (
	SourceMarine    Source = "marine"
	SourceWeather   Source = "weather"
	SourceGeocoding Source = "geocoding"
)

// UpstreamError reports a failed upstream call. Status is the HTTP status, or
// 0 when the request never produced a response.
type UpstreamError struct {
	Source Source
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s error: %v", e.Source, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("upstream %s error: status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("upstream %s error: status %d: %v", e.Source, e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// GeoResolver turns free text into places.
type GeoResolver interface {
	// Resolve returns the highest-ranked place for query.
	Resolve(ctx context.Context, query string) (Place, error)

	// Suggest returns up to limit ranked candidates. Empty input yields an
	// empty list without contacting the provider.
	Suggest(ctx context.Context, query string, limit int) ([]Place, error)
}

// SeriesFetcher retrieves the unmerged marine and weather series for a coordinate.
type SeriesFetcher interface {
	Fetch(ctx context.Context, coord Coordinate) (RawMarine, RawWeather, error)
}
