package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/observability"
)

// Default Open-Meteo endpoints.
const (
	DefaultMarineURL    = "https://marine-api.open-meteo.com/v1/marine"
	DefaultWeatherURL   = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// DefaultSuggestLimit is used when Suggest is called with a non-positive limit.
const DefaultSuggestLimit = 5

// marineFields is requested as one comma-joined hourly parameter.
var marineFields = []string{
	"wave_height",
	"wave_direction",
	"wave_period",
	"wind_wave_height",
	"wind_wave_direction",
	"wind_wave_period",
	"swell_wave_height",
	"swell_wave_direction",
	"swell_wave_period",
}

var weatherFields = []string{"wind_speed_10m", "wind_direction_10m"}

// openMeteoClient is the transport shared by the Open-Meteo APIs.
type openMeteoClient struct {
	source  forecast.Source
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func newOpenMeteoClient(source forecast.Source, baseURL string, client *http.Client, metrics *observability.Metrics, maxRetries int) openMeteoClient {
	return openMeteoClient{
		source:  source,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
			Metrics: metrics,
		},
		circuit: newBreaker(source),
	}
}

// getJSON issues a GET with values and decodes the body into out.
func (c openMeteoClient) getJSON(ctx context.Context, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.source, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &forecast.UpstreamError{
			Source: c.source,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func coordinateValues(coord forecast.Coordinate) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	return values
}

// MarineClient fetches hourly wave series from the Open-Meteo marine API.
type MarineClient struct {
	api openMeteoClient
}

// NewMarineClient creates a marine client. Requests are not retried.
func NewMarineClient(baseURL string, client *http.Client, metrics *observability.Metrics) *MarineClient {
	if baseURL == "" {
		baseURL = DefaultMarineURL
	}
	return &MarineClient{api: newOpenMeteoClient(forecast.SourceMarine, baseURL, client, metrics, 0)}
}

// Fetch returns the raw hourly marine series at coord.
func (c *MarineClient) Fetch(ctx context.Context, coord forecast.Coordinate) (forecast.RawMarine, error) {
	values := coordinateValues(coord)
	values.Set("hourly", strings.Join(marineFields, ","))
	values.Set("timezone", "auto")

	var raw forecast.RawMarine
	if err := c.api.getJSON(ctx, values, &raw); err != nil {
		return forecast.RawMarine{}, err
	}
	return raw, nil
}

// WeatherClient fetches hourly 10m wind from the Open-Meteo forecast API.
type WeatherClient struct {
	api openMeteoClient
}

// NewWeatherClient creates a weather client. Requests are not retried.
func NewWeatherClient(baseURL string, client *http.Client, metrics *observability.Metrics) *WeatherClient {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	return &WeatherClient{api: newOpenMeteoClient(forecast.SourceWeather, baseURL, client, metrics, 0)}
}

// Fetch returns the raw hourly wind series at coord, in km/h.
func (c *WeatherClient) Fetch(ctx context.Context, coord forecast.Coordinate) (forecast.RawWeather, error) {
	values := coordinateValues(coord)
	values.Set("hourly", strings.Join(weatherFields, ","))
	values.Set("windspeed_unit", "kmh")
	values.Set("timezone", "auto")

	var raw forecast.RawWeather
	if err := c.api.getJSON(ctx, values, &raw); err != nil {
		return forecast.RawWeather{}, err
	}
	return raw, nil
}

// GeocodingClient implements forecast.GeoResolver with the Open-Meteo
// geocoding API.
type GeocodingClient struct {
	api      openMeteoClient
	language string
}

// NewGeocodingClient creates a geocoding client. Failed requests are retried
// up to maxRetries times.
func NewGeocodingClient(baseURL, language string, maxRetries int, client *http.Client, metrics *observability.Metrics) *GeocodingClient {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	if language == "" {
		language = "en"
	}
	return &GeocodingClient{
		api:      newOpenMeteoClient(forecast.SourceGeocoding, baseURL, client, metrics, maxRetries),
		language: language,
	}
}

// Resolve returns the top-ranked place for query.
func (c *GeocodingClient) Resolve(ctx context.Context, query string) (forecast.Place, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return forecast.Place{}, fmt.Errorf("%w: empty query", forecast.ErrInvalidInput)
	}

	places, err := c.search(ctx, q, 1)
	if err != nil {
		return forecast.Place{}, err
	}
	if len(places) == 0 {
		return forecast.Place{}, fmt.Errorf("%w: no place matches %q", forecast.ErrNotFound, q)
	}
	return places[0], nil
}

// Suggest returns up to limit ranked places for a partial query.
func (c *GeocodingClient) Suggest(ctx context.Context, query string, limit int) ([]forecast.Place, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []forecast.Place{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	return c.search(ctx, q, limit)
}

func (c *GeocodingClient) search(ctx context.Context, name string, count int) ([]forecast.Place, error) {
	values := url.Values{}
	values.Set("name", name)
	values.Set("count", strconv.Itoa(count))
	values.Set("language", c.language)
	values.Set("format", "json")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
			Admin1    string  `json:"admin1"`
		} `json:"results"`
	}
	if err := c.api.getJSON(ctx, values, &payload); err != nil {
		return nil, err
	}

	places := make([]forecast.Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		if len(places) == count {
			break
		}
		places = append(places, forecast.Place{
			Name:       r.Name,
			Coordinate: forecast.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
			Country:    r.Country,
			Region:     r.Admin1,
		})
	}
	return places, nil
}
