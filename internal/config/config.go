package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/forecast/providers"
	"github.com/i474232898/surfcast/internal/registry"
)

// DefaultSpots are the built-in spots used when SPOTS is unset.
const DefaultSpots = "Herzliya:32.165:34.808;Netanya:32.332:34.856;Beit Yanai:32.385:34.855"

// BuiltinSpot is a configured default spot.
type BuiltinSpot struct {
	Name      string  `validate:"required"`
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
}

type AppConfig struct {
	Port            string        `validate:"required,numeric"`
	HTTPTimeout     time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	LogLevel        string        `validate:"oneof=debug info warn warning error"`
	LogFormat       string        `validate:"oneof=json text"`

	MarineAPIURL    string `validate:"required,url"`
	WeatherAPIURL   string `validate:"required,url"`
	GeocodingAPIURL string `validate:"required,url"`

	// Geocoder selects the place resolver: "openmeteo" or "google".
	Geocoder          string `validate:"oneof=openmeteo google"`
	GoogleAPIKey      string `validate:"required_if=Geocoder google"`
	GeocodeLanguage   string `validate:"required"`
	GeocodeCacheSize  int    `validate:"gte=0"`
	GeocodeMaxRetries int    `validate:"gte=0,lte=5"`
	SuggestLimit      int    `validate:"gte=1,lte=20"`

	// FetchInterval controls how often built-in spots are refreshed. 0 disables it.
	FetchInterval time.Duration `validate:"gte=0"`
	// SeriesMaxAge is how long a fetched series is reused.
	SeriesMaxAge time.Duration `validate:"gte=0"`

	Spots []BuiltinSpot `validate:"max=6,dive"`

	// RegistryDBPath enables SQLite persistence of tracked spots when set.
	RegistryDBPath string
}

var validate = validator.New()

// Load reads configuration from the environment, after a .env file if one
// exists, with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:            getenvDefault("PORT", "8080"),
		LogLevel:        strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getenvDefault("LOG_FORMAT", "json")),
		MarineAPIURL:    getenvDefault("MARINE_API_URL", providers.DefaultMarineURL),
		WeatherAPIURL:   getenvDefault("WEATHER_API_URL", providers.DefaultWeatherURL),
		GeocodingAPIURL: getenvDefault("GEOCODING_API_URL", providers.DefaultGeocodingURL),
		Geocoder:        strings.ToLower(getenvDefault("GEOCODER", "openmeteo")),
		GoogleAPIKey:    os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		GeocodeLanguage: getenvDefault("GEOCODE_LANGUAGE", "en"),
		RegistryDBPath:  os.Getenv("REGISTRY_DB_PATH"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SeriesMaxAge, err = getenvDuration("SERIES_MAX_AGE", time.Hour); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheSize, err = getenvInt("GEOCODE_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.GeocodeMaxRetries, err = getenvInt("GEOCODE_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.SuggestLimit, err = getenvInt("SUGGEST_LIMIT", providers.DefaultSuggestLimit); err != nil {
		return nil, err
	}

	if cfg.Spots, err = ParseSpots(getenvDefault("SPOTS", DefaultSpots)); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ParseSpots parses "Name:lat:lon;Name:lat:lon".
func ParseSpots(raw string) ([]BuiltinSpot, error) {
	var spots []BuiltinSpot
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid SPOTS entry %q: want name:lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SPOTS latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SPOTS longitude in %q: %w", entry, err)
		}
		spots = append(spots, BuiltinSpot{
			Name:      strings.TrimSpace(parts[0]),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return spots, nil
}

// BuiltinSpots converts the configured spots into registry spots.
func (c *AppConfig) BuiltinSpots() []registry.Spot {
	out := make([]registry.Spot, len(c.Spots))
	for i, s := range c.Spots {
		out[i] = registry.NewBuiltin(s.Name, forecast.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude})
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
