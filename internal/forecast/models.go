package forecast

import (
	"encoding/json"
	"fmt"
	"time"
)

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate is within valid latitude/longitude ranges.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidInput, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidInput, c.Longitude)
	}
	return nil
}

// Place is a geocoded location. Region is the first-level administrative area.
type Place struct {
	Name       string
	Coordinate Coordinate
	Country    string
	Region     string
}

// Slot is one hourly entry of an aligned series. Heights are meters, periods
// seconds, directions degrees, wind speed km/h.
type Slot struct {
	Time  time.Time
	Label string // local time as sent upstream, e.g. "2024-06-01T13:00"

	WaveHeight    Value
	WaveDirection Value
	WavePeriod    Value

	WindWaveHeight    Value
	WindWaveDirection Value
	WindWavePeriod    Value

	SwellWaveHeight    Value
	SwellWaveDirection Value
	SwellWavePeriod    Value

	WindSpeed     Value
	WindDirection Value
}

// HourlySeries is a marine series with wind merged in. Slots are in ascending
// time order and every slot refers to the same instant across fields.
type HourlySeries struct {
	Latitude         float64
	Longitude        float64
	Timezone         string
	UTCOffsetSeconds int
	Slots            []Slot
}

// Len returns the number of slots.
func (s HourlySeries) Len() int {
	return len(s.Slots)
}

// Current returns the index of the slot covering now: the last slot whose time
// is not after now. Returns 0 when now precedes the series and false when the
// series is empty.
func (s HourlySeries) Current(now time.Time) (int, bool) {
	if len(s.Slots) == 0 {
		return 0, false
	}
	idx := 0
	for i, slot := range s.Slots {
		if slot.Time.IsZero() || slot.Time.After(now) {
			break
		}
		idx = i
	}
	return idx, true
}

var hourlyUnits = map[string]string{
	"time":                 "iso8601",
	"wave_height":          "m",
	"wave_direction":       "°",
	"wave_period":          "s",
	"wind_wave_height":     "m",
	"wind_wave_direction":  "°",
	"wind_wave_period":     "s",
	"swell_wave_height":    "m",
	"swell_wave_direction": "°",
	"swell_wave_period":    "s",
	"wind_speed_10m":       "km/h",
	"wind_direction_10m":   "°",
}

type hourlyColumns struct {
	Time               []string `json:"time"`
	WaveHeight         []Value  `json:"wave_height"`
	WaveDirection      []Value  `json:"wave_direction"`
	WavePeriod         []Value  `json:"wave_period"`
	WindWaveHeight     []Value  `json:"wind_wave_height"`
	WindWaveDirection  []Value  `json:"wind_wave_direction"`
	WindWavePeriod     []Value  `json:"wind_wave_period"`
	SwellWaveHeight    []Value  `json:"swell_wave_height"`
	SwellWaveDirection []Value  `json:"swell_wave_direction"`
	SwellWavePeriod    []Value  `json:"swell_wave_period"`
	WindSpeed10m       []Value  `json:"wind_speed_10m"`
	WindDirection10m   []Value  `json:"wind_direction_10m"`
}

// MarshalJSON renders the series in the columnar shape the upstream marine API
// uses, with wind columns appended and null for unknown entries.
func (s HourlySeries) MarshalJSON() ([]byte, error) {
	n := len(s.Slots)
	cols := hourlyColumns{
		Time:               make([]string, n),
		WaveHeight:         make([]Value, n),
		WaveDirection:      make([]Value, n),
		WavePeriod:         make([]Value, n),
		WindWaveHeight:     make([]Value, n),
		WindWaveDirection:  make([]Value, n),
		WindWavePeriod:     make([]Value, n),
		SwellWaveHeight:    make([]Value, n),
		SwellWaveDirection: make([]Value, n),
		SwellWavePeriod:    make([]Value, n),
		WindSpeed10m:       make([]Value, n),
		WindDirection10m:   make([]Value, n),
	}
	for i, slot := range s.Slots {
		cols.Time[i] = slot.Label
		cols.WaveHeight[i] = slot.WaveHeight
		cols.WaveDirection[i] = slot.WaveDirection
		cols.WavePeriod[i] = slot.WavePeriod
		cols.WindWaveHeight[i] = slot.WindWaveHeight
		cols.WindWaveDirection[i] = slot.WindWaveDirection
		cols.WindWavePeriod[i] = slot.WindWavePeriod
		cols.SwellWaveHeight[i] = slot.SwellWaveHeight
		cols.SwellWaveDirection[i] = slot.SwellWaveDirection
		cols.SwellWavePeriod[i] = slot.SwellWavePeriod
		cols.WindSpeed10m[i] = slot.WindSpeed
		cols.WindDirection10m[i] = slot.WindDirection
	}

	return json.Marshal(struct {
		Latitude         float64           `json:"latitude"`
		Longitude        float64           `json:"longitude"`
		Timezone         string            `json:"timezone"`
		UTCOffsetSeconds int               `json:"utc_offset_seconds"`
		HourlyUnits      map[string]string `json:"hourly_units"`
		Hourly           hourlyColumns     `json:"hourly"`
	}{
		Latitude:         s.Latitude,
		Longitude:        s.Longitude,
		Timezone:         s.Timezone,
		UTCOffsetSeconds: s.UTCOffsetSeconds,
		HourlyUnits:      hourlyUnits,
		Hourly:           cols,
	})
}

// RawMarine is the decoded marine provider payload.
type RawMarine struct {
	Latitude             float64      `json:"latitude"`
	Longitude            float64      `json:"longitude"`
	Timezone             string       `json:"timezone"`
	TimezoneAbbreviation string       `json:"timezone_abbreviation"`
	UTCOffsetSeconds     int          `json:"utc_offset_seconds"`
	Hourly               MarineHourly `json:"hourly"`
}

// MarineHourly holds the hourly marine columns.
type MarineHourly struct {
	Time               []string `json:"time"`
	WaveHeight         []Value  `json:"wave_height"`
	WaveDirection      []Value  `json:"wave_direction"`
	WavePeriod         []Value  `json:"wave_period"`
	WindWaveHeight     []Value  `json:"wind_wave_height"`
	WindWaveDirection  []Value  `json:"wind_wave_direction"`
	WindWavePeriod     []Value  `json:"wind_wave_period"`
	SwellWaveHeight    []Value  `json:"swell_wave_height"`
	SwellWaveDirection []Value  `json:"swell_wave_direction"`
	SwellWavePeriod    []Value  `json:"swell_wave_period"`
}

// RawWeather is the decoded weather provider payload.
type RawWeather struct {
	Latitude         float64       `json:"latitude"`
	Longitude        float64       `json:"longitude"`
	Timezone         string        `json:"timezone"`
	UTCOffsetSeconds int           `json:"utc_offset_seconds"`
	Hourly           WeatherHourly `json:"hourly"`
}

// WeatherHourly holds the hourly 10m wind columns.
type WeatherHourly struct {
	Time             []string `json:"time"`
	WindSpeed10m     []Value  `json:"wind_speed_10m"`
	WindDirection10m []Value  `json:"wind_direction_10m"`
}
