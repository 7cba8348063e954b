package forecast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMarine() RawMarine {
	return RawMarine{
		Latitude:             32.16,
		Longitude:            34.8,
		Timezone:             "Asia/Jerusalem",
		TimezoneAbbreviation: "IDT",
		UTCOffsetSeconds:     3 * 3600,
		Hourly: MarineHourly{
			Time:               []string{"2024-06-01T00:00", "2024-06-01T01:00", "2024-06-01T02:00"},
			WaveHeight:         []Value{Known(0.9), Known(1.1), Unknown()},
			WaveDirection:      []Value{Known(280), Known(285), Known(290)},
			WavePeriod:         []Value{Known(7.5), Known(8), Known(8.2)},
			WindWaveHeight:     []Value{Known(0.3), Known(0.4), Known(0.5)},
			WindWaveDirection:  []Value{Known(270), Known(275), Known(280)},
			WindWavePeriod:     []Value{Known(4), Known(4.2), Known(4.4)},
			SwellWaveHeight:    []Value{Known(0.6), Known(0.7), Known(0.8)},
			SwellWaveDirection: []Value{Known(300), Known(300), Known(305)},
			SwellWavePeriod:    []Value{Known(9), Known(9.5), Known(10)},
		},
	}
}

func TestMerge_AlignsByIndex(t *testing.T) {
	weather := RawWeather{Hourly: WeatherHourly{
		Time:             []string{"2024-06-01T00:00", "2024-06-01T01:00", "2024-06-01T02:00"},
		WindSpeed10m:     []Value{Known(12), Known(15), Known(18)},
		WindDirection10m: []Value{Known(250), Known(260), Unknown()},
	}}

	series := Merge(testMarine(), weather)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, "Asia/Jerusalem", series.Timezone)
	assert.Equal(t, 32.16, series.Latitude)

	s1 := series.Slots[1]
	assert.Equal(t, "2024-06-01T01:00", s1.Label)
	assert.Equal(t, Known(1.1), s1.WaveHeight)
	assert.Equal(t, Known(15), s1.WindSpeed)
	assert.Equal(t, Known(260), s1.WindDirection)
	assert.Equal(t, Known(0.7), s1.SwellWaveHeight)

	want := time.Date(2024, 5, 31, 22, 0, 0, 0, time.UTC)
	assert.True(t, s1.Time.Equal(want), "got %v", s1.Time)

	assert.False(t, series.Slots[2].WaveHeight.IsKnown())
	assert.False(t, series.Slots[2].WindDirection.IsKnown())
}

func TestMerge_ShortWeatherYieldsUnknownWind(t *testing.T) {
	weather := RawWeather{Hourly: WeatherHourly{
		WindSpeed10m:     []Value{Known(10)},
		WindDirection10m: []Value{Known(200)},
	}}

	series := Merge(testMarine(), weather)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, Known(10), series.Slots[0].WindSpeed)
	for _, slot := range series.Slots[1:] {
		assert.False(t, slot.WindSpeed.IsKnown())
		assert.False(t, slot.WindDirection.IsKnown())
	}
}

func TestMerge_ShortMarineColumn(t *testing.T) {
	marine := testMarine()
	marine.Hourly.WavePeriod = marine.Hourly.WavePeriod[:1]

	series := Merge(marine, RawWeather{})
	assert.Equal(t, Known(7.5), series.Slots[0].WavePeriod)
	assert.False(t, series.Slots[2].WavePeriod.IsKnown())
}

func TestMerge_UnparseableTimeKeepsLabel(t *testing.T) {
	marine := testMarine()
	marine.Hourly.Time[0] = "yesterday"

	series := Merge(marine, RawWeather{})
	assert.True(t, series.Slots[0].Time.IsZero())
	assert.Equal(t, "yesterday", series.Slots[0].Label)
}

func TestHourlySeries_Current(t *testing.T) {
	series := Merge(testMarine(), RawWeather{})
	loc := time.FixedZone("IDT", 3*3600)

	idx, ok := series.Current(time.Date(2024, 6, 1, 1, 30, 0, 0, loc))
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = series.Current(time.Date(2024, 5, 1, 0, 0, 0, 0, loc))
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = series.Current(time.Date(2025, 1, 1, 0, 0, 0, 0, loc))
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = HourlySeries{}.Current(time.Now())
	assert.False(t, ok)
}

func TestHourlySeries_MarshalJSON(t *testing.T) {
	weather := RawWeather{Hourly: WeatherHourly{WindSpeed10m: []Value{Known(12)}}}
	data, err := json.Marshal(Merge(testMarine(), weather))
	require.NoError(t, err)

	var decoded struct {
		Timezone string `json:"timezone"`
		Hourly   struct {
			Time         []string   `json:"time"`
			WaveHeight   []*float64 `json:"wave_height"`
			WindSpeed10m []*float64 `json:"wind_speed_10m"`
		} `json:"hourly"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "Asia/Jerusalem", decoded.Timezone)
	assert.Len(t, decoded.Hourly.Time, 3)
	require.Len(t, decoded.Hourly.WaveHeight, 3)
	assert.Nil(t, decoded.Hourly.WaveHeight[2])
	require.NotNil(t, decoded.Hourly.WindSpeed10m[0])
	assert.Equal(t, 12.0, *decoded.Hourly.WindSpeed10m[0])
	assert.Nil(t, decoded.Hourly.WindSpeed10m[1])
}

func TestRawMarine_DecodesNullAsUnknown(t *testing.T) {
	payload := `{"timezone":"GMT","utc_offset_seconds":0,"hourly":{"time":["2024-06-01T00:00","2024-06-01T01:00"],"wave_height":[1.25,null]}}`

	var raw RawMarine
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	require.Len(t, raw.Hourly.WaveHeight, 2)
	assert.Equal(t, Known(1.25), raw.Hourly.WaveHeight[0])
	assert.False(t, raw.Hourly.WaveHeight[1].IsKnown())
}
