package forecast

import "time"

// upstreamTimeLayout is the local-time format used by the hourly time column.
const upstreamTimeLayout = "2006-01-02T15:04"

// Merge combines a marine and a weather series into one hourly series.
// The marine series decides the timestamps and wave fields; wind fields are
// taken from the weather series at the same index. Both series are requested
// for the same location, timezone and hourly cadence, so no re-bucketing by
// timestamp is done. Missing weather entries leave wind unknown.
func Merge(marine RawMarine, weather RawWeather) HourlySeries {
	loc := time.FixedZone(marine.TimezoneAbbreviation, marine.UTCOffsetSeconds)
	h := marine.Hourly

	slots := make([]Slot, len(h.Time))
	for i, label := range h.Time {
		slots[i] = Slot{
			Time:  parseSlotTime(label, loc),
			Label: label,

			WaveHeight:    at(h.WaveHeight, i),
			WaveDirection: at(h.WaveDirection, i),
			WavePeriod:    at(h.WavePeriod, i),

			WindWaveHeight:    at(h.WindWaveHeight, i),
			WindWaveDirection: at(h.WindWaveDirection, i),
			WindWavePeriod:    at(h.WindWavePeriod, i),

			SwellWaveHeight:    at(h.SwellWaveHeight, i),
			SwellWaveDirection: at(h.SwellWaveDirection, i),
			SwellWavePeriod:    at(h.SwellWavePeriod, i),

			WindSpeed:     at(weather.Hourly.WindSpeed10m, i),
			WindDirection: at(weather.Hourly.WindDirection10m, i),
		}
	}

	return HourlySeries{
		Latitude:         marine.Latitude,
		Longitude:        marine.Longitude,
		Timezone:         marine.Timezone,
		UTCOffsetSeconds: marine.UTCOffsetSeconds,
		Slots:            slots,
	}
}

// parseSlotTime parses an upstream local timestamp. An unparseable label
// yields the zero time; the label itself is kept on the slot.
func parseSlotTime(label string, loc *time.Location) time.Time {
	ts, err := time.ParseInLocation(upstreamTimeLayout, label, loc)
	if err != nil {
		return time.Time{}
	}
	return ts
}
