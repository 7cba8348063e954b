package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickBest(t *testing.T) {
	idx, ok := PickBest([]Candidate{
		{WaveHeight: Known(2), Period: Known(10)},
		{WaveHeight: Known(5), Period: Known(14)},
		{WaveHeight: Known(5), Period: Known(8)},
	})
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestPickBest_Empty(t *testing.T) {
	_, ok := PickBest(nil)
	assert.False(t, ok)

	_, ok = PickBestSlot(HourlySeries{})
	assert.False(t, ok)
}

func TestPickBest_FirstMaximumWins(t *testing.T) {
	idx, ok := PickBest([]Candidate{
		{WaveHeight: Known(1), Period: Known(1)},
		{WaveHeight: Known(4), Period: Known(9)},
		{WaveHeight: Known(4), Period: Known(9)},
	})
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestPickBest_UnknownCountsAsZero(t *testing.T) {
	idx, ok := PickBest([]Candidate{
		{WaveHeight: Unknown(), Period: Known(10)}, // 4.0
		{WaveHeight: Known(3), Period: Unknown()},  // 1.8
	})
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = PickBest([]Candidate{{}, {}})
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestPickBestSlot_UsesFeet(t *testing.T) {
	series := HourlySeries{Slots: []Slot{
		{WaveHeight: Known(0.6), WavePeriod: Known(10)}, // 1.97ft -> 5.18
		{WaveHeight: Known(1.5), WavePeriod: Known(14)}, // 4.92ft -> 8.55
		{WaveHeight: Known(1.5), WavePeriod: Known(8)},  // 4.92ft -> 6.15
	}}
	idx, ok := PickBestSlot(series)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestPickBestSlot_DoesNotRoundHeights(t *testing.T) {
	// Both heights round to 5ft.
	series := HourlySeries{Slots: []Slot{
		{WaveHeight: Known(1.45), WavePeriod: Known(10)}, // 4.76ft
		{WaveHeight: Known(1.65), WavePeriod: Known(10)}, // 5.41ft
	}}
	idx, ok := PickBestSlot(series)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}
