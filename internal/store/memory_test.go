package store

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/surfcast/internal/forecast"
)

func series(height float64) forecast.HourlySeries {
	return forecast.HourlySeries{Slots: []forecast.Slot{{WaveHeight: forecast.Known(height)}}}
}

func TestMemoryStore_SaveAndLatest(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s := NewMemoryStore(time.Hour, clock)

	s.Save("Herzliya", series(1.1))

	snap, err := s.Latest("herzliya")
	require.NoError(t, err)
	assert.Equal(t, "Herzliya", snap.Name)
	assert.Equal(t, clock.Now(), snap.FetchedAt)
	assert.Equal(t, forecast.Known(1.1), snap.Series.Slots[0].WaveHeight)
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	s := NewMemoryStore(0, clockwork.NewFakeClock())

	s.Save("Netanya", series(0.5))
	s.Save("NETANYA", series(0.9))

	snap, err := s.Latest("Netanya")
	require.NoError(t, err)
	assert.Equal(t, forecast.Known(0.9), snap.Series.Slots[0].WaveHeight)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_Missing(t *testing.T) {
	s := NewMemoryStore(time.Hour, nil)

	_, err := s.Latest("Beit Yanai")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Stale(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStore(30*time.Minute, clock)
	s.Save("Haifa", series(1))

	clock.Advance(30 * time.Minute)
	_, err := s.Latest("Haifa")
	require.NoError(t, err, "exactly max age is still fresh")

	clock.Advance(time.Second)
	_, err = s.Latest("Haifa")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}
