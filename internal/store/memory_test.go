package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/airspace-emissions/internal/chart"
)

func TestMemoryStoreSaveAndRead(t *testing.T) {
	s := NewMemoryStore(0, 0)

	s.SaveReadings("berlin", []chart.Reading{{Timestamp: 300, Value: 3}, {Timestamp: 100, Value: 1}})
	s.SaveReadings("berlin", []chart.Reading{{Timestamp: 200, Value: 2}, {Timestamp: 300, Value: 4}})

	series, err := s.Series("berlin")
	require.NoError(t, err)
	assert.Equal(t, chart.Series{100: 1, 200: 2, 300: 4}, series)

	latest, err := s.Latest("berlin")
	require.NoError(t, err)
	assert.Equal(t, chart.Reading{Timestamp: 300, Value: 4}, latest)

	got, err := s.Range("berlin", 150, 300)
	require.NoError(t, err)
	assert.Equal(t, []chart.Reading{{Timestamp: 200, Value: 2}, {Timestamp: 300, Value: 4}}, got)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveReadings("berlin", []chart.Reading{{Timestamp: 100, Value: 1}})

	_, err := s.Series("paris")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Latest("paris")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Range("berlin", 200, 300)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	s.SaveReadings("london", []chart.Reading{{Timestamp: 1, Value: 1}, {Timestamp: 2, Value: 2}, {Timestamp: 3, Value: 3}})

	series, err := s.Series("london")
	require.NoError(t, err)
	assert.Equal(t, chart.Series{2: 2, 3: 3}, series)
}

func TestMemoryStoreRetentionByAge(t *testing.T) {
	now := time.Unix(10_000, 0)
	s := NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }

	s.SaveReadings("madrid", []chart.Reading{
		{Timestamp: now.Add(-2 * time.Hour).Unix(), Value: 1},
		{Timestamp: now.Add(-time.Hour).Unix(), Value: 2},
		{Timestamp: now.Unix(), Value: 3},
	})

	got, err := s.Range("madrid", 0, now.Unix())
	require.NoError(t, err)
	assert.Equal(t, []chart.Reading{
		{Timestamp: now.Add(-time.Hour).Unix(), Value: 2},
		{Timestamp: now.Unix(), Value: 3},
	}, got)

	// Everything expired leaves an empty history.
	s.now = func() time.Time { return now.Add(24 * time.Hour) }
	s.SaveReadings("madrid", nil)
	_, err = s.Latest("madrid")
	assert.ErrorIs(t, err, ErrNotFound)
}
