package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcosynot/ouch/internal/owie"
)

func openTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEntry(bodyPart string) owie.Entry {
	return owie.Entry{
		DateTime:           1700000000,
		BodyPart:           bodyPart,
		Temperature:        41.5,
		Pressure:           1013,
		Humidity:           80,
		Precipitation:      0.8,
		UVIndex:            2.5,
		WeatherID:          501,
		WeatherMain:        "Rain",
		WeatherDescription: "moderate rain",
	}
}

func TestOpen_CreatesDataDirectory(t *testing.T) {
	// The data directory does not exist yet; Open must create it.
	s, err := Open(filepath.Join(t.TempDir(), "nested", "dir", "data.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Insert(context.Background(), testEntry("knee"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening must run migrations idempotently and keep existing rows.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "knee", entries[0].BodyPart)
}

func TestInsertAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.Insert(ctx, testEntry("left knee"))
	require.NoError(t, err)
	id2, err := s.Insert(ctx, testEntry("right elbow"))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "right elbow", entries[0].BodyPart)
	assert.Equal(t, id2, entries[0].ID)
	assert.Equal(t, "left knee", entries[1].BodyPart)

	got := entries[1]
	assert.Equal(t, int64(1700000000), got.DateTime)
	assert.Equal(t, 41.5, got.Temperature)
	assert.Equal(t, 1013.0, got.Pressure)
	assert.Equal(t, 80.0, got.Humidity)
	assert.Equal(t, 0.8, got.Precipitation)
	assert.Equal(t, 2.5, got.UVIndex)
	assert.Equal(t, int64(501), got.WeatherID)
	assert.Equal(t, "Rain", got.WeatherMain)
	assert.Equal(t, "moderate rain", got.WeatherDescription)
}

func TestRecent_LimitAndEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for _, part := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, testEntry(part))
		require.NoError(t, err)
	}

	entries, err = s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].BodyPart)
	assert.Equal(t, "b", entries[1].BodyPart)
}
