package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvideohub/videohub/internal/media"
)

func TestNullableCode(t *testing.T) {
	assert.False(t, nullableCode(nil).Valid)

	code := 150
	nc := nullableCode(&code)
	assert.True(t, nc.Valid)
	assert.Equal(t, int32(150), nc.Int32)

	back := codeFromNull(nc)
	require.NotNil(t, back)
	assert.Equal(t, 150, *back)
	assert.Nil(t, codeFromNull(nullableCode(nil)))
}

func TestOptionsConnString(t *testing.T) {
	opts := Options{Host: "db", Port: "5433", User: "u", Password: "p", Name: "videohub"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=videohub sslmode=disable", opts.ConnString())
}

// TestPlaybackReportRepository runs against a real database when
// VIDEOHUB_TEST_DB_HOST is set.
func TestPlaybackReportRepository(t *testing.T) {
	host := os.Getenv("VIDEOHUB_TEST_DB_HOST")
	if host == "" {
		t.Skip("VIDEOHUB_TEST_DB_HOST not set")
	}

	ctx := context.Background()
	database, err := New(ctx, Options{
		Host:     host,
		Port:     envOr("VIDEOHUB_TEST_DB_PORT", "5432"),
		User:     envOr("VIDEOHUB_TEST_DB_USER", "videohub"),
		Password: envOr("VIDEOHUB_TEST_DB_PASSWORD", "videohub_dev_password"),
		Name:     envOr("VIDEOHUB_TEST_DB_NAME", "videohub_test"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, database.Migrate(ctx))
	_, err = database.ExecContext(ctx, "TRUNCATE playback_reports")
	require.NoError(t, err)

	repo := NewPlaybackReportRepository(database)

	code := 101
	first := &media.FailureReport{VideoID: "v1", URL: "https://youtu.be/abc", Platform: media.PlatformYouTube, Code: &code, Message: "embedding disabled"}
	require.NoError(t, repo.RecordFailure(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &media.FailureReport{URL: "https://vimeo.com/1", Platform: media.PlatformVimeo, Message: "generic"}
	require.NoError(t, repo.RecordFailure(ctx, second))

	stats, err := repo.FailureStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	for _, s := range stats {
		assert.Equal(t, int64(1), s.Count)
		assert.NotNil(t, s.LastSeen)
	}

	recent, err := repo.RecentFailures(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Nil(t, recent[0].Code)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
