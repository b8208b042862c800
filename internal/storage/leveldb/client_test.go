// internal/storage/leveldb/client_test.go
package leveldb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opening-server/internal/config"
	"opening-server/internal/models"
	"opening-server/internal/storage"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(config.LevelDBConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func testOpening(userID string, age time.Duration) *models.Opening {
	return &models.Opening{
		ID:         models.NewOpeningID(),
		UserID:     userID,
		Title:      "Test Opening",
		Theme:      models.ThemeFantasy,
		VideoURL:   "/output_videos/anime_opening_x.mp4",
		PreviewURL: "/static/previews/preview_x.jpg",
		CreatedAt:  time.Now().Add(-age).Truncate(time.Millisecond),
	}
}

func TestSaveAndGet(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	opening := testOpening("alice", 0)
	require.NoError(t, client.Save(ctx, opening))

	got, err := client.Get(ctx, opening.ID)
	require.NoError(t, err)
	assert.Equal(t, opening.ID, got.ID)
	assert.Equal(t, opening.Title, got.Title)
	assert.Equal(t, opening.VideoURL, got.VideoURL)
	assert.True(t, opening.CreatedAt.Equal(got.CreatedAt))
}

func TestGetUnknown(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Get(context.Background(), "opening_missing")
	assert.ErrorIs(t, err, storage.ErrOpeningNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	opening := testOpening("alice", 0)
	require.NoError(t, client.Save(ctx, opening))

	opening.Title = "Renamed"
	require.NoError(t, client.Save(ctx, opening))

	got, err := client.Get(ctx, opening.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestListByUserNewestFirst(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	var aliceIDs []string
	for i := 0; i < 3; i++ {
		opening := testOpening("alice", time.Duration(i)*time.Hour)
		opening.Title = fmt.Sprintf("Opening %d", i)
		require.NoError(t, client.Save(ctx, opening))
		aliceIDs = append(aliceIDs, opening.ID)
	}
	require.NoError(t, client.Save(ctx, testOpening("bob", 0)))

	openings, err := client.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, openings, 3)

	// Seeded oldest-last, so the list comes back in insertion order.
	for i, opening := range openings {
		assert.Equal(t, aliceIDs[i], opening.ID)
	}

	empty, err := client.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteOwnership(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	opening := testOpening("alice", 0)
	require.NoError(t, client.Save(ctx, opening))

	assert.ErrorIs(t, client.Delete(ctx, opening.ID, "bob"), storage.ErrNotOwner)

	require.NoError(t, client.Delete(ctx, opening.ID, "alice"))
	_, err := client.Get(ctx, opening.ID)
	assert.ErrorIs(t, err, storage.ErrOpeningNotFound)

	assert.ErrorIs(t, client.Delete(ctx, opening.ID, "alice"), storage.ErrOpeningNotFound)
}
