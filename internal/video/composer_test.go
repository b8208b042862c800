// internal/video/composer_test.go
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opening-server/internal/config"
	"opening-server/internal/models"
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	return NewComposer(config.VideoConfig{
		OutputDir: t.TempDir(),
		MusicDir:  "./assets/music",
		FFmpeg:    "ffmpeg",
	}, zerolog.Nop())
}

func TestComposeRejectsEmptyBatch(t *testing.T) {
	c := newTestComposer(t)

	_, err := c.Compose(context.Background(), nil, &models.Narrative{}, models.ThemeAction, "task1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")
}

func TestWriteConcatFile(t *testing.T) {
	c := newTestComposer(t)

	dir := t.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("frame_%d.jpg", i))
		require.NoError(t, os.WriteFile(paths[i], []byte("jpeg"), 0o644))
	}

	concatFile, err := c.writeConcatFile(paths)
	require.NoError(t, err)
	defer os.Remove(concatFile)

	data, err := os.ReadFile(concatFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	// Two lines per image plus the trailing repeat of the last image.
	require.Len(t, lines, len(paths)*2+1)
	for i, path := range paths {
		assert.Equal(t, fmt.Sprintf("file '%s'", path), lines[i*2])
		assert.Equal(t, "duration 2", lines[i*2+1])
	}
	assert.Equal(t, fmt.Sprintf("file '%s'", paths[len(paths)-1]), lines[len(lines)-1])
}

func TestMusicTrackSelection(t *testing.T) {
	for _, theme := range []string{models.ThemeAction, models.ThemeRomance, models.ThemeFantasy, models.ThemeSciFi, models.ThemeComedy} {
		assert.NotEmpty(t, musicTracks[theme], theme)
	}

	// Unknown themes never reach the composer uncoerced, but the lookup still
	// resolves to the default track.
	_, ok := musicTracks["horror"]
	assert.False(t, ok)
	assert.NotEmpty(t, musicTracks[models.DefaultTheme])
}
