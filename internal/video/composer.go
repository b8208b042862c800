// internal/video/composer.go
package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"opening-server/internal/config"
	"opening-server/internal/models"
	"opening-server/internal/pipeline"
)

// Theme-matched background tracks, relative to the music dir.
var musicTracks = map[string]string{
	models.ThemeAction:  "epic_battle.mp3",
	models.ThemeRomance: "emotional_journey.mp3",
	models.ThemeFantasy: "magical_world.mp3",
	models.ThemeSciFi:   "cyberpunk_beats.mp3",
	models.ThemeComedy:  "upbeat_fun.mp3",
}

// Composer renders the final opening with ffmpeg: each image is held for two
// seconds over a theme-matched music track, scaled and padded to 1080p.
type Composer struct {
	cfg    config.VideoConfig
	logger zerolog.Logger
}

func NewComposer(cfg config.VideoConfig, logger zerolog.Logger) *Composer {
	return &Composer{cfg: cfg, logger: logger}
}

func (c *Composer) Compose(ctx context.Context, imagePaths []string, narrative *models.Narrative, theme, taskID string) (*pipeline.RenderResult, error) {
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("render: no images to compose")
	}

	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("render: failed to create output dir: %w", err)
	}

	concatFile, err := c.writeConcatFile(imagePaths)
	if err != nil {
		return nil, err
	}
	defer os.Remove(concatFile)

	outputName := fmt.Sprintf("anime_opening_%s.mp4", taskID)
	outputPath := filepath.Join(c.cfg.OutputDir, outputName)

	track, ok := musicTracks[theme]
	if !ok {
		track = musicTracks[models.DefaultTheme]
	}
	musicPath := filepath.Join(c.cfg.MusicDir, track)

	args := []string{
		"-y",
		"-f", "concat", "-safe", "0", "-i", concatFile,
		"-i", musicPath,
		"-c:v", "libx264", "-preset", "fast", "-crf", "22",
		"-c:a", "aac", "-b:a", "192k",
		"-shortest",
		"-vf", "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, c.cfg.FFmpeg, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("render: ffmpeg failed: %w: %s", err, tail(out, 512))
	}

	c.logger.Info().Str("task_id", taskID).Str("output", outputPath).Msg("video composed")

	return &pipeline.RenderResult{
		VideoPath:  outputPath,
		VideoURL:   "/output_videos/" + outputName,
		PreviewURL: fmt.Sprintf("/static/previews/preview_%s.jpg", taskID),
	}, nil
}

// writeConcatFile produces the ffmpeg concat list: two seconds per image,
// with the last image repeated without a duration as the format requires.
func (c *Composer) writeConcatFile(imagePaths []string) (string, error) {
	f, err := os.CreateTemp("", "opening-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("render: failed to create concat file: %w", err)
	}
	defer f.Close()

	var list strings.Builder
	for _, img := range imagePaths {
		abs, err := filepath.Abs(img)
		if err != nil {
			abs = img
		}
		fmt.Fprintf(&list, "file '%s'\nduration 2\n", abs)
	}
	last, err := filepath.Abs(imagePaths[len(imagePaths)-1])
	if err != nil {
		last = imagePaths[len(imagePaths)-1]
	}
	fmt.Fprintf(&list, "file '%s'\n", last)

	if _, err := f.WriteString(list.String()); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("render: failed to write concat file: %w", err)
	}
	return f.Name(), nil
}

func tail(out []byte, n int) string {
	s := strings.TrimSpace(string(out))
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
