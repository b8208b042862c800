// internal/pipeline/driver.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"opening-server/internal/models"
	"opening-server/internal/storage"
)

// DefaultTargetScenes is the scene count below which the scripting stage
// asks the elaborator for a fuller storyboard.
const DefaultTargetScenes = 8

// Driver runs the generation state machine for one submitted job:
// queued -> transforming -> narrating -> scripting -> rendering -> completed,
// with failed absorbing from any non-terminal stage. It is the single writer
// of its task's record; concurrent status reads observe the stage about to
// run, never work in flight.
type Driver struct {
	store        storage.TaskStore
	transformer  ImageTransformer
	narrator     NarrativeGenerator
	elaborator   SceneElaborator
	composer     VideoComposer
	pool         *ants.Pool
	tempDir      string
	targetScenes int
	logger       zerolog.Logger
}

func NewDriver(store storage.TaskStore, transformer ImageTransformer, narrator NarrativeGenerator,
	elaborator SceneElaborator, composer VideoComposer, pool *ants.Pool, tempDir string, logger zerolog.Logger) *Driver {
	return &Driver{
		store:        store,
		transformer:  transformer,
		narrator:     narrator,
		elaborator:   elaborator,
		composer:     composer,
		pool:         pool,
		tempDir:      tempDir,
		targetScenes: DefaultTargetScenes,
		logger:       logger,
	}
}

// Run drives one job to a terminal state. It never returns an error to the
// caller; failures are recorded on the task and logged. Temporary assets for
// the task are removed on both the success and failure paths.
func (d *Driver) Run(ctx context.Context, job *models.GenerationInput) {
	logger := d.logger.With().Str("task_id", job.TaskID).Str("theme", job.Theme).Logger()
	defer d.cleanupTaskDir(job.TaskID, logger)

	d.advance(job.TaskID, models.StageTransforming, 10, "Transforming images to anime style", logger)
	transformed, err := d.transformAll(ctx, job)
	if err != nil {
		d.fail(job.TaskID, err, logger)
		return
	}

	d.advance(job.TaskID, models.StageNarrating, 30, "Generating narrative", logger)
	narrative, err := d.narrator.Generate(ctx, NarrativeRequest{
		CharacterCount: len(job.ImagePaths),
		Theme:          job.Theme,
		Title:          job.Title,
		Descriptions:   job.Descriptions,
	})
	if err != nil {
		d.fail(job.TaskID, err, logger)
		return
	}

	d.advance(job.TaskID, models.StageScripting, 50, "Generating detailed scenes", logger)
	scenes, fallback := d.elaborator.Elaborate(ctx, narrative, d.targetScenes)
	if fallback {
		logger.Warn().Msg("scene elaboration fell back to the base scene list")
	}
	narrative.Scenes = scenes

	d.advance(job.TaskID, models.StageRendering, 70, "Creating video", logger)
	render, err := d.composer.Compose(ctx, transformed, narrative, job.Theme, job.TaskID)
	if err != nil {
		d.fail(job.TaskID, err, logger)
		return
	}

	result := &models.Result{
		ID:         job.TaskID,
		VideoPath:  render.VideoPath,
		VideoURL:   render.VideoURL,
		PreviewURL: render.PreviewURL,
		Narrative:  narrative,
		Theme:      job.Theme,
	}
	if err := d.store.Update(job.TaskID, models.StageCompleted, 100, "Opening generated successfully", result, ""); err != nil {
		d.tolerateNotFound(err, logger)
	}
	logger.Info().Msg("opening generated")
}

// transformAll fans the per-image transform calls out on the worker pool and
// waits for every one to resolve before reporting the first error by input
// position. Output order always matches input order.
func (d *Driver) transformAll(ctx context.Context, job *models.GenerationInput) ([]string, error) {
	transformed := make([]string, len(job.ImagePaths))
	transformErrs := make([]error, len(job.ImagePaths))

	var wg sync.WaitGroup
	for i, path := range job.ImagePaths {
		i, path := i, path
		wg.Add(1)
		if err := d.pool.Submit(func() {
			defer wg.Done()
			transformed[i], transformErrs[i] = d.transformer.Transform(ctx, path, job.Theme)
		}); err != nil {
			transformErrs[i] = fmt.Errorf("failed to schedule transform: %w", err)
			wg.Done()
		}
	}
	wg.Wait()

	for _, err := range transformErrs {
		if err != nil {
			return nil, err
		}
	}
	return transformed, nil
}

// advance records the stage about to start. A missing record means the
// retention sweep evicted this task while it was still running; the driver
// keeps going, its work just becomes unobservable.
func (d *Driver) advance(taskID string, stage models.Stage, progress int, message string, logger zerolog.Logger) {
	if err := d.store.Update(taskID, stage, progress, message, nil, ""); err != nil {
		d.tolerateNotFound(err, logger)
	}
	logger.Info().Str("stage", string(stage)).Int("progress", progress).Msg(message)
}

func (d *Driver) fail(taskID string, cause error, logger zerolog.Logger) {
	message := fmt.Sprintf("Generation failed: %s", cause)
	if err := d.store.Update(taskID, models.StageFailed, 0, message, nil, cause.Error()); err != nil {
		d.tolerateNotFound(err, logger)
	}
	logger.Error().Err(cause).Msg("generation failed")
}

func (d *Driver) tolerateNotFound(err error, logger zerolog.Logger) {
	if errors.Is(err, storage.ErrTaskNotFound) {
		logger.Warn().Msg("task record swept while the pipeline was still running")
		return
	}
	logger.Error().Err(err).Msg("failed to update task status")
}

func (d *Driver) cleanupTaskDir(taskID string, logger zerolog.Logger) {
	taskDir := filepath.Join(d.tempDir, taskID)
	if err := os.RemoveAll(taskDir); err != nil {
		logger.Warn().Err(err).Str("dir", taskDir).Msg("failed to clean up task assets")
	}
}
