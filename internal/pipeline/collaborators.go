// internal/pipeline/collaborators.go
package pipeline

import (
	"context"

	"opening-server/internal/models"
)

// NarrativeRequest parameterizes narrative generation for one opening.
type NarrativeRequest struct {
	CharacterCount int
	Theme          string
	Title          string
	Descriptions   []string
}

// RenderResult locates the composed artifact.
type RenderResult struct {
	VideoPath  string
	VideoURL   string
	PreviewURL string
}

// ImageTransformer converts one input image to the themed style. Batch calls
// are issued concurrently by the driver; each call must be independent.
type ImageTransformer interface {
	Transform(ctx context.Context, imagePath, theme string) (string, error)
}

// NarrativeGenerator produces the structured opening narrative.
type NarrativeGenerator interface {
	Generate(ctx context.Context, req NarrativeRequest) (*models.Narrative, error)
}

// SceneElaborator expands a narrative's scene list up to targetScenes. It
// never fails: on any internal error it returns the input scenes unchanged
// with fallback=true, so callers can tell degraded output from real success.
type SceneElaborator interface {
	Elaborate(ctx context.Context, narrative *models.Narrative, targetScenes int) (scenes []models.Scene, fallback bool)
}

// VideoComposer renders the final opening from the transformed images, in
// their original input order, and the finalized narrative.
type VideoComposer interface {
	Compose(ctx context.Context, imagePaths []string, narrative *models.Narrative, theme, taskID string) (*RenderResult, error)
}
