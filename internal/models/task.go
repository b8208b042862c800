// internal/models/task.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage represents the current step of a generation task's pipeline
type Stage string

const (
	StageQueued       Stage = "queued"
	StageTransforming Stage = "transforming"
	StageNarrating    Stage = "narrating"
	StageScripting    Stage = "scripting"
	StageRendering    Stage = "rendering"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// Terminal reports whether no further transitions can leave this stage.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Task tracks one in-flight or finished generation job.
// The pipeline driver is the only writer of Stage/Progress/Message/Result/Error;
// everything else only reads, so no per-field locking is needed beyond the store's.
type Task struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Stage     Stage     `json:"stage"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTask creates a task in its initial state for the given owner.
func NewTask(owner string) *Task {
	now := time.Now()
	return &Task{
		ID:        uuid.New().String(),
		Owner:     owner,
		Stage:     StageQueued,
		Progress:  0,
		Message:   "Generation started",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Result is the terminal payload of a successfully completed task.
type Result struct {
	ID         string     `json:"id"`
	VideoPath  string     `json:"video_path"`
	VideoURL   string     `json:"video_url"`
	PreviewURL string     `json:"preview_url"`
	Narrative  *Narrative `json:"narrative"`
	Theme      string     `json:"theme"`
}

// GenerationInput is the submitted batch a single pipeline run consumes.
// ImagePaths is ordered; later stages rely on positional correspondence
// between input images and transformed outputs.
type GenerationInput struct {
	TaskID       string   `json:"taskId"`
	Owner        string   `json:"owner"`
	ImagePaths   []string `json:"imagePaths"`
	Theme        string   `json:"theme"`
	Title        string   `json:"title,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
}

// Themes supported by the generator. Anything else is coerced to DefaultTheme.
const (
	ThemeAction  = "action"
	ThemeRomance = "romance"
	ThemeFantasy = "fantasy"
	ThemeSciFi   = "scifi"
	ThemeComedy  = "comedy"

	DefaultTheme = ThemeAction
)

var validThemes = map[string]bool{
	ThemeAction:  true,
	ThemeRomance: true,
	ThemeFantasy: true,
	ThemeSciFi:   true,
	ThemeComedy:  true,
}

// NormalizeTheme coerces unknown themes to the default instead of rejecting them.
func NormalizeTheme(theme string) string {
	if validThemes[theme] {
		return theme
	}
	return DefaultTheme
}
