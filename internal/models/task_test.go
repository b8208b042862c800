// internal/models/task_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTheme(t *testing.T) {
	for _, theme := range []string{ThemeAction, ThemeRomance, ThemeFantasy, ThemeSciFi, ThemeComedy} {
		assert.Equal(t, theme, NormalizeTheme(theme))
	}

	// Anything unrecognized coerces to the default rather than erroring.
	assert.Equal(t, DefaultTheme, NormalizeTheme("horror"))
	assert.Equal(t, DefaultTheme, NormalizeTheme("ACTION"))
	assert.Equal(t, DefaultTheme, NormalizeTheme(""))
}

func TestNewTaskInitialState(t *testing.T) {
	task := NewTask("alice")

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "alice", task.Owner)
	assert.Equal(t, StageQueued, task.Stage)
	assert.Zero(t, task.Progress)
	assert.Nil(t, task.Result)
	assert.Empty(t, task.Error)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestStageTerminal(t *testing.T) {
	for _, stage := range []Stage{StageQueued, StageTransforming, StageNarrating, StageScripting, StageRendering} {
		assert.False(t, stage.Terminal(), string(stage))
	}
	assert.True(t, StageCompleted.Terminal())
	assert.True(t, StageFailed.Terminal())
}
