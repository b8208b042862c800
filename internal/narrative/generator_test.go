// internal/narrative/generator_test.go
package narrative

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opening-server/internal/models"
	"opening-server/internal/pipeline"
)

func TestElaboratePassesThroughFullStoryboards(t *testing.T) {
	g := NewGenerator("", "gpt-4o-mini", 2000, zerolog.Nop())

	scenes := make([]models.Scene, 8)
	for i := range scenes {
		scenes[i] = models.Scene{Description: "scene", Timing: "0:00-0:02"}
	}
	narrative := &models.Narrative{Title: "Test", Scenes: scenes}

	// Enough scenes already: no model call is made, so the empty API key
	// never matters.
	got, fallback := g.Elaborate(context.Background(), narrative, 8)
	assert.False(t, fallback)
	assert.Equal(t, scenes, got)
}

func TestNarrativePromptIncludesCharacterDescriptions(t *testing.T) {
	prompt := narrativePrompt("Sky Blade", pipeline.NarrativeRequest{
		CharacterCount: 2,
		Theme:          models.ThemeFantasy,
		Descriptions:   []string{"a stoic swordsman", "a cheerful mage"},
	})

	assert.Contains(t, prompt, `"Sky Blade"`)
	assert.Contains(t, prompt, "Character 1: a stoic swordsman")
	assert.Contains(t, prompt, "Character 2: a cheerful mage")
	assert.Contains(t, prompt, themeDescriptions[models.ThemeFantasy])
}

func TestNarrativePromptFallsBackToCharacterCount(t *testing.T) {
	prompt := narrativePrompt("Untitled", pipeline.NarrativeRequest{
		CharacterCount: 3,
		Theme:          models.ThemeAction,
	})

	assert.Contains(t, prompt, "Include 3 unique anime characters")
}

func TestNarrativePromptUnknownThemeUsesDefaultDescription(t *testing.T) {
	prompt := narrativePrompt("Untitled", pipeline.NarrativeRequest{
		CharacterCount: 1,
		Theme:          "western",
	})

	assert.Contains(t, prompt, themeDescriptions[models.DefaultTheme])
}

func TestElaborationPromptNamesEveryCharacter(t *testing.T) {
	narrative := &models.Narrative{
		Title: "Sky Blade",
		Theme: models.ThemeFantasy,
		Characters: []models.Character{
			{Name: "Ren", Appearance: "silver hair", Pose: "sword raised"},
			{Name: "Mira", Appearance: "red cloak", Pose: "casting a spell"},
		},
		Climax: "The duel at dawn",
	}

	prompt := elaborationPrompt(narrative, 8)
	assert.Contains(t, prompt, "create 8 detailed storyboard scene descriptions")
	for _, char := range narrative.Characters {
		assert.Contains(t, prompt, char.Name)
		assert.Contains(t, prompt, char.Pose)
	}
	assert.Contains(t, prompt, narrative.Climax)
}

func TestCapitalize(t *testing.T) {
	require.Equal(t, "Action", capitalize("action"))
	require.Equal(t, "", capitalize(""))
	assert.True(t, strings.HasPrefix(capitalize("scifi"), "S"))
}
