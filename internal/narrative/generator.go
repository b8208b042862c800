// internal/narrative/generator.go
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"opening-server/internal/models"
	"opening-server/internal/pipeline"
)

const systemPrompt = "You are an expert anime screenwriter specializing in creating iconic opening sequences."

var themeDescriptions = map[string]string{
	models.ThemeAction:  "epic battle scenes with powerful poses and dramatic confrontations",
	models.ThemeRomance: "emotional moments with cherry blossoms and nostalgic scenery",
	models.ThemeFantasy: "magical environments with mystical creatures and spell casting",
	models.ThemeSciFi:   "futuristic cityscapes with neon lights and advanced technology",
	models.ThemeComedy:  "exaggerated expressions and funny slice-of-life situations",
}

// Generator produces opening narratives with an OpenAI chat model. It serves
// both the narrating stage (Generate) and the scripting stage (Elaborate).
type Generator struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    zerolog.Logger
}

func NewGenerator(apiKey, model string, maxTokens int, logger zerolog.Logger) *Generator {
	return &Generator{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Generate asks the model for a complete narrative in JSON form.
func (g *Generator) Generate(ctx context.Context, req pipeline.NarrativeRequest) (*models.Narrative, error) {
	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Untitled %s Anime", capitalize(req.Theme))
	}

	content, err := g.complete(ctx, narrativePrompt(title, req))
	if err != nil {
		return nil, fmt.Errorf("narrative: %w", err)
	}

	var narrative models.Narrative
	if err := json.Unmarshal([]byte(content), &narrative); err != nil {
		return nil, fmt.Errorf("narrative: failed to parse model output: %w", err)
	}
	if narrative.Title == "" {
		narrative.Title = title
	}
	if narrative.Theme == "" {
		narrative.Theme = req.Theme
	}

	return &narrative, nil
}

// Elaborate expands the scene list to targetScenes detailed scenes. It never
// fails: a narrative that already has enough scenes passes through untouched,
// and any model or parse error falls back to the input scenes with
// fallback=true.
func (g *Generator) Elaborate(ctx context.Context, narrative *models.Narrative, targetScenes int) ([]models.Scene, bool) {
	if len(narrative.Scenes) >= targetScenes {
		return narrative.Scenes, false
	}

	content, err := g.complete(ctx, elaborationPrompt(narrative, targetScenes))
	if err != nil {
		g.logger.Warn().Err(err).Msg("scene elaboration failed, keeping base scenes")
		return narrative.Scenes, true
	}

	var parsed struct {
		Scenes []models.Scene `json:"scenes"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || len(parsed.Scenes) == 0 {
		g.logger.Warn().Err(err).Msg("scene elaboration returned no usable scenes, keeping base scenes")
		return narrative.Scenes, true
	}

	return parsed.Scenes, false
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func narrativePrompt(title string, req pipeline.NarrativeRequest) string {
	themeDesc := themeDescriptions[req.Theme]
	if themeDesc == "" {
		themeDesc = themeDescriptions[models.DefaultTheme]
	}

	var characterInfo strings.Builder
	if len(req.Descriptions) > 0 {
		for i, desc := range req.Descriptions {
			fmt.Fprintf(&characterInfo, "Character %d: %s\n", i+1, desc)
		}
	} else {
		fmt.Fprintf(&characterInfo, "Include %d unique anime characters with distinct personalities and appearances.", req.CharacterCount)
	}

	return fmt.Sprintf(`Create a detailed narrative script for an anime opening titled %q.

The opening should be in the style of %s anime featuring %s.

%s

Please structure your response in JSON format with the following sections:
1. "title": The anime title
2. "theme": The anime theme/genre
3. "setting": A brief description of the world/setting
4. "characters": An array of character descriptions, each with "name", "appearance", and "pose" fields
5. "scenes": An array of scene descriptions (5-7 scenes) for the opening sequence, each with:
   - "description": What happens in the scene
   - "visuals": Special visual effects or techniques
   - "timing": Approximate timing in the opening (e.g. "0:05-0:10")
6. "climax": The final dramatic moment of the opening
7. "musical_mood": Description of the music style and mood that would fit this opening

Make it dramatic, visually interesting, and fitting for a %s anime opening sequence.
Ensure each character gets a memorable moment in the opening.`,
		title, req.Theme, themeDesc, characterInfo.String(), req.Theme)
}

func elaborationPrompt(narrative *models.Narrative, targetScenes int) string {
	var characterInfo strings.Builder
	for _, char := range narrative.Characters {
		fmt.Fprintf(&characterInfo, "- %s: %s. Signature pose: %s\n", char.Name, char.Appearance, char.Pose)
	}

	return fmt.Sprintf(`Based on the anime opening concept for %q with %s theme, create %d detailed storyboard scene descriptions.

Setting: %s

Characters:
%s
Climax: %s

Respond in JSON format as {"scenes": [...]} where each scene has "description", "visuals" and "timing" fields covering:
1. Detailed visual description
2. Camera movements and angles
3. Character actions and expressions
4. Special effects and animation style
5. Timing in the opening sequence`,
		narrative.Title, narrative.Theme, targetScenes, narrative.Setting, characterInfo.String(), narrative.Climax)
}
