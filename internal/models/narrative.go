// internal/models/narrative.go
package models

// Narrative is the structured script produced for an opening sequence.
type Narrative struct {
	Title       string      `json:"title"`
	Theme       string      `json:"theme"`
	Setting     string      `json:"setting"`
	Characters  []Character `json:"characters"`
	Scenes      []Scene     `json:"scenes"`
	Climax      string      `json:"climax"`
	MusicalMood string      `json:"musical_mood"`
}

// Character describes one featured character and their signature moment.
type Character struct {
	Name       string `json:"name"`
	Appearance string `json:"appearance"`
	Pose       string `json:"pose"`
}

// Scene is a single storyboard beat of the opening.
type Scene struct {
	Description string `json:"description"`
	Visuals     string `json:"visuals"`
	Timing      string `json:"timing"`
}
