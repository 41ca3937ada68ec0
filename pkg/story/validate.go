package story

import (
	"fmt"
	"strings"
)

// Validate checks the story graph for authoring mistakes: malformed
// scene variants and references to scenes that do not exist. Running
// this at load time means traversal only has to re-check references
// that validation cannot prove (none, for static content).
func (st *Story) Validate() error {
	var problems []string

	if st.ID == "" {
		problems = append(problems, "story id is required")
	}
	if st.Title == "" {
		problems = append(problems, "story title is required")
	}
	if len(st.Scenes) == 0 {
		problems = append(problems, "story has no scenes")
	}

	seen := make(map[string]bool, len(st.Scenes))
	for i := range st.Scenes {
		sc := &st.Scenes[i]
		if sc.ID == "" {
			problems = append(problems, fmt.Sprintf("scene %d has no id", i))
			continue
		}
		if seen[sc.ID] {
			problems = append(problems, fmt.Sprintf("duplicate scene id %q", sc.ID))
		}
		seen[sc.ID] = true
		problems = append(problems, st.validateScene(sc)...)
	}

	if st.EntrySceneID == "" {
		problems = append(problems, "entry_scene_id is required")
	} else if !seen[st.EntrySceneID] {
		problems = append(problems, fmt.Sprintf("entry scene %q does not exist", st.EntrySceneID))
	}

	// Reference checks run after all ids are collected.
	for i := range st.Scenes {
		sc := &st.Scenes[i]
		for _, target := range sceneTargets(sc) {
			if target != "" && !seen[target] {
				problems = append(problems, fmt.Sprintf("scene %q references missing scene %q", sc.ID, target))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("story %q invalid: %s", st.ID, strings.Join(problems, "; "))
	}
	return nil
}

func (st *Story) validateScene(sc *Scene) []string {
	var problems []string

	switch sc.Type {
	case SceneNarrative:
		if len(sc.SceneTriggers) > 0 || len(sc.ImageTriggers) > 0 {
			problems = append(problems, fmt.Sprintf("narrative scene %q cannot have triggers", sc.ID))
		}
		if sc.SystemPrompt != "" {
			problems = append(problems, fmt.Sprintf("narrative scene %q cannot have a system prompt", sc.ID))
		}
		if len(sc.Choices) > 0 && sc.NextSceneID != "" {
			problems = append(problems, fmt.Sprintf("narrative scene %q has both choices and next_scene_id", sc.ID))
		}
		for j, c := range sc.Choices {
			if c.Text == "" {
				problems = append(problems, fmt.Sprintf("scene %q choice %d has no text", sc.ID, j))
			}
		}
	case SceneChat:
		if len(sc.Choices) > 0 || sc.NextSceneID != "" {
			problems = append(problems, fmt.Sprintf("chat scene %q cannot have choices or next_scene_id", sc.ID))
		}
		if sc.SystemPrompt == "" {
			problems = append(problems, fmt.Sprintf("chat scene %q has no system prompt", sc.ID))
		}
		if sc.CharacterName == "" {
			problems = append(problems, fmt.Sprintf("chat scene %q has no character name", sc.ID))
		}
		for j, t := range sc.SceneTriggers {
			if t.Keyword == "" {
				problems = append(problems, fmt.Sprintf("scene %q scene_trigger %d has no keyword", sc.ID, j))
			}
			if t.NextSceneID == "" {
				problems = append(problems, fmt.Sprintf("scene %q scene_trigger %d has no next_scene_id", sc.ID, j))
			}
		}
		for j, t := range sc.ImageTriggers {
			if t.Keyword == "" {
				problems = append(problems, fmt.Sprintf("scene %q image_trigger %d has no keyword", sc.ID, j))
			}
			if len(t.Images) == 0 {
				problems = append(problems, fmt.Sprintf("scene %q image_trigger %d has no images", sc.ID, j))
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("scene %q has unknown type %q", sc.ID, sc.Type))
	}

	return problems
}

// sceneTargets collects every scene id a scene can transition to.
func sceneTargets(sc *Scene) []string {
	var targets []string
	if sc.NextSceneID != "" {
		targets = append(targets, sc.NextSceneID)
	}
	for _, c := range sc.Choices {
		if c.NextSceneID != "" {
			targets = append(targets, c.NextSceneID)
		}
	}
	for _, t := range sc.SceneTriggers {
		targets = append(targets, t.NextSceneID)
	}
	return targets
}
