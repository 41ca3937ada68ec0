package story

// SceneType discriminates the scene union. A scene is either a static
// narrative beat or a free-text chat exchange with a character.
type SceneType string

const (
	SceneNarrative SceneType = "narrative"
	SceneChat      SceneType = "chat"
)

// Choice is an authored option on a narrative scene. Effects are signed
// deltas applied to the session's character stats. A choice without a
// NextSceneID keeps the reader on the current scene (effects still apply).
type Choice struct {
	Text        string         `json:"text"`
	NextSceneID string         `json:"next_scene_id,omitempty"`
	Effects     map[string]int `json:"effects,omitempty"`
}

// ImageTrigger reveals one or more images when the keyword appears in
// reader-submitted text. It does not change the current scene.
type ImageTrigger struct {
	Keyword string   `json:"keyword"`
	Images  []string `json:"images"`
}

// SceneTrigger transitions to another scene when the keyword appears in
// reader-submitted text. Declaration order is significant: the first
// declared trigger that matches wins.
type SceneTrigger struct {
	Keyword     string `json:"keyword"`
	NextSceneID string `json:"next_scene_id"`
}

// Scene is a node in the story graph. The Type field selects which of
// the variant fields are meaningful; Validate enforces the union shape
// at load time.
type Scene struct {
	ID   string    `json:"id"`
	Type SceneType `json:"type"`

	// narrative variant
	Text        string   `json:"text,omitempty"`
	Choices     []Choice `json:"choices,omitempty"`
	NextSceneID string   `json:"next_scene_id,omitempty"`

	// chat variant
	CharacterName string         `json:"character_name,omitempty"`
	SystemPrompt  string         `json:"system_prompt,omitempty"`
	ImageTriggers []ImageTrigger `json:"image_triggers,omitempty"`
	SceneTriggers []SceneTrigger `json:"scene_triggers,omitempty"`
}

// IsChat reports whether the scene is a free-text chat exchange.
func (s *Scene) IsChat() bool {
	return s.Type == SceneChat
}

// IsTerminal reports whether the scene has no outgoing edges. Only
// narrative scenes can be terminal; a chat scene always waits for a
// trigger, even if none is authored.
func (s *Scene) IsTerminal() bool {
	return s.Type == SceneNarrative && len(s.Choices) == 0 && s.NextSceneID == ""
}

// Story is an immutable authored story graph. Scenes keeps declaration
// order; lookup by id goes through the index built at load time.
type Story struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	EntrySceneID string            `json:"entry_scene_id"`
	DefaultStats map[string]int    `json:"default_stats,omitempty"` // per-story stat seeds, merged over engine defaults
	Variables    map[string]string `json:"variables,omitempty"`     // seeds for session custom variables
	Scenes       []Scene           `json:"scenes"`

	index map[string]*Scene
}

// buildIndex populates the scene lookup index. Called once at load.
func (st *Story) buildIndex() {
	st.index = make(map[string]*Scene, len(st.Scenes))
	for i := range st.Scenes {
		st.index[st.Scenes[i].ID] = &st.Scenes[i]
	}
}

// Scene returns the scene with the given id, if present.
func (st *Story) Scene(id string) (*Scene, bool) {
	if st.index == nil {
		st.buildIndex()
	}
	sc, ok := st.index[id]
	return sc, ok
}

// Entry returns the story's designated entry scene.
func (st *Story) Entry() (*Scene, bool) {
	return st.Scene(st.EntrySceneID)
}
