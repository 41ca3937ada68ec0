package session

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a message in the session log.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// Message is one entry in the session's append-only conversation log.
// Exactly one of Text or ImageRef is set.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text,omitempty"`
	ImageRef  string    `json:"image_ref,omitempty"`
	Sender    Sender    `json:"sender"`
	SceneID   string    `json:"scene_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ChoiceRecord is one entry in the session's append-only choice log.
type ChoiceRecord struct {
	SceneID     string         `json:"scene_id"`
	ChoiceIndex int            `json:"choice_index"`
	ChoiceText  string         `json:"choice_text"`
	Effects     map[string]int `json:"effects,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Session is the persisted record of one reader's progress through one
// story. The storage layer owns the canonical copy; everything handed
// to callers is a snapshot.
type Session struct {
	ID              uuid.UUID         `json:"id"`
	StoryID         string            `json:"story_id"`
	CurrentSceneID  string            `json:"current_scene_id"`
	ScenesVisited   map[string]bool   `json:"scenes_visited"` // set semantics, order irrelevant
	Choices         []ChoiceRecord    `json:"choices"`
	Messages        []Message         `json:"messages"`
	Stats           Stats             `json:"character_stats"`
	CustomVariables map[string]string `json:"custom_variables,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	LastPlayedAt    time.Time         `json:"last_played_at"`
	TotalPlayTime   time.Duration     `json:"total_play_time"`
	IsCompleted     bool              `json:"is_completed"`
}

// New creates a fresh session positioned at the story's entry scene.
func New(storyID, entrySceneID string, stats Stats, vars map[string]string) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:             uuid.New(),
		StoryID:        storyID,
		CurrentSceneID: entrySceneID,
		ScenesVisited:  map[string]bool{entrySceneID: true},
		Choices:        make([]ChoiceRecord, 0),
		Messages:       make([]Message, 0),
		Stats:          stats,
		CreatedAt:      now,
		LastPlayedAt:   now,
	}
	if len(vars) > 0 {
		s.CustomVariables = make(map[string]string, len(vars))
		for k, v := range vars {
			s.CustomVariables[k] = v
		}
	}
	return s
}

// Clone returns a deep copy. Mutations are applied to a clone and only
// become visible once the storage write succeeds, so a failed persist
// leaves the caller's session untouched.
func (s *Session) Clone() *Session {
	out := *s

	out.ScenesVisited = make(map[string]bool, len(s.ScenesVisited))
	for k, v := range s.ScenesVisited {
		out.ScenesVisited[k] = v
	}

	out.Choices = make([]ChoiceRecord, len(s.Choices))
	copy(out.Choices, s.Choices)
	for i := range out.Choices {
		out.Choices[i].Effects = copyIntMap(out.Choices[i].Effects)
	}

	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)

	out.Stats = make(Stats, len(s.Stats))
	for k, v := range s.Stats {
		out.Stats[k] = v
	}

	if s.CustomVariables != nil {
		out.CustomVariables = make(map[string]string, len(s.CustomVariables))
		for k, v := range s.CustomVariables {
			out.CustomVariables[k] = v
		}
	}

	return &out
}

// Visit adds a scene to the visited set. The set only grows.
func (s *Session) Visit(sceneID string) {
	if s.ScenesVisited == nil {
		s.ScenesVisited = make(map[string]bool)
	}
	s.ScenesVisited[sceneID] = true
}

// AppendChoice records a taken choice in the append-only choice log.
func (s *Session) AppendChoice(sceneID string, index int, text string, effects map[string]int) {
	s.Choices = append(s.Choices, ChoiceRecord{
		SceneID:     sceneID,
		ChoiceIndex: index,
		ChoiceText:  text,
		Effects:     copyIntMap(effects),
		Timestamp:   time.Now().UTC(),
	})
}

// AppendText records a text message in the conversation log.
func (s *Session) AppendText(sender Sender, text string) {
	s.Messages = append(s.Messages, Message{
		ID:        uuid.New(),
		Text:      text,
		Sender:    sender,
		SceneID:   s.CurrentSceneID,
		Timestamp: time.Now().UTC(),
	})
}

// AppendImage records a revealed image in the conversation log.
func (s *Session) AppendImage(imageRef string) {
	s.Messages = append(s.Messages, Message{
		ID:        uuid.New(),
		ImageRef:  imageRef,
		Sender:    SenderAssistant,
		SceneID:   s.CurrentSceneID,
		Timestamp: time.Now().UTC(),
	})
}

// Normalize fills nil collections after unmarshaling a record written
// by an older build. Stats are taken verbatim from the persisted data;
// defaults are only used when the record carries no stats at all.
func (s *Session) Normalize() {
	if s.ScenesVisited == nil {
		s.ScenesVisited = make(map[string]bool)
	}
	if s.Choices == nil {
		s.Choices = make([]ChoiceRecord, 0)
	}
	if s.Messages == nil {
		s.Messages = make([]Message, 0)
	}
	if s.Stats == nil {
		s.Stats = NewStats(nil)
	}
}

func copyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
