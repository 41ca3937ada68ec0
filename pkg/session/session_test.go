package session

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s := New("midnight_harbor", "prologue", NewStats(nil), map[string]string{"character_name": "Mara"})

	if s.StoryID != "midnight_harbor" {
		t.Errorf("Expected story id midnight_harbor, got %s", s.StoryID)
	}
	if s.CurrentSceneID != "prologue" {
		t.Errorf("Expected current scene prologue, got %s", s.CurrentSceneID)
	}
	if !s.ScenesVisited["prologue"] {
		t.Error("Entry scene should be marked visited")
	}
	if len(s.Messages) != 0 || len(s.Choices) != 0 {
		t.Error("New session should have empty logs")
	}
	if s.IsCompleted {
		t.Error("New session should not be completed")
	}
	if s.CustomVariables["character_name"] != "Mara" {
		t.Errorf("Expected custom variable to be seeded, got %v", s.CustomVariables)
	}
}

func TestSession_RoundTrip(t *testing.T) {
	s := New("midnight_harbor", "prologue", NewStats(map[string]int{"trust": 40}), map[string]string{"character_name": "Mara"})
	s.AppendChoice("pier_meeting", 0, "Ask her why she missed the ferry.", map[string]int{"trust": 5})
	s.AppendText(SenderUser, "hello there")
	s.AppendText(SenderAssistant, "hello yourself")
	s.AppendImage("mara_lighthouse_photo")
	s.Visit("pier_chat")
	s.CurrentSceneID = "pier_chat"
	s.TotalPlayTime = 3 * time.Minute
	s.IsCompleted = false

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Failed to marshal session: %v", err)
	}

	var restored Session
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal session: %v", err)
	}

	if !reflect.DeepEqual(*s, restored) {
		t.Errorf("Round-trip mismatch.\nOriginal: %+v\nRestored: %+v", *s, restored)
	}

	// Order matters for the append-only logs.
	if restored.Messages[0].Text != "hello there" || restored.Messages[1].Text != "hello yourself" {
		t.Error("Message order not preserved through round-trip")
	}
	if restored.Messages[2].ImageRef != "mara_lighthouse_photo" {
		t.Error("Image message not preserved through round-trip")
	}
}

func TestSession_Clone_IsDeep(t *testing.T) {
	s := New("midnight_harbor", "prologue", NewStats(nil), nil)
	s.AppendText(SenderUser, "original")

	c := s.Clone()
	c.Stats = c.Stats.Apply(map[string]int{"trust": 10})
	c.Visit("somewhere_else")
	c.AppendText(SenderUser, "only on clone")
	c.CustomVariables = map[string]string{"k": "v"}

	if s.Stats["trust"] != StatNeutral {
		t.Errorf("Clone mutation leaked into original stats: %d", s.Stats["trust"])
	}
	if s.ScenesVisited["somewhere_else"] {
		t.Error("Clone mutation leaked into original visited set")
	}
	if len(s.Messages) != 1 {
		t.Errorf("Clone mutation leaked into original messages: %d", len(s.Messages))
	}
}

func TestSession_VisitedSetOnlyGrows(t *testing.T) {
	s := New("midnight_harbor", "prologue", NewStats(nil), nil)

	transitions := []string{"pier_meeting", "pier_chat", "pier_meeting", "walk_together", "prologue"}
	prevSize := len(s.ScenesVisited)
	for _, id := range transitions {
		s.Visit(id)
		if len(s.ScenesVisited) < prevSize {
			t.Fatalf("Visited set shrank after visiting %s", id)
		}
		prevSize = len(s.ScenesVisited)
	}

	for _, id := range append(transitions, "prologue") {
		if !s.ScenesVisited[id] {
			t.Errorf("Visited set lost scene %s", id)
		}
	}
}

func TestSession_Normalize(t *testing.T) {
	var s Session
	if err := json.Unmarshal([]byte(`{"id":"7c9e6679-7425-40de-944b-e07fc1f90ae7","story_id":"old"}`), &s); err != nil {
		t.Fatalf("Failed to unmarshal legacy record: %v", err)
	}
	s.Normalize()

	if s.Messages == nil || s.Choices == nil || s.ScenesVisited == nil {
		t.Error("Normalize should initialize nil collections")
	}
	if s.Stats["trust"] != StatNeutral {
		t.Error("Normalize should default stats for records without them")
	}
}

func TestSession_NormalizeKeepsPersistedStats(t *testing.T) {
	var s Session
	record := `{"id":"7c9e6679-7425-40de-944b-e07fc1f90ae7","story_id":"old","character_stats":{"trust":82,"affection":13}}`
	if err := json.Unmarshal([]byte(record), &s); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}
	s.Normalize()

	// Restored sessions reconstruct stats from the persisted record,
	// never from defaults merged after the fact.
	if s.Stats["trust"] != 82 || s.Stats["affection"] != 13 {
		t.Errorf("Normalize overwrote persisted stats: %v", s.Stats)
	}
	if _, exists := s.Stats["respect"]; exists {
		t.Error("Normalize must not merge default attributes into persisted stats")
	}
}

func TestPatch_Apply(t *testing.T) {
	s := New("midnight_harbor", "prologue", NewStats(nil), nil)

	scene := "pier_chat"
	completed := true
	playTime := 5 * time.Minute
	s.Apply(Patch{
		CurrentSceneID: &scene,
		Stats:          Stats{"trust": 70},
		IsCompleted:    &completed,
		TotalPlayTime:  &playTime,
	})

	if s.CurrentSceneID != "pier_chat" {
		t.Errorf("Expected scene pier_chat, got %s", s.CurrentSceneID)
	}
	if s.Stats["trust"] != 70 || len(s.Stats) != 1 {
		t.Errorf("Stats should be replaced wholesale, got %v", s.Stats)
	}
	if !s.IsCompleted {
		t.Error("Expected IsCompleted true")
	}
	if s.TotalPlayTime != playTime {
		t.Errorf("Expected play time %v, got %v", playTime, s.TotalPlayTime)
	}

	// Nil fields leave values alone.
	s.Apply(Patch{})
	if s.CurrentSceneID != "pier_chat" || !s.IsCompleted {
		t.Error("Empty patch must not change anything")
	}
}
