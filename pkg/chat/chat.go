package chat

import "fmt"

const (
	RoleUser      = "user"      // the reader
	RoleAssistant = "assistant" // the story character
	RoleSystem    = "system"    // persona and state instructions
)

// Message is a single turn in the conversation sent to the dialogue
// generator. The shape matches the chat-completion APIs used by the
// generator backends.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// MessageRequest is the payload for submitting a free-text message
// to an active chat scene.
type MessageRequest struct {
	Text string `json:"text"`
}

func (mr *MessageRequest) Validate() error {
	if mr.Text == "" {
		return fmt.Errorf("text cannot be empty")
	}
	return nil
}

// MessageResponse is returned after a chat turn. Reply is empty when a
// scene trigger ended the conversation instead of producing dialogue.
type MessageResponse struct {
	Reply          string   `json:"reply,omitempty"`
	Images         []string `json:"images,omitempty"`           // image refs revealed by this turn
	SceneChanged   bool     `json:"scene_changed"`              // a scene trigger fired
	CurrentSceneID string   `json:"current_scene_id,omitempty"` // scene after the turn
}
