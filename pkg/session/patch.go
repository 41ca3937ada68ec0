package session

import "time"

// Patch is a shallow partial update of a session's top-level fields.
// Nil fields are left alone; slice and map fields replace the stored
// value wholesale. The store never merges inside arrays, callers
// supply the full updated sequence.
type Patch struct {
	CurrentSceneID  *string
	ScenesVisited   map[string]bool
	Choices         []ChoiceRecord
	Messages        []Message
	Stats           Stats
	CustomVariables map[string]string
	TotalPlayTime   *time.Duration
	IsCompleted     *bool
}

// Apply merges the patch into the session.
func (s *Session) Apply(p Patch) {
	if p.CurrentSceneID != nil {
		s.CurrentSceneID = *p.CurrentSceneID
	}
	if p.ScenesVisited != nil {
		s.ScenesVisited = p.ScenesVisited
	}
	if p.Choices != nil {
		s.Choices = p.Choices
	}
	if p.Messages != nil {
		s.Messages = p.Messages
	}
	if p.Stats != nil {
		s.Stats = p.Stats
	}
	if p.CustomVariables != nil {
		s.CustomVariables = p.CustomVariables
	}
	if p.TotalPlayTime != nil {
		s.TotalPlayTime = *p.TotalPlayTime
	}
	if p.IsCompleted != nil {
		s.IsCompleted = *p.IsCompleted
	}
}
