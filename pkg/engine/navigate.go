package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/calebmoss/storyweave/pkg/session"
	"github.com/calebmoss/storyweave/pkg/story"
)

// ApplyChoice applies the chosen option of the current narrative
// scene: stat effects, a choice-log entry, and the transition to the
// choice's target scene. The mutation is all-or-nothing: any failure
// leaves the stored session exactly as it was.
func (e *Engine) ApplyChoice(ctx context.Context, id uuid.UUID, choiceIndex int) (*session.Session, error) {
	mu := e.lock(id)
	mu.Lock()
	defer mu.Unlock()

	s, st, sc, err := e.loadContext(ctx, id)
	if err != nil {
		return nil, err
	}

	if sc.IsChat() {
		return nil, fmt.Errorf("scene %q is a chat scene: %w", sc.ID, ErrInvalidChoice)
	}
	if choiceIndex < 0 || choiceIndex >= len(sc.Choices) {
		return nil, fmt.Errorf("choice index %d out of range for scene %q (%d choices): %w",
			choiceIndex, sc.ID, len(sc.Choices), ErrInvalidChoice)
	}

	choice := sc.Choices[choiceIndex]

	// Resolve the target before mutating anything.
	var target *story.Scene
	if choice.NextSceneID != "" {
		var ok bool
		target, ok = st.Scene(choice.NextSceneID)
		if !ok {
			return nil, fmt.Errorf("choice %d of scene %q targets scene %q: %w",
				choiceIndex, sc.ID, choice.NextSceneID, ErrDanglingReference)
		}
	}

	next := s.Clone()
	accruePlayTime(next)
	next.Stats = next.Stats.Apply(choice.Effects)
	next.AppendChoice(sc.ID, choiceIndex, choice.Text, choice.Effects)
	if target != nil {
		moveTo(next, target)
	}

	if err := e.persist(ctx, next); err != nil {
		return nil, err
	}

	e.logger.Debug("Choice applied",
		"session_id", s.ID,
		"scene_id", sc.ID,
		"choice_index", choiceIndex,
		"next_scene", next.CurrentSceneID)
	return next, nil
}

// Continue performs the implicit, effect-free transition of a
// narrative scene that has a next scene instead of choices.
func (e *Engine) Continue(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	mu := e.lock(id)
	mu.Lock()
	defer mu.Unlock()

	s, st, sc, err := e.loadContext(ctx, id)
	if err != nil {
		return nil, err
	}

	if sc.IsChat() {
		return nil, fmt.Errorf("scene %q is a chat scene: %w", sc.ID, ErrInvalidChoice)
	}
	if len(sc.Choices) > 0 {
		return nil, fmt.Errorf("scene %q requires a choice: %w", sc.ID, ErrInvalidChoice)
	}
	if sc.NextSceneID == "" {
		return nil, fmt.Errorf("scene %q is terminal: %w", sc.ID, ErrInvalidChoice)
	}

	target, ok := st.Scene(sc.NextSceneID)
	if !ok {
		return nil, fmt.Errorf("scene %q targets scene %q: %w", sc.ID, sc.NextSceneID, ErrDanglingReference)
	}

	next := s.Clone()
	accruePlayTime(next)
	moveTo(next, target)

	if err := e.persist(ctx, next); err != nil {
		return nil, err
	}

	e.logger.Debug("Continue applied", "session_id", s.ID, "from", sc.ID, "to", target.ID)
	return next, nil
}
