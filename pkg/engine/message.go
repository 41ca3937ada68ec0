package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/calebmoss/storyweave/pkg/prompts"
	"github.com/calebmoss/storyweave/pkg/session"
	"github.com/calebmoss/storyweave/pkg/textmatch"
)

// MessageResult is the outcome of one free-text chat turn.
type MessageResult struct {
	Session *session.Session
	// Reply is the assistant turn. Empty when a scene trigger fired
	// instead of a dialogue exchange.
	Reply string
	// Images are the image refs revealed by this turn.
	Images []string
	// SceneChanged reports whether a scene trigger transitioned the
	// session.
	SceneChanged bool
}

// SubmitMessage handles a reader message on the current chat scene.
//
// The submitted text is scanned against the scene's triggers first:
// a scene-trigger match transitions the session instead of producing
// dialogue, an image-trigger match reveals images alongside whichever
// path is taken. Otherwise the turn history is rebuilt from the
// persisted log (the system turn always carries current stats) and
// handed to the dialogue generator. Generator failure is absorbed: the
// reader's message is already recorded and the assistant turn becomes
// FallbackReply.
func (e *Engine) SubmitMessage(ctx context.Context, id uuid.UUID, text string) (*MessageResult, error) {
	mu := e.lock(id)
	mu.Lock()
	defer mu.Unlock()

	s, st, sc, err := e.loadContext(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sc.IsChat() {
		return nil, fmt.Errorf("scene %q is not a chat scene: %w", sc.ID, ErrInvalidChoice)
	}

	match := textmatch.Match(text, sc.SceneTriggers, sc.ImageTriggers)

	// A matched scene trigger must resolve before anything mutates.
	if match.Scene != nil {
		target, ok := st.Scene(match.Scene.NextSceneID)
		if !ok {
			return nil, fmt.Errorf("trigger %q of scene %q targets scene %q: %w",
				match.Scene.Keyword, sc.ID, match.Scene.NextSceneID, ErrDanglingReference)
		}

		next := s.Clone()
		accruePlayTime(next)
		next.AppendText(session.SenderUser, text)
		result := &MessageResult{SceneChanged: true}
		if match.Image != nil {
			for _, ref := range match.Image.Images {
				next.AppendImage(ref)
				result.Images = append(result.Images, ref)
			}
		}
		moveTo(next, target)

		if err := e.persist(ctx, next); err != nil {
			return nil, err
		}

		e.logger.Debug("Scene trigger fired",
			"session_id", s.ID,
			"keyword", match.Scene.Keyword,
			"from", sc.ID,
			"to", target.ID)
		result.Session = next
		return result, nil
	}

	// Record the reader's message before calling the generator, so it
	// survives a generator failure.
	next := s.Clone()
	accruePlayTime(next)
	next.AppendText(session.SenderUser, text)
	if err := e.persist(ctx, next); err != nil {
		return nil, err
	}

	reply := e.generateReply(ctx, sc.SystemPrompt, next, text)

	// The reader may have navigated away while the generator ran. A
	// reply arriving after cancellation belongs to a stale history and
	// is discarded, not appended.
	if ctx.Err() != nil {
		e.logger.Info("Discarding dialogue reply for cancelled request", "session_id", s.ID)
		return nil, fmt.Errorf("dialogue request abandoned: %w", ctx.Err())
	}

	withReply := next.Clone()
	withReply.AppendText(session.SenderAssistant, reply)
	result := &MessageResult{Reply: reply}
	if match.Image != nil {
		for _, ref := range match.Image.Images {
			withReply.AppendImage(ref)
			result.Images = append(result.Images, ref)
		}
	}

	if err := e.persist(ctx, withReply); err != nil {
		return nil, err
	}

	result.Session = withReply
	return result, nil
}

// generateReply builds the turn history and calls the generator. All
// failures collapse to FallbackReply; they are logged, never surfaced.
// The session passed in already contains the reader's message, so the
// history is replayed without it and the message is appended as the
// current user turn.
func (e *Engine) generateReply(ctx context.Context, systemPrompt string, s *session.Session, userText string) string {
	replayed := s.Clone()
	replayed.Messages = replayed.Messages[:len(replayed.Messages)-1]

	history, err := prompts.New().
		WithSystemPrompt(systemPrompt).
		WithStats(s.Stats).
		WithSession(replayed).
		WithUserMessage(userText).
		WithHistoryLimit(e.HistoryLimit).
		Build()
	if err != nil {
		e.logger.Error("Failed to build dialogue prompt", "session_id", s.ID, "error", err)
		return FallbackReply
	}

	genCtx, cancel := context.WithTimeout(ctx, e.GeneratorTimeout)
	defer cancel()

	reply, err := e.dialogue.GenerateReply(genCtx, history)
	if err != nil {
		e.logger.Error("Dialogue generation failed", "session_id", s.ID, "error", err)
		return FallbackReply
	}
	if reply == "" {
		e.logger.Warn("Dialogue generator returned empty reply", "session_id", s.ID)
		return FallbackReply
	}
	return reply
}
