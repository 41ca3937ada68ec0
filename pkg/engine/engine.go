// Package engine is the narrative session engine: it resolves scene
// transitions, applies character-stat effects, keeps the append-only
// conversation log consistent, and bridges structured session state
// into free-text dialogue turns.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calebmoss/storyweave/pkg/chat"
	"github.com/calebmoss/storyweave/pkg/session"
	"github.com/calebmoss/storyweave/pkg/story"
)

// FallbackReply stands in for the assistant turn when the dialogue
// generator fails or times out, so the conversation log stays
// append-only and the reader sees a retryable message, not an error.
const FallbackReply = "I'm sorry, I lost my train of thought for a moment. Could you say that again?"

const (
	// DefaultGeneratorTimeout bounds a single dialogue-generation
	// request. Expiry is treated as a recoverable generator failure.
	DefaultGeneratorTimeout = 30 * time.Second

	// DefaultHistoryLimit is the replayed-history window passed to
	// the generator.
	DefaultHistoryLimit = 20

	// maxIdleGap caps the per-mutation play-time accrual so a
	// session left open overnight doesn't count as play time.
	maxIdleGap = 10 * time.Minute
)

// Store is the slice of the session store the engine mutates through.
// Implementations return (nil, nil) for absent sessions.
type Store interface {
	CreateSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	SaveSession(ctx context.Context, s *session.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	GetSessionsForStory(ctx context.Context, storyID string) ([]*session.Session, error)
}

// Dialogue generates character replies from an ordered turn history.
type Dialogue interface {
	GenerateReply(ctx context.Context, messages []chat.Message) (string, error)
}

// Engine drives sessions through the story graph. All mutations for a
// given session id are serialized; operations on different sessions
// proceed in parallel.
type Engine struct {
	catalog  *story.Catalog
	store    Store
	dialogue Dialogue
	logger   *slog.Logger

	// GeneratorTimeout bounds each dialogue-generation call.
	GeneratorTimeout time.Duration
	// HistoryLimit is the replayed-history window size.
	HistoryLimit int

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// New creates a session engine.
func New(catalog *story.Catalog, store Store, dialogue Dialogue, logger *slog.Logger) *Engine {
	return &Engine{
		catalog:          catalog,
		store:            store,
		dialogue:         dialogue,
		logger:           logger,
		GeneratorTimeout: DefaultGeneratorTimeout,
		HistoryLimit:     DefaultHistoryLimit,
	}
}

// lock returns the mutation lock for a session id, creating it on
// first use. Locks are never removed: a reader's session set is small.
func (e *Engine) lock(id uuid.UUID) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CreateSession starts a new playthrough of a story, positioned at the
// story's entry scene with default stats, and persists it immediately.
func (e *Engine) CreateSession(ctx context.Context, storyID string, vars map[string]string) (*session.Session, error) {
	st, ok := e.catalog.Story(storyID)
	if !ok {
		return nil, fmt.Errorf("story %q: %w", storyID, ErrNotFound)
	}

	merged := make(map[string]string, len(st.Variables)+len(vars))
	for k, v := range st.Variables {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}

	s := session.New(st.ID, st.EntrySceneID, session.NewStats(st.DefaultStats), merged)

	// A story may open directly on a terminal scene; unusual, but the
	// completion rule applies from the first scene on.
	if entry, ok := st.Entry(); ok && entry.IsTerminal() {
		s.IsCompleted = true
	}

	if err := e.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	e.logger.Info("Session created", "session_id", s.ID, "story_id", st.ID, "entry_scene", st.EntrySceneID)
	return s, nil
}

// GetSession loads a session snapshot.
func (e *Engine) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if s == nil {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, nil
}

// DeleteSession removes a session. Idempotent.
func (e *Engine) DeleteSession(ctx context.Context, id uuid.UUID) error {
	mu := e.lock(id)
	mu.Lock()
	defer mu.Unlock()

	if err := e.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// SessionsForStory lists all sessions for a story.
func (e *Engine) SessionsForStory(ctx context.Context, storyID string) ([]*session.Session, error) {
	if _, ok := e.catalog.Story(storyID); !ok {
		return nil, fmt.Errorf("story %q: %w", storyID, ErrNotFound)
	}
	sessions, err := e.store.GetSessionsForStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return sessions, nil
}

// loadContext resolves a session together with its story and current
// scene. Callers must hold the session lock if they intend to mutate.
func (e *Engine) loadContext(ctx context.Context, id uuid.UUID) (*session.Session, *story.Story, *story.Scene, error) {
	s, err := e.GetSession(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	st, ok := e.catalog.Story(s.StoryID)
	if !ok {
		return nil, nil, nil, fmt.Errorf("story %q: %w", s.StoryID, ErrNotFound)
	}

	sc, ok := st.Scene(s.CurrentSceneID)
	if !ok {
		return nil, nil, nil, fmt.Errorf("scene %q: %w", s.CurrentSceneID, ErrNotFound)
	}

	return s, st, sc, nil
}

// accruePlayTime adds the gap since the last mutation to the session's
// total play time, capped so idle sessions don't inflate.
func accruePlayTime(s *session.Session) {
	gap := time.Since(s.LastPlayedAt)
	if gap < 0 {
		return
	}
	if gap > maxIdleGap {
		gap = maxIdleGap
	}
	s.TotalPlayTime += gap
}

// moveTo transitions the session to the target scene and applies the
// completion rule for terminal scenes.
func moveTo(s *session.Session, target *story.Scene) {
	s.CurrentSceneID = target.ID
	s.Visit(target.ID)
	if target.IsTerminal() {
		s.IsCompleted = true
	}
}

// persist writes the mutated clone. The caller's original session is
// only replaced by the clone after this succeeds, so a failed write
// leaves no partially-mutated state anywhere.
func (e *Engine) persist(ctx context.Context, s *session.Session) error {
	if err := e.store.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
