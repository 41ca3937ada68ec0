package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/calebmoss/storyweave/pkg/session"
)

// Storage is the durable record of reader sessions. Implementations
// return (nil, nil) for sessions that do not exist, so callers can
// degrade to a not-found UI path without error inspection.
//
// Concurrent mutations for the same session id are read-modify-write
// over a single serialized blob, not field-level atomic operations;
// the engine serializes them with a per-session lock.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	// CreateSession persists a fresh session and indexes it by story.
	CreateSession(ctx context.Context, s *session.Session) error

	// GetSession loads the last-persisted snapshot.
	GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error)

	// SaveSession overwrites the stored session wholesale and
	// recomputes LastPlayedAt.
	SaveSession(ctx context.Context, s *session.Session) error

	// UpdateSession applies a shallow patch to the stored session.
	UpdateSession(ctx context.Context, id uuid.UUID, p session.Patch) (*session.Session, error)

	// DeleteSession removes the session; deleting an absent session
	// is not an error.
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// GetSessionsForStory returns all sessions for a story.
	GetSessionsForStory(ctx context.Context, storyID string) ([]*session.Session, error)
}
