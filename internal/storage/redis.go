package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/calebmoss/storyweave/pkg/session"
)

// RedisStorage implements Storage on a Redis key-value substrate.
// Each session is one JSON blob under session:<uuid>; a per-story set
// under sessions:story:<storyID> indexes sessions for listing.
// Sessions never expire: deletion is an explicit reader action.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance.
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisStorage{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

// NewRedisStorageFromClient wraps an existing client. Used by tests
// backed by miniredis.
func NewRedisStorageFromClient(client *redis.Client, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{client: client, logger: logger}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func storyIndexKey(storyID string) string {
	return "sessions:story:" + storyID
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available during startup.
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) CreateSession(ctx context.Context, s *session.Session) error {
	if err := r.writeSession(ctx, s); err != nil {
		return err
	}

	if err := r.client.SAdd(ctx, storyIndexKey(s.StoryID), s.ID.String()).Err(); err != nil {
		r.logger.Error("Failed to index session by story", "session_id", s.ID, "story_id", s.StoryID, "error", err)
		return fmt.Errorf("failed to index session: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // not found
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	s.Normalize()

	return &s, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, s *session.Session) error {
	return r.writeSession(ctx, s)
}

func (r *RedisStorage) UpdateSession(ctx context.Context, id uuid.UUID, p session.Patch) (*session.Session, error) {
	s, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	s.Apply(p)
	if err := r.writeSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	// Read the record first to clean up the story index. A missing
	// record still gets the DEL so delete stays idempotent.
	s, err := r.GetSession(ctx, id)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if s != nil {
		if err := r.client.SRem(ctx, storyIndexKey(s.StoryID), id.String()).Err(); err != nil {
			r.logger.Error("Failed to unindex session", "session_id", id, "story_id", s.StoryID, "error", err)
			return fmt.Errorf("failed to unindex session: %w", err)
		}
	}
	return nil
}

func (r *RedisStorage) GetSessionsForStory(ctx context.Context, storyID string) ([]*session.Session, error) {
	ids, err := r.client.SMembers(ctx, storyIndexKey(storyID)).Result()
	if err != nil {
		r.logger.Error("Failed to list sessions for story", "story_id", storyID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*session.Session, 0, len(ids))
	for _, idStr := range ids {
		id, err := uuid.Parse(idStr)
		if err != nil {
			r.logger.Warn("Skipping malformed session id in story index", "story_id", storyID, "id", idStr)
			continue
		}
		s, err := r.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			// Index entry outlived the record; drop it.
			r.logger.Warn("Pruning stale session index entry", "story_id", storyID, "session_id", id)
			_ = r.client.SRem(ctx, storyIndexKey(storyID), idStr).Err()
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *RedisStorage) writeSession(ctx context.Context, s *session.Session) error {
	s.LastPlayedAt = time.Now().UTC()

	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
