package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calebmoss/storyweave/pkg/session"
)

// MockStorage is an in-memory implementation of Storage for testing.
// Sessions are deep-copied on the way in and out so tests observe the
// same snapshot semantics as the Redis implementation.
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session.Session
	pingError error
	saveError error
	getError  error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*session.Session),
	}
}

// SetPingError configures the mock to fail on ping.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on create/save/update.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetGetError configures the mock to fail on reads.
func (m *MockStorage) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) CreateSession(ctx context.Context, s *session.Session) error {
	return m.SaveSession(ctx, s)
}

func (m *MockStorage) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getError != nil {
		return nil, m.getError
	}
	s, exists := m.sessions[id]
	if !exists {
		return nil, nil // not found
	}
	return s.Clone(), nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	s.LastPlayedAt = time.Now().UTC()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MockStorage) UpdateSession(ctx context.Context, id uuid.UUID, p session.Patch) (*session.Session, error) {
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	s.Apply(p)
	if err := m.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) GetSessionsForStory(ctx context.Context, storyID string) ([]*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getError != nil {
		return nil, m.getError
	}
	sessions := make([]*session.Session, 0)
	for _, s := range m.sessions {
		if s.StoryID == storyID {
			sessions = append(sessions, s.Clone())
		}
	}
	return sessions, nil
}
