package services

import (
	"context"
	"sync"

	"github.com/calebmoss/storyweave/pkg/chat"
)

// MockDialogue is a mock implementation of DialogueService for testing.
type MockDialogue struct {
	GenerateReplyFunc func(ctx context.Context, messages []chat.Message) (string, error)

	// Calls tracks every GenerateReply invocation.
	Calls [][]chat.Message

	mu sync.Mutex
}

var _ DialogueService = (*MockDialogue)(nil)

// NewMockDialogue creates a new mock dialogue service.
func NewMockDialogue() *MockDialogue {
	return &MockDialogue{
		Calls: make([][]chat.Message, 0),
	}
}

func (m *MockDialogue) GenerateReply(ctx context.Context, messages []chat.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]chat.Message, len(messages))
	copy(recorded, messages)
	m.Calls = append(m.Calls, recorded)

	if m.GenerateReplyFunc != nil {
		return m.GenerateReplyFunc(ctx, messages)
	}
	return "Mock reply", nil
}

// SetError sets up the mock to fail every GenerateReply call.
func (m *MockDialogue) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateReplyFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return "", err
	}
}

// GetCalls returns a copy of the recorded calls.
func (m *MockDialogue) GetCalls() [][]chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([][]chat.Message, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}
