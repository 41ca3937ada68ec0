package prompts

import (
	"fmt"
	"strings"

	"github.com/calebmoss/storyweave/pkg/chat"
	"github.com/calebmoss/storyweave/pkg/session"
)

const defaultHistoryLimit = 20

// Builder assembles the ordered turn history for the dialogue
// generator using a fluent interface. The system turn is rebuilt on
// every request so it always carries the session's current stats, not
// a snapshot from session creation.
type Builder struct {
	systemPrompt string
	stats        session.Stats
	sess         *session.Session
	userMessage  string
	historyLimit int
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: defaultHistoryLimit,
	}
}

// WithSystemPrompt sets the chat scene's authored character prompt.
func (b *Builder) WithSystemPrompt(p string) *Builder {
	b.systemPrompt = p
	return b
}

// WithStats sets the relationship state rendered into the system turn.
func (b *Builder) WithStats(stats session.Stats) *Builder {
	b.stats = stats
	return b
}

// WithSession sets the session whose persisted message log is replayed
// as conversation history.
func (b *Builder) WithSession(s *session.Session) *Builder {
	b.sess = s
	return b
}

// WithUserMessage sets the reader's current message.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithHistoryLimit sets the replayed history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message array for the generator:
// system turn, windowed history replayed from the persisted log, then
// the current user message.
func (b *Builder) Build() ([]chat.Message, error) {
	if b.systemPrompt == "" {
		return nil, fmt.Errorf("system prompt is required")
	}

	messages := make([]chat.Message, 0, b.historyLimit+2)
	messages = append(messages, chat.Message{
		Role:    chat.RoleSystem,
		Content: b.systemContent(),
	})

	messages = append(messages, b.replayHistory()...)

	if b.userMessage != "" {
		messages = append(messages, chat.Message{
			Role:    chat.RoleUser,
			Content: b.userMessage,
		})
	}

	return messages, nil
}

func (b *Builder) systemContent() string {
	var sb strings.Builder
	sb.WriteString(b.systemPrompt)
	if rendered := RenderStats(b.stats); rendered != "" {
		sb.WriteString("\n\nCurrent relationship state: ")
		sb.WriteString(rendered)
	}
	return sb.String()
}

// replayHistory rebuilds generator turns from the persisted message
// log. Image reveals and system notes have no dialogue role and are
// skipped. The window keeps the most recent turns.
func (b *Builder) replayHistory() []chat.Message {
	if b.sess == nil {
		return nil
	}

	history := make([]chat.Message, 0, len(b.sess.Messages))
	for _, m := range b.sess.Messages {
		if m.Text == "" {
			continue
		}
		var role string
		switch m.Sender {
		case session.SenderUser:
			role = chat.RoleUser
		case session.SenderAssistant:
			role = chat.RoleAssistant
		default:
			continue
		}
		history = append(history, chat.Message{Role: role, Content: m.Text})
	}

	if b.historyLimit > 0 && len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	return history
}
