package services

import (
	"context"

	"github.com/calebmoss/storyweave/pkg/chat"
)

// DialogueService generates character replies for chat scenes. The
// engine is the sole caller; it supplies the full ordered turn history
// including the system prompt.
type DialogueService interface {
	GenerateReply(ctx context.Context, messages []chat.Message) (string, error)
}
