package llm

import (
	"context"

	"github.com/nexmind-one/nexmind/pkg/models"
)

// CompletionRequest describes one upstream completion call.
type CompletionRequest struct {
	Model           string
	Messages        []models.ChatMessage
	Temperature     float64
	MaxTokens       int
	ReasoningEffort models.ReasoningTier
}

// Completion is the text and usage returned by the upstream service.
type Completion struct {
	Text  string
	Usage models.Usage
}

// Client is the upstream AI completion service. Implementations must return
// the sentinel errors from this package for the failure classes the executor
// distinguishes; any other error is treated as transient.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
