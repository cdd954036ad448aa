package intent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nexmind-one/nexmind/pkg/llm"
	"github.com/nexmind-one/nexmind/pkg/models"
)

const classifyPrompt = `Classify the intent of this user request: %q.
Respond with only one of these categories:
[chat, creative, code, planning, analysis, image, audio, finance, research].`

// Classifier maps free-text user input to a task category via a single
// lightweight model call. Classification failure is never an error: any
// upstream failure or out-of-set answer degrades to the chat category, so a
// broken classifier can never block serving a request.
type Classifier struct {
	client llm.Client
	model  string
	cache  *Cache
}

// New creates a Classifier. cache may be nil to disable memoization.
func New(client llm.Client, model string, cache *Cache) *Classifier {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Classifier{client: client, model: model, cache: cache}
}

// Classify returns the task category for the given input.
func (c *Classifier) Classify(ctx context.Context, text string) models.TaskCategory {
	if c.cache != nil {
		if cat, ok := c.cache.Get(text); ok {
			return cat
		}
	}

	comp, err := c.client.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []models.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(classifyPrompt, text)},
		},
	})
	if err != nil {
		log.Printf("intent classification failed, defaulting to chat: %v", err)
		return models.CategoryChat
	}

	raw := strings.ToLower(strings.TrimSpace(comp.Text))
	// Verbose answers like "this looks like an image request" still count.
	if strings.Contains(raw, "image") {
		raw = string(models.CategoryImage)
	}
	cat := models.ParseCategory(raw)

	if c.cache != nil {
		if err := c.cache.Put(text, cat); err != nil {
			log.Printf("intent cache put: %v", err)
		}
	}
	return cat
}
