package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/nexmind-one/nexmind/pkg/models"
)

// OpenAIClient implements Client against the OpenAI chat completions API.
// SDK-level retries are disabled; retry policy belongs to the executor.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a client for the given API key. baseURL may be
// empty to use the default endpoint.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

// Complete sends a chat completion request and maps upstream failures onto
// the package error taxonomy.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformed)
	}

	return &Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// buildParams translates a CompletionRequest into SDK params. Reasoning
// models get reasoning_effort but no temperature; chat models the reverse.
// Sending either parameter to the wrong family is a hard 400.
func buildParams(req CompletionRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if supportsReasoning(req.Model) {
		switch req.ReasoningEffort {
		case models.TierMedium:
			params.ReasoningEffort = shared.ReasoningEffortMedium
		case models.TierHigh:
			params.ReasoningEffort = shared.ReasoningEffortHigh
		case models.TierLow:
			params.ReasoningEffort = shared.ReasoningEffortLow
		}
	} else if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params
}

// supportsReasoning reports whether a model accepts the reasoning_effort
// parameter and only the default temperature.
func supportsReasoning(model string) bool {
	return strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "o4") ||
		strings.HasPrefix(model, "gpt-5")
}

// classifyError maps an SDK error onto the package taxonomy. Anything not
// recognized stays as-is and is treated as transient by the executor.
func classifyError(err error) error {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return err
	}
	switch apierr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case http.StatusBadRequest, http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	default:
		return err
	}
}
