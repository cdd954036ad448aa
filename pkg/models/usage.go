package models

import "time"

// Usage holds the billable units consumed by one upstream call. Exactly one
// modality is populated: token counts for text, images for generation, or
// minutes for audio.
type Usage struct {
	PromptTokens     int64   `json:"prompt_tokens,omitempty"`
	CompletionTokens int64   `json:"completion_tokens,omitempty"`
	TotalTokens      int64   `json:"total_tokens,omitempty"`
	ImagesGenerated  int64   `json:"images_generated,omitempty"`
	AudioMinutes     float64 `json:"audio_minutes,omitempty"`
}

// UsageRecord tracks one served request for diagnostics and stats.
type UsageRecord struct {
	ID               int64         `json:"id"`
	UserID           string        `json:"user_id"`
	Category         TaskCategory  `json:"category"`
	Model            string        `json:"model"`
	Tier             ReasoningTier `json:"tier"`
	PromptTokens     int64         `json:"prompt_tokens"`
	CompletionTokens int64         `json:"completion_tokens"`
	TotalTokens      int64         `json:"total_tokens"`
	Cost             float64       `json:"cost"`
	Attempts         int           `json:"attempts"`
	LatencyMs        int64         `json:"latency_ms"`
	CreatedAt        time.Time     `json:"created_at"`
}

// UsageSummary aggregates served requests per user and model.
type UsageSummary struct {
	UserID          string  `json:"user_id"`
	Model           string  `json:"model"`
	RequestCount    int64   `json:"request_count"`
	TotalPrompt     int64   `json:"total_prompt"`
	TotalCompletion int64   `json:"total_completion"`
	TotalTokens     int64   `json:"total_tokens"`
	TotalCost       float64 `json:"total_cost"`
}
