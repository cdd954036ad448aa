package models

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelRate is the per-unit price card for a single model, in currency per
// million tokens for text models, or per unit for image/audio models.
// A model defines only the rates relevant to its modality.
type ModelRate struct {
	Input          float64 `json:"input,omitempty" yaml:"input,omitempty"`
	Output         float64 `json:"output,omitempty" yaml:"output,omitempty"`
	PerImage       float64 `json:"per_image,omitempty" yaml:"per_image,omitempty"`
	PerAudioMinute float64 `json:"per_audio_minute,omitempty" yaml:"per_audio_minute,omitempty"`
}
