package pricing

import "github.com/nexmind-one/nexmind/pkg/models"

// DefaultMargin is the fractional markup applied to raw per-unit cost.
const DefaultMargin = 0.20

// Table is the immutable rate card. Build it once at startup and pass it to
// the components that need it; it is never mutated afterwards.
type Table struct {
	margin   float64
	rates    map[string]models.ModelRate
	fallback models.ModelRate
}

// DefaultRates returns the embedded rate card, in currency per million tokens
// (or per image / per audio minute for those modalities).
func DefaultRates() map[string]models.ModelRate {
	return map[string]models.ModelRate{
		// GPT-5 family
		"gpt-5":      {Input: 0.625, Output: 5.00},
		"gpt-5-mini": {Input: 0.125, Output: 1.00},
		"gpt-5-nano": {Input: 0.025, Output: 0.20},
		"gpt-5-pro":  {Input: 7.50, Output: 60.00},

		// GPT-4.1 / 4o family
		"gpt-4.1":      {Input: 1.00, Output: 4.00},
		"gpt-4.1-mini": {Input: 0.20, Output: 0.80},
		"gpt-4.1-nano": {Input: 0.05, Output: 0.20},
		"gpt-4o":       {Input: 1.25, Output: 5.00},
		"gpt-4o-mini":  {Input: 0.075, Output: 0.30},

		// GPT-3.5 legacy
		"gpt-3.5-turbo":      {Input: 0.25, Output: 0.75},
		"gpt-3.5-turbo-0125": {Input: 0.25, Output: 0.75},

		// o-series
		"o1":      {Input: 7.50, Output: 30.00},
		"o1-pro":  {Input: 75.00, Output: 300.00},
		"o3":      {Input: 1.00, Output: 4.00},
		"o3-pro":  {Input: 10.00, Output: 40.00},
		"o4-mini": {Input: 0.55, Output: 2.20},

		// Image generation
		"gpt-image-1":      {PerImage: 0.04},
		"gpt-image-1-mini": {PerImage: 0.01},

		// Audio
		"gpt-4o-mini-tts":        {PerAudioMinute: 0.015},
		"gpt-4o-mini-transcribe": {PerAudioMinute: 0.003},
	}
}

// NewTable builds a rate card with the given margin and per-model overrides
// merged over the embedded defaults. Zero margin means sell at cost; a
// negative margin selects DefaultMargin.
func NewTable(margin float64, overrides map[string]models.ModelRate) *Table {
	if margin < 0 {
		margin = DefaultMargin
	}
	rates := DefaultRates()
	for model, rate := range overrides {
		rates[model] = rate
	}
	return &Table{
		margin:   margin,
		rates:    rates,
		fallback: rates["gpt-4o-mini"],
	}
}

// Rate returns the rate row for a model. Unknown models get the default row;
// cost visibility is a convenience, not a correctness path.
func (t *Table) Rate(model string) models.ModelRate {
	if r, ok := t.rates[model]; ok {
		return r
	}
	return t.fallback
}

// Margin returns the configured profit margin fraction.
func (t *Table) Margin() float64 {
	return t.margin
}
