package pricing

import (
	"strconv"

	"github.com/nexmind-one/nexmind/pkg/models"
)

// costPrecision is the number of decimal places in displayed amounts.
const costPrecision = 6

// CostEstimate is the margin-adjusted monetary estimate for one request.
// Amounts are fixed-precision decimal strings for display stability.
type CostEstimate struct {
	Model      string `json:"model"`
	InputCost  string `json:"input_cost"`
	OutputCost string `json:"output_cost"`
	TotalCost  string `json:"total_cost"`
}

// Estimate computes the billed cost of the given usage. Token usage is priced
// per million tokens; image and audio usage use the flat per-unit rates.
// Rounding happens once here, at the display boundary.
func (t *Table) Estimate(model string, u models.Usage) CostEstimate {
	r := t.Rate(model)
	mult := 1 + t.margin

	var in, out float64
	switch {
	case u.ImagesGenerated > 0:
		out = float64(u.ImagesGenerated) * r.PerImage * mult
	case u.AudioMinutes > 0:
		out = u.AudioMinutes * r.PerAudioMinute * mult
	default:
		in = float64(u.PromptTokens) / 1e6 * r.Input * mult
		out = float64(u.CompletionTokens) / 1e6 * r.Output * mult
	}

	return CostEstimate{
		Model:      model,
		InputCost:  formatCost(in),
		OutputCost: formatCost(out),
		TotalCost:  formatCost(in + out),
	}
}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', costPrecision, 64)
}
