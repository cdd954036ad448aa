package pricing

import (
	"testing"

	"github.com/nexmind-one/nexmind/pkg/models"
)

func TestEstimateTokens(t *testing.T) {
	tbl := NewTable(0.20, nil)

	est := tbl.Estimate("gpt-4o-mini", models.Usage{
		PromptTokens:     1_000_000,
		CompletionTokens: 1_000_000,
	})

	// (0.075 + 0.30) * 1.2 = 0.45
	if est.TotalCost != "0.450000" {
		t.Errorf("expected 0.450000, got %s", est.TotalCost)
	}
	if est.InputCost != "0.090000" {
		t.Errorf("expected 0.090000 input, got %s", est.InputCost)
	}
	if est.OutputCost != "0.360000" {
		t.Errorf("expected 0.360000 output, got %s", est.OutputCost)
	}
}

func TestEstimateUnknownModelUsesDefaultRow(t *testing.T) {
	tbl := NewTable(0.20, nil)

	est := tbl.Estimate("some-future-model", models.Usage{
		PromptTokens:     1_000_000,
		CompletionTokens: 1_000_000,
	})

	// Default row is the gpt-4o-mini rates.
	if est.TotalCost != "0.450000" {
		t.Errorf("expected default-row estimate 0.450000, got %s", est.TotalCost)
	}
}

func TestEstimateImage(t *testing.T) {
	tbl := NewTable(0.20, nil)

	est := tbl.Estimate("gpt-image-1-mini", models.Usage{ImagesGenerated: 1})

	// 0.01 * 1.2 = 0.012
	if est.TotalCost != "0.012000" {
		t.Errorf("expected 0.012000, got %s", est.TotalCost)
	}
	if est.InputCost != "0.000000" {
		t.Errorf("expected zero input cost, got %s", est.InputCost)
	}
}

func TestEstimateAudio(t *testing.T) {
	tbl := NewTable(0.20, nil)

	est := tbl.Estimate("gpt-4o-mini-transcribe", models.Usage{AudioMinutes: 10})

	// 10 * 0.003 * 1.2 = 0.036
	if est.TotalCost != "0.036000" {
		t.Errorf("expected 0.036000, got %s", est.TotalCost)
	}
}

func TestOverridesMergeOverDefaults(t *testing.T) {
	tbl := NewTable(-1, map[string]models.ModelRate{
		"gpt-4o-mini": {Input: 1.00, Output: 1.00},
	})

	if tbl.Margin() != DefaultMargin {
		t.Errorf("expected default margin for negative input, got %v", tbl.Margin())
	}

	est := tbl.Estimate("gpt-4o-mini", models.Usage{
		PromptTokens:     1_000_000,
		CompletionTokens: 1_000_000,
	})
	// (1 + 1) * 1.2 = 2.4
	if est.TotalCost != "2.400000" {
		t.Errorf("expected 2.400000, got %s", est.TotalCost)
	}

	// Untouched models keep their defaults.
	if r := tbl.Rate("o3"); r.Input != 1.00 || r.Output != 4.00 {
		t.Errorf("unexpected o3 rate: %+v", r)
	}
}

func TestZeroMarginSellsAtCost(t *testing.T) {
	tbl := NewTable(0, nil)

	if tbl.Margin() != 0 {
		t.Fatalf("expected zero margin to be honored, got %v", tbl.Margin())
	}

	est := tbl.Estimate("gpt-4o-mini", models.Usage{
		PromptTokens:     1_000_000,
		CompletionTokens: 1_000_000,
	})
	if est.TotalCost != "0.375000" {
		t.Errorf("expected raw cost 0.375000, got %s", est.TotalCost)
	}
}
