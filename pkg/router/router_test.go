package router

import (
	"testing"

	"github.com/nexmind-one/nexmind/pkg/models"
)

func TestRouteTierPolicy(t *testing.T) {
	tiers := map[models.TaskCategory]models.ReasoningTier{
		models.CategoryChat:     models.TierLow,
		models.CategoryCreative: models.TierMedium,
		models.CategoryCode:     models.TierMedium,
		models.CategoryPlanning: models.TierHigh,
		models.CategoryAnalysis: models.TierHigh,
		models.CategoryImage:    models.TierLow,
		models.CategoryAudio:    models.TierLow,
		models.CategoryFinance:  models.TierHigh,
		models.CategoryResearch: models.TierHigh,
	}

	r := New()
	for _, cat := range models.Categories {
		d := r.Route(cat)
		if d.Category != cat {
			t.Errorf("%s: category rewritten to %s", cat, d.Category)
		}
		if len(d.Candidates) == 0 {
			t.Errorf("%s: empty candidate chain", cat)
		}
		if d.Tier != tiers[cat] {
			t.Errorf("%s: expected tier %s, got %s", cat, tiers[cat], d.Tier)
		}
	}
}

func TestRoutePrimaryFirst(t *testing.T) {
	r := New()

	d := r.Route(models.CategoryCode)
	if d.Candidates[0] != "gpt-4.1-mini" {
		t.Errorf("expected gpt-4.1-mini first, got %s", d.Candidates[0])
	}

	// Specialized primary keeps the generic chat-capable chain behind it.
	d = r.Route(models.CategoryImage)
	if d.Candidates[0] != "gpt-image-1-mini" {
		t.Errorf("expected gpt-image-1-mini first, got %s", d.Candidates[0])
	}
	if len(d.Candidates) != 4 {
		t.Errorf("expected 4 candidates, got %d: %v", len(d.Candidates), d.Candidates)
	}
}

func TestRouteDedupesPrimary(t *testing.T) {
	r := New()

	d := r.Route(models.CategoryChat)
	seen := map[string]bool{}
	for _, m := range d.Candidates {
		if seen[m] {
			t.Errorf("duplicate candidate %s in %v", m, d.Candidates)
		}
		seen[m] = true
	}
}

func TestRouteUnknownCategory(t *testing.T) {
	r := New()

	d := r.Route(models.TaskCategory("telepathy"))
	if d.Category != models.CategoryChat {
		t.Errorf("expected chat fallback, got %s", d.Category)
	}
	if d.Candidates[0] != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", d.Candidates[0])
	}
}
