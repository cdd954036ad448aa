package router

import "github.com/nexmind-one/nexmind/pkg/models"

// Decision is the routing outcome for one task category.
type Decision struct {
	Category   models.TaskCategory
	Tier       models.ReasoningTier
	Candidates []string
}

type route struct {
	primary string
	tier    models.ReasoningTier
}

// Router maps task categories to a primary model, a reasoning tier, and an
// ordered fallback chain. The table is fixed at construction and never
// mutated, so a Router is safe for concurrent use.
type Router struct {
	routes   map[models.TaskCategory]route
	fallback []string
}

// genericFallbacks is the hand-curated chain of chat-capable models tried
// when a category's primary model fails outright, cheapest-capable first.
var genericFallbacks = []string{"gpt-4o-mini", "gpt-4.1-mini", "gpt-4o"}

// New builds the fixed routing table.
func New() *Router {
	return &Router{
		routes: map[models.TaskCategory]route{
			models.CategoryChat:     {primary: "gpt-4o-mini", tier: models.TierLow},
			models.CategoryCreative: {primary: "gpt-5-mini", tier: models.TierMedium},
			models.CategoryCode:     {primary: "gpt-4.1-mini", tier: models.TierMedium},
			models.CategoryPlanning: {primary: "gpt-5", tier: models.TierHigh},
			models.CategoryAnalysis: {primary: "o4-mini", tier: models.TierHigh},
			models.CategoryImage:    {primary: "gpt-image-1-mini", tier: models.TierLow},
			models.CategoryAudio:    {primary: "gpt-4o-mini-transcribe", tier: models.TierLow},
			models.CategoryFinance:  {primary: "o4-mini", tier: models.TierHigh},
			models.CategoryResearch: {primary: "o3", tier: models.TierHigh},
		},
		fallback: genericFallbacks,
	}
}

// Route returns the decision for a category. Unrecognized categories use the
// chat entry. The candidate chain is the category's primary model followed by
// the generic fallbacks, and is never empty.
func (r *Router) Route(category models.TaskCategory) Decision {
	rt, ok := r.routes[category]
	if !ok {
		category = models.CategoryChat
		rt = r.routes[category]
	}

	candidates := make([]string, 0, len(r.fallback)+1)
	candidates = append(candidates, rt.primary)
	for _, m := range r.fallback {
		if m != rt.primary {
			candidates = append(candidates, m)
		}
	}

	return Decision{Category: category, Tier: rt.tier, Candidates: candidates}
}
