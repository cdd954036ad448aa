package models

// TaskCategory labels what kind of task a user request represents.
type TaskCategory string

const (
	CategoryChat     TaskCategory = "chat"
	CategoryCreative TaskCategory = "creative"
	CategoryCode     TaskCategory = "code"
	CategoryPlanning TaskCategory = "planning"
	CategoryAnalysis TaskCategory = "analysis"
	CategoryImage    TaskCategory = "image"
	CategoryAudio    TaskCategory = "audio"
	CategoryFinance  TaskCategory = "finance"
	CategoryResearch TaskCategory = "research"
)

// Categories lists every valid task category.
var Categories = []TaskCategory{
	CategoryChat,
	CategoryCreative,
	CategoryCode,
	CategoryPlanning,
	CategoryAnalysis,
	CategoryImage,
	CategoryAudio,
	CategoryFinance,
	CategoryResearch,
}

// ParseCategory maps raw classifier output to a TaskCategory.
// Anything outside the closed set maps to chat.
func ParseCategory(s string) TaskCategory {
	switch TaskCategory(s) {
	case CategoryChat, CategoryCreative, CategoryCode, CategoryPlanning,
		CategoryAnalysis, CategoryImage, CategoryAudio, CategoryFinance,
		CategoryResearch:
		return TaskCategory(s)
	default:
		return CategoryChat
	}
}

// ReasoningTier is the effort level requested from the model for a category.
type ReasoningTier string

const (
	TierLow    ReasoningTier = "low"
	TierMedium ReasoningTier = "medium"
	TierHigh   ReasoningTier = "high"
)
