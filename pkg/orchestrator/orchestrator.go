package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nexmind-one/nexmind/pkg/executor"
	"github.com/nexmind-one/nexmind/pkg/intent"
	"github.com/nexmind-one/nexmind/pkg/ledger"
	"github.com/nexmind-one/nexmind/pkg/models"
	"github.com/nexmind-one/nexmind/pkg/pricing"
	"github.com/nexmind-one/nexmind/pkg/router"
	"github.com/nexmind-one/nexmind/pkg/usage"
)

const systemPrompt = "You are NexMind.One — the Oracle of Insight. A sharp, adaptive AI assistant."

// tonePrompts adjust the assistant's register per request. The auto tone adds
// nothing and lets the model pick.
var tonePrompts = map[string]string{
	"auto":        "",
	"humorous":    "Respond with wit and playful humor.",
	"supportive":  "Respond warmly and encouragingly.",
	"creative":    "Respond with imaginative flair and vivid language.",
	"informative": "Respond precisely and factually, citing reasoning where helpful.",
	"neutral":     "Respond in a plain, even tone.",
}

// Result is the full outcome of one orchestrated request.
type Result struct {
	Response         string               `json:"response"`
	Model            string               `json:"model"`
	Category         models.TaskCategory  `json:"category"`
	ReasoningTier    models.ReasoningTier `json:"reasoning_tier"`
	TokensUsed       int64                `json:"tokens_used"`
	EstimatedCost    string               `json:"estimated_cost"`
	BalanceRemaining int64                `json:"balance_remaining"`
}

// Orchestrator wires classification, routing, metering, and resilient
// execution into the single request pipeline.
type Orchestrator struct {
	classifier    *intent.Classifier
	router        *router.Router
	executor      *executor.Executor
	pricing       *pricing.Table
	ledger        ledger.Store
	usage         usage.Tracker
	tokensPerUnit float64
}

// New creates an Orchestrator. usage may be nil to disable request recording.
func New(classifier *intent.Classifier, rt *router.Router, exec *executor.Executor, table *pricing.Table, store ledger.Store, tracker usage.Tracker, tokensPerUnit float64) *Orchestrator {
	if tokensPerUnit <= 0 {
		tokensPerUnit = 10
	}
	return &Orchestrator{
		classifier:    classifier,
		router:        rt,
		executor:      exec,
		pricing:       table,
		ledger:        store,
		usage:         tracker,
		tokensPerUnit: tokensPerUnit,
	}
}

// HandleRequest runs the full pipeline for one user request. A ledger unit is
// debited before any paid upstream work and refunded if execution fails, so a
// failed request never costs the user anything.
func (o *Orchestrator) HandleRequest(ctx context.Context, userInput, tone, userID string) (*Result, error) {
	start := time.Now()

	category := o.classifier.Classify(ctx, userInput)
	dec := o.router.Route(category)

	balance, err := o.ledger.Debit(ctx, userID, 1)
	if err != nil {
		return nil, err
	}

	if category == models.CategoryImage {
		return o.serveImage(ctx, dec, userInput, userID, balance, start)
	}

	res, err := o.executor.Execute(ctx, dec, buildMessages(userInput, tone))
	if err != nil {
		if _, cerr := o.ledger.Credit(ctx, userID, 1); cerr != nil {
			log.Printf("refund failed for user %s: %v", userID, cerr)
		}
		return nil, err
	}

	est := o.pricing.Estimate(res.Model, res.Usage)
	o.record(ctx, userID, dec, res.Model, res.Usage, est, res.Attempts, start)

	return &Result{
		Response:         res.Text,
		Model:            res.Model,
		Category:         dec.Category,
		ReasoningTier:    dec.Tier,
		TokensUsed:       res.Usage.TotalTokens,
		EstimatedCost:    est.TotalCost,
		BalanceRemaining: balance,
	}, nil
}

// serveImage short-circuits image requests: the image pipeline bills per
// generated image, not per token, and the response is a generation receipt.
func (o *Orchestrator) serveImage(ctx context.Context, dec router.Decision, userInput, userID string, balance int64, start time.Time) (*Result, error) {
	model := dec.Candidates[0]
	u := models.Usage{ImagesGenerated: 1}
	est := o.pricing.Estimate(model, u)
	o.record(ctx, userID, dec, model, u, est, 1, start)

	return &Result{
		Response:         fmt.Sprintf("Image generation queued for: %s", strings.TrimSpace(userInput)),
		Model:            model,
		Category:         dec.Category,
		ReasoningTier:    dec.Tier,
		TokensUsed:       0,
		EstimatedCost:    est.TotalCost,
		BalanceRemaining: balance,
	}, nil
}

// HandleRecharge converts a payment amount into ledger units and credits the
// account. Units round down; partial units are never granted.
func (o *Orchestrator) HandleRecharge(ctx context.Context, userID string, amount float64) (int64, error) {
	units := int64(amount * o.tokensPerUnit)
	if units <= 0 {
		return o.ledger.Balance(ctx, userID)
	}
	return o.ledger.Credit(ctx, userID, units)
}

func (o *Orchestrator) record(ctx context.Context, userID string, dec router.Decision, model string, u models.Usage, est pricing.CostEstimate, attempts int, start time.Time) {
	if o.usage == nil {
		return
	}
	cost, _ := strconv.ParseFloat(est.TotalCost, 64)
	rec := models.UsageRecord{
		UserID:           userID,
		Category:         dec.Category,
		Model:            model,
		Tier:             dec.Tier,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		Cost:             cost,
		Attempts:         attempts,
		LatencyMs:        time.Since(start).Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}
	if err := o.usage.Record(ctx, rec); err != nil {
		log.Printf("usage record failed for user %s: %v", userID, err)
	}
}

func buildMessages(userInput, tone string) []models.ChatMessage {
	msgs := []models.ChatMessage{{Role: "system", Content: systemPrompt}}
	content := userInput
	if tp := tonePrompts[tone]; tp != "" {
		content = tp + "\n" + userInput
	}
	msgs = append(msgs, models.ChatMessage{Role: "user", Content: content})
	return msgs
}
