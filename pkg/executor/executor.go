package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nexmind-one/nexmind/pkg/llm"
	"github.com/nexmind-one/nexmind/pkg/models"
	"github.com/nexmind-one/nexmind/pkg/router"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond

	// defaultTemperature matches the original deployment's chat settings.
	defaultTemperature = 0.8
)

// CandidateFailure records why one candidate in the chain was given up on.
type CandidateFailure struct {
	Model    string
	Attempts int
	Reason   string
}

// ExhaustedError reports that every candidate in the fallback chain failed.
// The per-candidate reasons are diagnostic detail for logs, never for users.
type ExhaustedError struct {
	Failures []CandidateFailure
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString("all models exhausted")
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; %s (%d attempts): %s", f.Model, f.Attempts, f.Reason)
	}
	return b.String()
}

// Result is the successful outcome of one resilient execution.
type Result struct {
	Model    string
	Text     string
	Usage    models.Usage
	Attempts int
}

// Executor drives completion calls across a routing decision's fallback
// chain: each candidate gets a bounded number of attempts, transient
// failures back off exponentially, and credential or quota failures abort
// the whole chain immediately.
type Executor struct {
	client      llm.Client
	maxAttempts int
	baseDelay   time.Duration

	// sleep is swapped out in tests for exact wait accounting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Executor. Zero values for maxAttempts and baseDelay select
// the defaults (3 attempts per candidate, 500ms base delay).
func New(client llm.Client, maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	return &Executor{
		client:      client,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepCtx,
	}
}

// Execute tries each candidate in order and returns the first success.
//
// Failure classification per attempt:
//   - credential rejection or quota exhaustion aborts the whole chain; the
//     condition is account-wide and no other candidate can do better
//   - a model-unavailable failure abandons the candidate and moves to the
//     next one without delay
//   - anything else (network errors, 5xx, malformed or empty payloads) is
//     transient and retries the same candidate after a backoff wait
//
// Backoff follows one escalating schedule per execution: the n-th wait is
// baseDelay * 2^(n-1), counting transient failures across the whole chain,
// and no wait is inserted when no further attempt will follow. Waits are
// context-aware timers, so a canceled request stops backing off immediately.
func (e *Executor) Execute(ctx context.Context, dec router.Decision, messages []models.ChatMessage) (*Result, error) {
	var failures []CandidateFailure
	totalAttempts := 0
	waits := 0

	for _, model := range dec.Candidates {
		var lastErr error
		attempts := 0

	candidate:
		for attempt := 1; attempt <= e.maxAttempts; attempt++ {
			totalAttempts++
			attempts = attempt

			comp, err := e.client.Complete(ctx, llm.CompletionRequest{
				Model:           model,
				Messages:        messages,
				Temperature:     defaultTemperature,
				ReasoningEffort: dec.Tier,
			})
			if err == nil && strings.TrimSpace(comp.Text) == "" {
				// A well-formed-but-empty payload is indistinguishable from a
				// garbled response and must not be served.
				err = fmt.Errorf("%w: empty completion text", llm.ErrMalformed)
			}
			if err == nil {
				return &Result{
					Model:    model,
					Text:     comp.Text,
					Usage:    comp.Usage,
					Attempts: totalAttempts,
				}, nil
			}

			switch {
			case errors.Is(err, llm.ErrUnauthorized), errors.Is(err, llm.ErrQuotaExceeded):
				return nil, err
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, err
			}

			lastErr = err
			log.Printf("model %s attempt %d failed: %v", model, attempt, err)

			if errors.Is(err, llm.ErrModelUnavailable) {
				break candidate
			}
			if attempt == e.maxAttempts {
				break candidate
			}

			waits++
			if serr := e.sleep(ctx, e.backoff(waits)); serr != nil {
				return nil, serr
			}
		}

		failures = append(failures, CandidateFailure{
			Model:    model,
			Attempts: attempts,
			Reason:   lastErr.Error(),
		})
	}

	return nil, &ExhaustedError{Failures: failures}
}

// backoff returns the duration of the n-th wait (1-based).
func (e *Executor) backoff(n int) time.Duration {
	return e.baseDelay * time.Duration(1<<(n-1))
}

// sleepCtx waits for d without blocking other requests, returning early if
// the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
