package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cutesocks/socksbot/internal/config"
	"github.com/cutesocks/socksbot/internal/conversation"
	"github.com/cutesocks/socksbot/internal/observability"
)

// ErrStopped reports that the session worker has shut down.
var ErrStopped = errors.New("relay session stopped")

// Session owns one provider's conversation store and serializes every
// operation on it through a single worker goroutine. The whole exchange —
// append user turn, enforce the budget, the full remote round-trip, append
// the assistant turn — runs as one uninterrupted operation, so no two
// exchanges against the same provider are ever in flight concurrently and
// callers observe strict append order. A slow remote call therefore blocks
// every other caller targeting this provider; that is the intended trade-off,
// not an accident.
type Session struct {
	name      string
	model     string
	store     *conversation.Store
	counter   conversation.TokenCounter
	completer Completer
	budget    config.BudgetConfig
	logger    *observability.Logger
	metrics   *observability.Metrics
	ops       chan func()
	done      chan struct{}

	// runCtx is the worker's lifetime context. Dispatches run against it, not
	// the submitter's context: once an exchange starts it runs to completion
	// or to the provider's own error, with no caller-driven cancellation.
	runCtx context.Context
}

// NewSession creates a session seeded with the shared system prompt. Start
// must be called before submitting work.
func NewSession(name, model, systemPrompt string, completer Completer, counter conversation.TokenCounter, budget config.BudgetConfig, logger *observability.Logger, metrics *observability.Metrics) *Session {
	return &Session{
		name:      name,
		model:     model,
		store:     conversation.NewStore(systemPrompt),
		counter:   counter,
		completer: completer,
		budget:    budget,
		logger:    logger.WithFields("provider", name),
		metrics:   metrics,
		ops:       make(chan func(), 16),
		done:      make(chan struct{}),
	}
}

// Start runs the worker until ctx is cancelled. Operations already dequeued
// run to completion; an in-flight remote call is never cancelled.
func (s *Session) Start(ctx context.Context) {
	s.runCtx = ctx
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case op := <-s.ops:
				op()
			}
		}
	}()
}

// submit enqueues op and waits for it to run. Enqueueing respects ctx; once
// the op is queued the caller waits for its completion without cancellation.
func (s *Session) submit(ctx context.Context, op func()) error {
	wrapped := make(chan struct{})
	run := func() {
		op()
		close(wrapped)
	}
	select {
	case s.ops <- run:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-wrapped:
		return nil
	case <-s.done:
		return ErrStopped
	}
}

// Exchange performs one full chat exchange and returns the cleaned reply
// text. On failure the user turn stays in the history with no paired reply;
// rolling it back would need transactional bookkeeping the simple oldest-first
// policy deliberately avoids.
func (s *Session) Exchange(ctx context.Context, author, message string) (string, error) {
	var (
		text string
		err  error
	)
	if submitErr := s.submit(ctx, func() {
		text, err = s.exchange(ctx, author, message)
	}); submitErr != nil {
		return "", submitErr
	}
	return text, err
}

// exchange runs on the worker goroutine.
func (s *Session) exchange(ctx context.Context, author, message string) (string, error) {
	s.store.Append(conversation.UserTurn(message, author))

	lenBefore := s.store.Len()
	tokens, err := conversation.EnforceBudget(s.store, s.counter, s.budget.HistoryMaxTokens)
	if evicted := lenBefore - s.store.Len(); evicted > 0 {
		s.metrics.EvictedTurns.WithLabelValues(s.name).Add(float64(evicted))
		s.logger.Info(ctx, "evicted history turns", "evicted", evicted, "tokens", tokens)
	}
	if err != nil {
		s.metrics.ExchangeCounter.WithLabelValues(s.name, "error").Inc()
		if errors.Is(err, conversation.ErrBudgetTooSmall) {
			s.logger.Error(ctx, "history ceiling cannot hold the system prompt",
				"ceiling", s.budget.HistoryMaxTokens, "tokens", tokens)
			return "", &DispatchError{Provider: s.name, Reason: ReasonBudget, Cause: err}
		}
		s.logger.Error(ctx, "budget enforcement failed", "error", err)
		return "", &DispatchError{Provider: s.name, Reason: ReasonEncoding, Cause: err}
	}
	s.metrics.HistoryTokens.WithLabelValues(s.name).Set(float64(tokens))

	start := time.Now()
	text, err := s.completer.Complete(s.runCtx, s.store.Snapshot(), s.budget.ReplyMaxTokens)
	s.metrics.DispatchDuration.WithLabelValues(s.name, s.model).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ExchangeCounter.WithLabelValues(s.name, "error").Inc()
		s.logger.Error(ctx, "dispatch failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		if _, ok := AsDispatchError(err); ok {
			return "", err
		}
		return "", fmt.Errorf("dispatch: %w", err)
	}

	s.store.Append(conversation.AssistantTurn(text))
	s.metrics.ExchangeCounter.WithLabelValues(s.name, "success").Inc()
	s.logger.Debug(ctx, "exchange complete",
		"history_turns", s.store.Len(),
		"history_tokens", tokens,
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

// Reset discards every turn except the pinned system instruction. Resets go
// through the same worker as exchanges, so a reset never interleaves with an
// exchange in progress.
func (s *Session) Reset(ctx context.Context) error {
	return s.submit(ctx, func() {
		s.store.TruncateToSystem()
		s.metrics.ResetCounter.WithLabelValues(s.name).Inc()
		s.logger.Info(ctx, "history reset")
	})
}

// HistoryLen reports the current turn count, including the pinned turn.
func (s *Session) HistoryLen(ctx context.Context) (int, error) {
	var n int
	err := s.submit(ctx, func() { n = s.store.Len() })
	return n, err
}
