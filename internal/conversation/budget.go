package conversation

import (
	"errors"
	"fmt"
)

// ErrBudgetTooSmall reports that the history token ceiling cannot be satisfied
// without removing the pinned system turn. This is a configuration problem,
// not a transient one: the ceiling must at least hold the system instruction.
var ErrBudgetTooSmall = errors.New("history token ceiling smaller than system prompt")

// TokenCounter counts model tokens for a serialized turn sequence. Counting
// failures at request time are recoverable; they surface to the caller as a
// failed exchange rather than aborting the process.
type TokenCounter interface {
	Count(text string) (int, error)
}

// EnforceBudget evicts the oldest non-pinned turns from store until the
// serialized history fits within ceiling tokens. It returns the final token
// count. Each eviction strictly shrinks the history, so the loop terminates;
// if only the system turn remains and the count still exceeds the ceiling it
// returns ErrBudgetTooSmall instead of stalling.
func EnforceBudget(store *Store, counter TokenCounter, ceiling int) (int, error) {
	for {
		serialized, err := MarshalTurns(store.Snapshot())
		if err != nil {
			return 0, fmt.Errorf("serialize history: %w", err)
		}
		tokens, err := counter.Count(serialized)
		if err != nil {
			return 0, fmt.Errorf("count history tokens: %w", err)
		}
		if tokens <= ceiling {
			return tokens, nil
		}
		if !store.EvictOldest() {
			return tokens, ErrBudgetTooSmall
		}
	}
}
