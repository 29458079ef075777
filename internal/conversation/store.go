package conversation

// Store is the ordered turn history for a single provider. The turn at index 0
// is the pinned system instruction and is never removed by eviction or reset.
//
// Store itself is not safe for concurrent use. Each provider's relay session
// owns its store and serializes all access through a single worker goroutine,
// so no locking happens here.
type Store struct {
	turns []Turn
}

// NewStore creates a store seeded with the pinned system instruction.
func NewStore(systemPrompt string) *Store {
	return &Store{turns: []Turn{SystemTurn(systemPrompt)}}
}

// Append adds a turn at the end. No budget is applied at this stage.
func (s *Store) Append(t Turn) {
	s.turns = append(s.turns, t)
}

// Len returns the number of turns, including the pinned system turn.
func (s *Store) Len() int {
	return len(s.turns)
}

// Snapshot returns an immutable ordered copy of the turns, safe to hand to a
// dispatcher while the store continues to mutate.
func (s *Store) Snapshot() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// EvictOldest removes the turn at index 1, the oldest non-pinned turn.
// It reports whether a turn was removed; a store holding only the system turn
// is left untouched. Eviction is strictly oldest-first: a user turn can be
// evicted while its paired assistant reply remains, which is an accepted
// artifact of the policy.
func (s *Store) EvictOldest() bool {
	if len(s.turns) <= 1 {
		return false
	}
	s.turns = append(s.turns[:1], s.turns[2:]...)
	return true
}

// TruncateToSystem discards every turn except the pinned system instruction.
// Idempotent: resetting an already-reset store is a no-op.
func (s *Store) TruncateToSystem() {
	s.turns = s.turns[:1]
}
