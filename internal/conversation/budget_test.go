package conversation

import (
	"errors"
	"testing"
)

// byteCounter counts one token per byte of serialized history, which keeps the
// arithmetic in tests exact without a real BPE encoding.
type byteCounter struct{}

func (byteCounter) Count(text string) (int, error) { return len(text), nil }

type failingCounter struct{ err error }

func (f failingCounter) Count(string) (int, error) { return 0, f.err }

func serializedLen(t *testing.T, turns []Turn) int {
	t.Helper()
	s, err := MarshalTurns(turns)
	if err != nil {
		t.Fatal(err)
	}
	return len(s)
}

func TestEnforceBudget_NoEvictionWhenUnderCeiling(t *testing.T) {
	s := NewStore("sys")
	s.Append(UserTurn("hello", "a"))

	tokens, err := EnforceBudget(s, byteCounter{}, 10000)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("expected no eviction, got %d turns", s.Len())
	}
	if want := serializedLen(t, s.Snapshot()); tokens != want {
		t.Errorf("tokens = %d, want %d", tokens, want)
	}
}

func TestEnforceBudget_EvictsOldestUntilFit(t *testing.T) {
	s := NewStore("sys")
	// Ceiling that holds the system turn plus roughly one exchange.
	ceiling := serializedLen(t, []Turn{
		SystemTurn("sys"),
		UserTurn("message three", "user"),
		AssistantTurn("reply three"),
	})

	for _, n := range []string{"one", "two", "three"} {
		s.Append(UserTurn("message "+n, "user"))
		s.Append(AssistantTurn("reply " + n))
		tokens, err := EnforceBudget(s, byteCounter{}, ceiling)
		if err != nil {
			t.Fatal(err)
		}
		if tokens > ceiling {
			t.Errorf("after append %q: %d tokens exceeds ceiling %d", n, tokens, ceiling)
		}
	}

	turns := s.Snapshot()
	if turns[0].Role != RoleSystem {
		t.Fatalf("pinned turn lost: %+v", turns[0])
	}
	// Only the most recent exchange fits alongside the system turn.
	if len(turns) != 3 {
		t.Fatalf("expected system + last pair, got %d turns: %+v", len(turns), turns)
	}
	if turns[1].Content != "message three" || turns[2].Content != "reply three" {
		t.Errorf("wrong survivors: %+v", turns[1:])
	}
}

func TestEnforceBudget_EvictionOrder(t *testing.T) {
	s := NewStore("sys")
	contents := []string{"a", "b", "c", "d"}
	for _, c := range contents {
		s.Append(UserTurn(c, "u"))
	}

	// Force exactly two evictions: ceiling fits system + last two turns.
	ceiling := serializedLen(t, []Turn{SystemTurn("sys"), UserTurn("c", "u"), UserTurn("d", "u")})
	if _, err := EnforceBudget(s, byteCounter{}, ceiling); err != nil {
		t.Fatal(err)
	}

	turns := s.Snapshot()
	if len(turns) != 3 || turns[1].Content != "c" || turns[2].Content != "d" {
		t.Errorf("expected oldest turns a,b evicted first, got %+v", turns)
	}
}

func TestEnforceBudget_CeilingTooSmall(t *testing.T) {
	s := NewStore("a very long system prompt that cannot possibly fit")
	s.Append(UserTurn("hi", "u"))

	_, err := EnforceBudget(s, byteCounter{}, 10)
	if !errors.Is(err, ErrBudgetTooSmall) {
		t.Fatalf("expected ErrBudgetTooSmall, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected store evicted down to the pinned turn, got %d", s.Len())
	}
}

func TestEnforceBudget_CounterFailureIsRecoverable(t *testing.T) {
	s := NewStore("sys")
	s.Append(UserTurn("hi", "u"))
	boom := errors.New("encode failed")

	_, err := EnforceBudget(s, failingCounter{err: boom}, 100)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped counter error, got %v", err)
	}
}
