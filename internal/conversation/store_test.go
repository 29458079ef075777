package conversation

import (
	"strings"
	"testing"
)

func TestStore_PinnedSystemTurn(t *testing.T) {
	s := NewStore("be a cat")

	for i := 0; i < 10; i++ {
		s.Append(UserTurn("hello", "someone"))
		s.Append(AssistantTurn("meow"))
	}
	for s.EvictOldest() {
	}

	if s.Len() != 1 {
		t.Fatalf("expected only pinned turn to survive, got %d turns", s.Len())
	}
	got := s.Snapshot()[0]
	if got.Role != RoleSystem || got.Content != "be a cat" {
		t.Errorf("pinned turn changed: %+v", got)
	}
}

func TestStore_EvictOldestFirst(t *testing.T) {
	s := NewStore("sys")
	s.Append(UserTurn("first", "a"))
	s.Append(AssistantTurn("second"))
	s.Append(UserTurn("third", "b"))

	if !s.EvictOldest() {
		t.Fatal("expected eviction to remove a turn")
	}

	turns := s.Snapshot()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns after eviction, got %d", len(turns))
	}
	if turns[1].Content != "second" || turns[2].Content != "third" {
		t.Errorf("wrong turn evicted: %+v", turns)
	}
}

func TestStore_EvictOldestOnSystemOnly(t *testing.T) {
	s := NewStore("sys")
	if s.EvictOldest() {
		t.Error("eviction must never remove the pinned turn")
	}
}

func TestStore_TruncateToSystem(t *testing.T) {
	s := NewStore("sys")
	s.Append(UserTurn("hi", "a"))
	s.Append(AssistantTurn("hello"))

	s.TruncateToSystem()
	if s.Len() != 1 {
		t.Fatalf("expected length 1 after reset, got %d", s.Len())
	}

	// Reset on an empty-except-system store is a no-op.
	s.TruncateToSystem()
	if s.Len() != 1 {
		t.Fatalf("expected reset to be idempotent, got %d turns", s.Len())
	}
	if got := s.Snapshot()[0]; got.Role != RoleSystem || got.Content != "sys" {
		t.Errorf("pinned turn changed by reset: %+v", got)
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := NewStore("sys")
	s.Append(UserTurn("hi", "a"))

	snap := s.Snapshot()
	s.Append(AssistantTurn("hello"))
	snap[0].Content = "mutated"

	if len(snap) != 2 {
		t.Errorf("snapshot grew with the store: %d turns", len(snap))
	}
	if s.Snapshot()[0].Content != "sys" {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestSanitizeAuthorName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"cutesocks", "cutesocks"},
		{"user_name-42", "user_name-42"},
		{"spaced name", "spacedname"},
		{"émile!", "mile"},
		{"日本語ユーザー", ""},
		{"a.b@c", "abc"},
		{strings.Repeat("x", 80), strings.Repeat("x", 64)},
	}
	for _, tc := range cases {
		if got := SanitizeAuthorName(tc.in); got != tc.want {
			t.Errorf("SanitizeAuthorName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMarshalTurns_WireShape(t *testing.T) {
	serialized, err := MarshalTurns([]Turn{
		SystemTurn("sys"),
		UserTurn("hi there", "kit ten"),
		AssistantTurn("hello"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"role":"system","content":"sys"},{"role":"user","content":"hi there","name":"kitten"},{"role":"assistant","content":"hello"}]`
	if serialized != want {
		t.Errorf("serialized history = %s, want %s", serialized, want)
	}
}
