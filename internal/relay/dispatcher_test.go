package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cutesocks/socksbot/internal/config"
	"github.com/cutesocks/socksbot/internal/conversation"
)

func newFakeProvider(t *testing.T, handler http.HandlerFunc) (*httptest.Server, config.ProviderConfig) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, config.ProviderConfig{
		Name:     "fake",
		Command:  "chat",
		Endpoint: srv.URL + "/v1",
		APIKey:   "test-key",
		Model:    "test-model",
	}
}

func completionResponse(content string) string {
	resp := map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestDispatcher_Complete(t *testing.T) {
	var gotBody map[string]any
	_, cfg := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(completionResponse("meow meow"))); err != nil {
			t.Error(err)
		}
	})

	d := NewDispatcher(cfg)
	turns := []conversation.Turn{
		conversation.SystemTurn("be a sock"),
		conversation.UserTurn("hello there", "al ice"),
	}
	text, err := d.Complete(context.Background(), turns, 256)
	if err != nil {
		t.Fatal(err)
	}
	if text != "meow meow" {
		t.Errorf("reply = %q", text)
	}

	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["max_tokens"] != float64(256) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
	messages := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	user := messages[1].(map[string]any)
	if user["name"] != "alice" {
		t.Errorf("user message name = %v, want sanitized %q", user["name"], "alice")
	}
}

func TestDispatcher_StripsWrappingQuotes(t *testing.T) {
	_, cfg := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(`"a quoted reply"`)))
	})

	d := NewDispatcher(cfg)
	text, err := d.Complete(context.Background(), []conversation.Turn{conversation.SystemTurn("s")}, 16)
	if err != nil {
		t.Fatal(err)
	}
	if text != "a quoted reply" {
		t.Errorf("reply = %q, want wrapping quotes stripped", text)
	}
}

func TestTrimWrappingQuotes(t *testing.T) {
	cases := []struct{ in, want string }{
		{`"wrapped"`, "wrapped"},
		{`"leading only`, "leading only"},
		{`trailing only"`, "trailing only"},
		{`plain`, "plain"},
		{`""`, ""},
		{`say "this" inline`, `say "this" inline`},
	}
	for _, tc := range cases {
		if got := trimWrappingQuotes(tc.in); got != tc.want {
			t.Errorf("trimWrappingQuotes(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDispatcher_HTTPErrorClassified(t *testing.T) {
	_, cfg := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	})

	d := NewDispatcher(cfg)
	_, err := d.Complete(context.Background(), []conversation.Turn{conversation.SystemTurn("s")}, 16)
	if err == nil {
		t.Fatal("expected error")
	}
	de, ok := AsDispatchError(err)
	if !ok {
		t.Fatalf("expected DispatchError, got %T", err)
	}
	if de.Reason != ReasonRateLimit || de.Status != http.StatusTooManyRequests {
		t.Errorf("classification = %s status=%d", de.Reason, de.Status)
	}
}

func TestDispatcher_EmptyChoices(t *testing.T) {
	_, cfg := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`))
	})

	d := NewDispatcher(cfg)
	_, err := d.Complete(context.Background(), []conversation.Turn{conversation.SystemTurn("s")}, 16)
	de, ok := AsDispatchError(err)
	if !ok || de.Reason != ReasonEmptyResponse {
		t.Errorf("expected empty-response classification, got %v", err)
	}
}

func TestDispatcher_NetworkError(t *testing.T) {
	srv, cfg := newFakeProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close() // refuse connections

	d := NewDispatcher(cfg)
	_, err := d.Complete(context.Background(), []conversation.Turn{conversation.SystemTurn("s")}, 16)
	de, ok := AsDispatchError(err)
	if !ok || de.Reason != ReasonNetwork {
		t.Errorf("expected network classification, got %v", err)
	}
}
