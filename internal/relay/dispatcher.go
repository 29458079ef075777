// Package relay forwards chat turns to completion providers while keeping
// each provider's bounded conversation history. Exchanges against one
// provider are fully serialized through a single worker; providers are
// independent of each other.
package relay

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cutesocks/socksbot/internal/config"
	"github.com/cutesocks/socksbot/internal/conversation"
)

// Completer issues one completion request against a provider. Implementations
// must not mutate the turns they are given.
type Completer interface {
	Complete(ctx context.Context, turns []conversation.Turn, maxTokens int) (string, error)
}

// Dispatcher is the production Completer, speaking the OpenAI chat completion
// wire format against a configurable endpoint. Both the primary and the
// alternate provider use this same implementation with different descriptors.
type Dispatcher struct {
	provider string
	model    string
	client   *openai.Client
}

// NewDispatcher builds a Dispatcher from a provider descriptor.
func NewDispatcher(cfg config.ProviderConfig) *Dispatcher {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	return &Dispatcher{
		provider: cfg.Name,
		model:    cfg.Model,
		client:   openai.NewClientWithConfig(clientCfg),
	}
}

// Model returns the provider's model identifier.
func (d *Dispatcher) Model() string {
	return d.model
}

// Complete sends the turn snapshot to the provider and returns the first
// candidate's text with cosmetic wrapping quotes stripped. Failures come back
// as a *DispatchError; the caller decides what the user sees.
func (d *Dispatcher) Complete(ctx context.Context, turns []conversation.Turn, maxTokens int) (string, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     d.model,
		MaxTokens: maxTokens,
		Messages:  toChatMessages(turns),
	})
	if err != nil {
		return "", newDispatchError(d.provider, d.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", &DispatchError{Provider: d.provider, Model: d.model, Reason: ReasonEmptyResponse}
	}
	return trimWrappingQuotes(resp.Choices[0].Message.Content), nil
}

func toChatMessages(turns []conversation.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, len(turns))
	for i, t := range turns {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
			Name:    t.Name,
		}
	}
	return messages
}

// trimWrappingQuotes strips one leading and one trailing literal quotation
// mark. Some models wrap conversational replies in quotes; stripping a single
// pair is cosmetic cleanup, not unquoting.
func trimWrappingQuotes(text string) string {
	text = strings.TrimPrefix(text, `"`)
	return strings.TrimSuffix(text, `"`)
}
