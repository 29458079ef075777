package relay

import (
	"context"
	"fmt"

	"github.com/cutesocks/socksbot/internal/chunk"
	"github.com/cutesocks/socksbot/internal/config"
	"github.com/cutesocks/socksbot/internal/conversation"
	"github.com/cutesocks/socksbot/internal/emoji"
	"github.com/cutesocks/socksbot/internal/observability"
)

// UnknownProviderError reports a provider id with no configured session.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}

// Service is the core interface consumed by the command-handling layer. It
// routes chat turns to the right provider session, formats replies, and
// splits them into transport-sized chunks.
type Service struct {
	sessions  map[string]*Session
	order     []string
	charLimit int
	emoji     *emoji.Replacer
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewService builds a session per configured provider, each seeded with the
// shared system prompt and backed by a real dispatcher.
func NewService(cfg *config.Config, systemPrompt string, counter conversation.TokenCounter, logger *observability.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		sessions:  make(map[string]*Session, len(cfg.Providers)),
		charLimit: cfg.Discord.CharLimit,
		emoji:     emoji.NewReplacer(cfg.Emoji),
		logger:    logger,
		metrics:   metrics,
	}
	for _, p := range cfg.Providers {
		s.register(p.Name, NewSession(p.Name, p.Model, systemPrompt, NewDispatcher(p), counter, cfg.Budget, logger, metrics))
	}
	return s
}

func (s *Service) register(name string, session *Session) {
	s.sessions[name] = session
	s.order = append(s.order, name)
}

// Start launches every provider's worker. Workers stop when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	for _, name := range s.order {
		s.sessions[name].Start(ctx)
	}
}

// Providers lists provider ids in configuration order.
func (s *Service) Providers() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SubmitChatTurn performs one chat exchange and returns the ordered output
// chunks to emit. On failure it returns the fixed user-visible fallback as a
// single chunk together with the underlying error; internal detail never
// reaches the chunks.
func (s *Service) SubmitChatTurn(ctx context.Context, providerID, authorName, authorRef, message string) ([]string, error) {
	session, ok := s.sessions[providerID]
	if !ok {
		return nil, &UnknownProviderError{Provider: providerID}
	}

	text, err := session.Exchange(ctx, authorName, message)
	if err != nil {
		fallback := fmt.Sprintf("> **%s** - %s \n\nSomething went wrong, please try again later.", message, authorRef)
		return []string{fallback}, err
	}

	formatted := fmt.Sprintf("> **%s** - %s \n\n%s", message, authorRef, text)
	formatted = s.emoji.Replace(formatted)

	chunks := chunk.Text(formatted, s.charLimit)
	s.metrics.ChunksEmitted.WithLabelValues(providerID).Add(float64(len(chunks)))
	return chunks, nil
}

// ResetHistory wipes a provider's history back to the pinned system turn.
func (s *Service) ResetHistory(ctx context.Context, providerID string) error {
	session, ok := s.sessions[providerID]
	if !ok {
		return &UnknownProviderError{Provider: providerID}
	}
	return session.Reset(ctx)
}
