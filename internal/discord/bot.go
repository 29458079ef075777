// Package discord connects the relay service to Discord: slash command
// registration, interaction handling, and sequential chunk emission.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/cutesocks/socksbot/internal/config"
	"github.com/cutesocks/socksbot/internal/market"
	"github.com/cutesocks/socksbot/internal/observability"
	"github.com/cutesocks/socksbot/internal/relay"
)

// session is the slice of discordgo.Session the bot uses, kept narrow so
// tests can substitute a fake.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Bot owns the Discord gateway connection and translates interactions into
// relay service calls.
type Bot struct {
	cfg       config.DiscordConfig
	providers []config.ProviderConfig
	service   *relay.Service
	market    *market.Client
	logger    *observability.Logger

	mu      sync.Mutex
	session session
	ctx     context.Context

	// byCommand routes a slash command name to its provider descriptor.
	byCommand map[string]providerRoute
}

type providerRoute struct {
	provider config.ProviderConfig
	reset    bool
}

// NewBot wires the bot. The market client may be nil when the price command
// is disabled.
func NewBot(cfg config.DiscordConfig, providers []config.ProviderConfig, service *relay.Service, marketClient *market.Client, logger *observability.Logger) *Bot {
	b := &Bot{
		cfg:       cfg,
		providers: providers,
		service:   service,
		market:    marketClient,
		logger:    logger.WithFields("component", "discord"),
		byCommand: make(map[string]providerRoute, len(providers)*2),
	}
	for _, p := range providers {
		b.byCommand[p.Command] = providerRoute{provider: p}
		b.byCommand[p.ResetCommand] = providerRoute{provider: p, reset: true}
	}
	return b
}

// Start opens the gateway connection and registers event handlers. Slash
// commands are registered once the ready event delivers the application id.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = ctx

	if b.session == nil {
		dg, err := discordgo.New("Bot " + b.cfg.BotToken)
		if err != nil {
			return fmt.Errorf("create discord session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsNone
		b.session = dg
	}

	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	b.logger.Info(ctx, "discord bot started")
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	b.logger.Info(context.Background(), "discord bot stopped")
	return nil
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info(b.ctx, "discord connection ready",
		"user", r.User.Username,
		"guilds", len(r.Guilds))

	if err := b.registerCommands(r.Application.ID); err != nil {
		b.logger.Error(b.ctx, "slash command registration failed", "error", err)
	}
}

func (b *Bot) registerCommands(appID string) error {
	commands := b.commandDefinitions()
	_, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, commands)
	if err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.logger.Info(b.ctx, "slash commands registered", "count", len(commands))
	return nil
}

// handleInteractionCreate dispatches each command on its own goroutine so a
// long exchange never stalls the gateway read loop. Per-provider ordering is
// enforced by the relay sessions, not here.
func (b *Bot) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	go b.handleCommand(b.ctx, i)
}
