package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/cutesocks/socksbot/internal/market"
)

const priceFallback = "Something went wrong, maybe the symbol?"

// commandDefinitions builds the slash command set: one chat and one reset
// command per provider, plus the utility commands.
func (b *Bot) commandDefinitions() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, p := range b.providers {
		commands = append(commands,
			&discordgo.ApplicationCommand{
				Name:        p.Command,
				Description: fmt.Sprintf("Chat with %s", p.Name),
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "What to say",
					Required:    true,
				}},
			},
			&discordgo.ApplicationCommand{
				Name:        p.ResetCommand,
				Description: fmt.Sprintf("Make %s forget the conversation", p.Name),
			},
		)
	}
	if b.market != nil {
		commands = append(commands, &discordgo.ApplicationCommand{
			Name:        "price",
			Description: "Look up a cryptocurrency price",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "symbol",
				Description: "Ticker symbol, e.g. BTC",
				Required:    true,
			}},
		})
	}
	commands = append(commands,
		&discordgo.ApplicationCommand{
			Name:        "delete",
			Description: "Delete a bot message (admin only)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "target",
				Description: "channel_id,message_id",
				Required:    true,
			}},
		},
		&discordgo.ApplicationCommand{
			Name:        "say",
			Description: "Send a message as the bot (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "channel_id",
					Description: "Channel to send to",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "What to say",
					Required:    true,
				},
			},
		},
		&discordgo.ApplicationCommand{
			Name:        "help",
			Description: "List available commands",
		},
	)
	return commands
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	if route, ok := b.byCommand[data.Name]; ok {
		if route.reset {
			b.handleReset(ctx, i, route)
		} else {
			b.handleChat(ctx, i, route)
		}
		return
	}

	switch data.Name {
	case "price":
		b.handlePrice(ctx, i)
	case "delete":
		b.handleDelete(ctx, i)
	case "say":
		b.handleSay(ctx, i)
	case "help":
		b.handleHelp(ctx, i)
	default:
		b.logger.Warn(ctx, "unknown command", "command", data.Name)
	}
}

// handleChat runs one exchange. The response is deferred first because a
// completion can easily outlive Discord's three second interaction window.
func (b *Bot) handleChat(ctx context.Context, i *discordgo.InteractionCreate, route providerRoute) {
	user := interactionUser(i)
	message := optionString(i, "message")

	if err := b.deferResponse(i); err != nil {
		b.logger.Error(ctx, "defer failed", "command", route.provider.Command, "error", err)
		return
	}

	chunks, err := b.service.SubmitChatTurn(ctx, route.provider.Name, user.Username, user.Mention(), message)
	if err != nil {
		b.logger.Error(ctx, "exchange failed",
			"provider", route.provider.Name,
			"user", user.Username,
			"error", err)
	}
	for _, c := range chunks {
		if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: c}); err != nil {
			b.logger.Error(ctx, "followup failed", "provider", route.provider.Name, "error", err)
			return
		}
	}
}

func (b *Bot) handleReset(ctx context.Context, i *discordgo.InteractionCreate, route providerRoute) {
	if err := b.service.ResetHistory(ctx, route.provider.Name); err != nil {
		b.logger.Error(ctx, "reset failed", "provider", route.provider.Name, "error", err)
		b.respondText(ctx, i, "Something went wrong, please try again later.", false)
		return
	}
	b.respondText(ctx, i, route.provider.ResetMessage, false)
}

func (b *Bot) handlePrice(ctx context.Context, i *discordgo.InteractionCreate) {
	// A stale /price registration from a prior run can still reach us when the
	// market client is disabled; answer instead of dereferencing nil.
	if b.market == nil {
		b.respondText(ctx, i, priceFallback, false)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(optionString(i, "symbol")))

	if err := b.deferResponse(i); err != nil {
		b.logger.Error(ctx, "defer failed", "command", "price", "error", err)
		return
	}

	quotes, err := b.market.Quotes(ctx, symbol)
	if err != nil {
		b.logger.Warn(ctx, "price lookup failed", "symbol", symbol, "error", err)
		b.followupText(ctx, i, priceFallback)
		return
	}

	q := quotes[0]
	embed := priceEmbed(q)
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		b.logger.Error(ctx, "followup failed", "command", "price", "error", err)
	}
}

func priceEmbed(q market.Quote) *discordgo.MessageEmbed {
	usd := q.Quote.USD
	supply := "?"
	if q.MaxSupply != nil {
		supply = market.FormatUSD(*q.MaxSupply)
	}
	return &discordgo.MessageEmbed{
		Color: market.ChangeColor(usd.PercentChange24H),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    fmt.Sprintf("%s (%s)", q.Name, q.Symbol),
			IconURL: market.IconURL(q.ID),
			URL:     fmt.Sprintf("https://coinmarketcap.com/currencies/%s/", q.Slug),
		},
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Price",
				Value:  fmt.Sprintf("$%s (%s%%)", market.FormatUSD(usd.Price), market.FormatPercent(usd.PercentChange24H)),
				Inline: true,
			},
			{
				Name:   "Market Cap",
				Value:  fmt.Sprintf("$%s", market.FormatUSD(usd.MarketCap)),
				Inline: true,
			},
			{
				Name:   "Volume 24h",
				Value:  fmt.Sprintf("$%s", market.FormatUSD(usd.Volume24H)),
				Inline: true,
			},
			{
				Name:   "Circulating Supply",
				Value:  fmt.Sprintf("%s / %s", market.FormatUSD(q.CirculatingSupply), supply),
				Inline: true,
			},
		},
	}
}

func (b *Bot) handleDelete(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if !b.isAdmin(user) {
		b.respondText(ctx, i, "You are not allowed to do that.", true)
		return
	}

	target := optionString(i, "target")
	channelID, messageID, ok := strings.Cut(target, ",")
	channelID = strings.TrimSpace(channelID)
	messageID = strings.TrimSpace(messageID)
	if !ok || channelID == "" || messageID == "" {
		b.respondText(ctx, i, "Expected channel_id,message_id", true)
		return
	}

	if err := b.session.ChannelMessageDelete(channelID, messageID); err != nil {
		b.logger.Error(ctx, "delete failed", "channel", channelID, "message", messageID, "error", err)
		b.respondText(ctx, i, "Delete failed.", true)
		return
	}
	b.respondText(ctx, i, "Deleted.", true)
}

func (b *Bot) handleSay(ctx context.Context, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if !b.isAdmin(user) {
		b.respondText(ctx, i, "You are not allowed to do that.", true)
		return
	}

	channelID := strings.TrimSpace(optionString(i, "channel_id"))
	message := optionString(i, "message")
	if _, err := b.session.ChannelMessageSend(channelID, message); err != nil {
		b.logger.Error(ctx, "say failed", "channel", channelID, "error", err)
		b.respondText(ctx, i, "Send failed.", true)
		return
	}
	b.respondText(ctx, i, "Sent.", true)
}

func (b *Bot) handleHelp(ctx context.Context, i *discordgo.InteractionCreate) {
	var sb strings.Builder
	sb.WriteString("**Commands**\n")
	for _, p := range b.providers {
		fmt.Fprintf(&sb, "`/%s <message>` — chat with %s\n", p.Command, p.Name)
		fmt.Fprintf(&sb, "`/%s` — make %s forget the conversation\n", p.ResetCommand, p.Name)
	}
	if b.market != nil {
		sb.WriteString("`/price <symbol>` — look up a cryptocurrency price\n")
	}
	sb.WriteString("`/help` — this message\n")
	b.respondText(ctx, i, sb.String(), false)
}

func (b *Bot) isAdmin(user *discordgo.User) bool {
	return user != nil && b.cfg.AdminUser != "" && user.Username == b.cfg.AdminUser
}

func (b *Bot) deferResponse(i *discordgo.InteractionCreate) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) respondText(ctx context.Context, i *discordgo.InteractionCreate, text string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: text}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error(ctx, "respond failed", "error", err)
	}
}

func (b *Bot) followupText(ctx context.Context, i *discordgo.InteractionCreate, text string) {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: text}); err != nil {
		b.logger.Error(ctx, "followup failed", "error", err)
	}
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func optionString(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}
