package bot

import (
	"context"
	"path"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/sharetabbot/internal/flow"
	"github.com/susu3304/sharetabbot/internal/receipt"
	"github.com/susu3304/sharetabbot/internal/render"
	"github.com/susu3304/sharetabbot/internal/split"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.log.Info().Str("user", event.User.Username).Msg("connected to discord")

	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			b.log.Error().Err(err).Str("guild", guild.ID).Msg("failed to register commands")
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.log.Debug().Str("guild", event.ID).Str("name", event.Name).Msg("guild available, ensuring commands")
	if err := b.registerGuildCommands(event.ID); err != nil {
		b.log.Error().Err(err).Str("guild", event.ID).Msg("failed to register commands")
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, commandDefinitions())
	return err
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if b.handler == nil {
		return
	}
	ev, ok := eventFromMessage(m.Message)
	if !ok {
		return
	}
	b.dispatch(context.Background(), ev)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.handler == nil {
		return
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var (
		kind flow.Kind
		ack  string
	)
	switch i.ApplicationCommandData().Name {
	case commandSplit:
		kind, ack = flow.KindStart, "🧾 Starting a new bill split."
	case commandCancel:
		kind, ack = flow.KindCancel, "Cancelling the split in progress."
	case commandHelp:
		if err := s.InteractionRespond(i.Interaction, ephemeral(render.Welcome().Text)); err != nil {
			b.log.Warn().Err(err).Msg("failed to answer help")
		}
		return
	default:
		return
	}
	if err := s.InteractionRespond(i.Interaction, ephemeral(ack)); err != nil {
		b.log.Warn().Err(err).Msg("failed to acknowledge command")
	}
	b.dispatch(context.Background(), flow.Event{ConversationID: i.ChannelID, Kind: kind})
}

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	c, ok := split.ParseChoice(i.MessageComponentData().CustomID)
	if !ok {
		if err := s.InteractionRespond(i.Interaction, ephemeral("This button is no longer valid.")); err != nil {
			b.log.Warn().Err(err).Msg("failed to answer stale button")
		}
		return
	}
	// Acknowledge first; replies either redraw this message or are posted below it.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to acknowledge button")
	}
	ctx := withInteraction(context.Background(), i.Interaction)
	b.dispatch(ctx, flow.Event{ConversationID: i.ChannelID, Kind: flow.KindChoice, Choice: c})
}

func (b *Bot) dispatch(ctx context.Context, ev flow.Event) {
	if err := b.handler.Handle(ctx, ev); err != nil {
		b.log.Error().Err(err).
			Str("conversation", ev.ConversationID).
			Stringer("kind", ev.Kind).
			Msg("failed to handle event")
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".heic": true}

func isImage(a *discordgo.MessageAttachment) bool {
	if strings.HasPrefix(a.ContentType, "image/") {
		return true
	}
	return imageExts[strings.ToLower(path.Ext(a.Filename))]
}

// eventFromMessage maps a channel message to a text or photo event. Messages
// from bots, and messages with neither text nor an image, yield false.
func eventFromMessage(m *discordgo.Message) (flow.Event, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return flow.Event{}, false
	}
	for _, a := range m.Attachments {
		if a == nil || !isImage(a) {
			continue
		}
		return flow.Event{
			ConversationID: m.ChannelID,
			Kind:           flow.KindPhoto,
			Photo:          &receipt.PhotoRef{URL: a.URL, Filename: a.Filename, ContentType: a.ContentType},
		}, true
	}
	content := strings.TrimSpace(m.Content)
	if content == "" {
		return flow.Event{}, false
	}
	return flow.Event{ConversationID: m.ChannelID, Kind: flow.KindText, Text: content}, true
}
