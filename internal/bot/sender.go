package bot

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/logging"
	"github.com/susu3304/sharetabbot/internal/render"
)

const (
	maxContentLen    = 2000
	maxButtonsPerRow = 5
	maxRows          = 5
	maxLabelLen      = 80
)

// Minimal session interface for sending channel messages.
type channelSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type interactionKey struct{}

// withInteraction remembers the button press being handled so a reply can
// redraw the message that carried the button.
func withInteraction(ctx context.Context, i *discordgo.Interaction) context.Context {
	return context.WithValue(ctx, interactionKey{}, i)
}

func interactionFrom(ctx context.Context) *discordgo.Interaction {
	i, _ := ctx.Value(interactionKey{}).(*discordgo.Interaction)
	return i
}

type channelSender struct {
	session channelSession
	log     *logging.Logger
	pause   func() time.Duration
}

func newChannelSender(session channelSession, log *logging.Logger) *channelSender {
	return &channelSender{
		session: session,
		log:     log,
		pause: func() time.Duration {
			return time.Duration(300+rand.Intn(500)) * time.Millisecond
		},
	}
}

func (c *channelSender) Send(ctx context.Context, channelID string, msg render.Message) error {
	data := messageSend(msg)
	if msg.Replace {
		if i := interactionFrom(ctx); i != nil && i.ChannelID == channelID {
			err := c.edit(ctx, i, data)
			if err == nil {
				return nil
			}
			c.log.Debug().Err(err).Str("channel", channelID).Msg("redraw failed, posting instead")
		}
	}
	return c.sendWithRetry(ctx, channelID, data)
}

// edit rewrites the message holding the pressed button. The interaction
// must already have been answered with a deferred update.
func (c *channelSender) edit(ctx context.Context, i *discordgo.Interaction, data *discordgo.MessageSend) error {
	editCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content:    &data.Content,
		Components: &data.Components,
	}, discordgo.WithContext(editCtx))
	return errors.Wrap(err, "edit interaction message")
}

func (c *channelSender) sendWithRetry(ctx context.Context, channelID string, data *discordgo.MessageSend) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := c.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			break
		}
		if attempt == maxAttempts {
			break
		}
		c.log.Debug().Err(err).Int("attempt", attempt).Str("channel", channelID).Msg("retrying send")
		timer := time.NewTimer(c.pause())
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrapf(ctx.Err(), "send message to channel %s", channelID)
		case <-timer.C:
		}
	}
	return errors.Wrapf(lastErr, "send message to channel %s", channelID)
}

func isTemporaryOrTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// messageSend lays out choices as buttons, five to a row. Discord allows at
// most five rows; choices past that are dropped.
func messageSend(msg render.Message) *discordgo.MessageSend {
	data := &discordgo.MessageSend{Content: truncate(msg.Text, maxContentLen)}

	var row []discordgo.MessageComponent
	for _, ch := range msg.Choices {
		if len(data.Components) == maxRows {
			break
		}
		style := discordgo.PrimaryButton
		if ch.Token == "back" {
			style = discordgo.SecondaryButton
		}
		row = append(row, discordgo.Button{
			Label:    truncate(ch.Label, maxLabelLen),
			Style:    style,
			CustomID: ch.Token,
		})
		if len(row) == maxButtonsPerRow {
			data.Components = append(data.Components, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 && len(data.Components) < maxRows {
		data.Components = append(data.Components, discordgo.ActionsRow{Components: row})
	}
	return data
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
