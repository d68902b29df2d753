package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/flow"
	"github.com/susu3304/sharetabbot/internal/logging"
)

// Handler is the conversation engine as seen from the transport.
type Handler interface {
	Handle(ctx context.Context, ev flow.Event) error
	Expire(ctx context.Context, cutoff time.Time) ([]string, error)
}

type Bot struct {
	session *discordgo.Session
	sender  *channelSender
	handler Handler
	sweeper *sweeper
	idle    time.Duration
	log     *logging.Logger
}

// New creates the Discord session. Events are not handled until Start.
func New(token string, idleTimeout time.Duration, log *logging.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "create discord session")
	}
	if log == nil {
		log = logging.Nop()
	}

	b := &Bot{
		session: session,
		sender:  newChannelSender(session, log),
		idle:    idleTimeout,
		log:     log,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return b, nil
}

// Sender delivers engine replies to Discord channels.
func (b *Bot) Sender() flow.Sender {
	return b.sender
}

// Start connects to Discord and begins feeding events to h.
func (b *Bot) Start(h Handler) error {
	b.handler = h
	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "open discord session")
	}
	b.sweeper = newSweeper(h, b.idle, b.log)
	b.sweeper.start()
	b.log.Info().Msg("discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.sweeper.stop()
	return b.session.Close()
}
