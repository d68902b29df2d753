package flow

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/logging"
	"github.com/susu3304/sharetabbot/internal/pricing"
	"github.com/susu3304/sharetabbot/internal/receipt"
	"github.com/susu3304/sharetabbot/internal/render"
	"github.com/susu3304/sharetabbot/internal/split"
	"github.com/susu3304/sharetabbot/internal/store"
)

// Sender delivers replies to a conversation.
type Sender interface {
	Send(ctx context.Context, conversationID string, msg render.Message) error
}

// Ingester turns a photo into a receipt.
type Ingester interface {
	Ingest(ctx context.Context, photo receipt.PhotoRef) (*receipt.Receipt, error)
}

// Ledger records finished splits.
type Ledger interface {
	RecordSplit(ctx context.Context, conversationID string, method pricing.Method, participants []string, res *pricing.Result) error
}

// Engine runs Advance against the session store and the collaborators.
// Events for one conversation are handled one at a time; an event arriving
// while the previous one is still running is dropped. Button presses, photos
// and commands get a notice; plain chat does not, as it may not be meant for
// the bot.
type Engine struct {
	store    store.Store
	inflight *store.Inflight
	ingester Ingester
	calc     pricing.Calculator
	sender   Sender
	ledger   Ledger
	log      *logging.Logger
}

type Option func(*Engine)

func WithLedger(l Ledger) Option {
	return func(e *Engine) { e.ledger = l }
}

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(st store.Store, inflight *store.Inflight, ingester Ingester, calc pricing.Calculator, sender Sender, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		inflight: inflight,
		ingester: ingester,
		calc:     calc,
		sender:   sender,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one inbound event to completion, including any
// collaborator call it triggers. Replies are sent as they are produced.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	id := ev.ConversationID
	log := e.log.Conversation(id)
	release, ok := e.inflight.TryAcquire(id)
	if !ok {
		log.Debug().Stringer("kind", ev.Kind).Msg("conversation busy, event dropped")
		if ev.Kind != KindText {
			e.send(ctx, id, render.Busy())
		}
		return nil
	}
	defer release()

	sess, err := e.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		sess = nil
	} else if err != nil {
		return errors.Wrap(err, "load session")
	}

	for {
		from := stepOf(sess)
		tr := Advance(sess, ev)
		if err := e.commit(ctx, id, tr.Session); err != nil {
			return err
		}
		log.Debug().
			Stringer("kind", ev.Kind).
			Str("from", from).
			Str("to", stepOf(tr.Session)).
			Msg("transition")

		for _, msg := range tr.Replies {
			e.send(ctx, id, msg)
		}
		if tr.Effect == nil {
			return nil
		}
		ev = e.run(ctx, id, tr.Session, tr.Effect)
		sess = tr.Session
	}
}

func stepOf(s *split.Session) string {
	if s == nil {
		return "none"
	}
	return s.Step.String()
}

func (e *Engine) commit(ctx context.Context, id string, sess *split.Session) error {
	if sess == nil {
		return errors.Wrap(e.store.Delete(ctx, id), "delete session")
	}
	return errors.Wrap(e.store.Set(ctx, id, sess), "save session")
}

func (e *Engine) send(ctx context.Context, id string, msg render.Message) {
	if err := e.sender.Send(ctx, id, msg); err != nil {
		e.log.Conversation(id).Warn().Err(err).Msg("failed to send reply")
	}
}

// run performs a collaborator call and turns its outcome into a completion event.
func (e *Engine) run(ctx context.Context, id string, sess *split.Session, eff Effect) Event {
	log := e.log.Conversation(id)
	switch eff := eff.(type) {
	case EffectReadReceipt:
		rec, err := e.ingester.Ingest(ctx, eff.Photo)
		if err != nil {
			log.Warn().Err(err).Msg("receipt ingestion failed")
		}
		return Event{ConversationID: id, Kind: KindReceiptRead, Receipt: rec, Err: err}

	case EffectCalculate:
		res, err := e.calc.Calculate(ctx, eff.Request)
		if err != nil {
			log.Warn().Err(err).Stringer("method", eff.Method).Msg("split calculation failed")
		} else if e.ledger != nil {
			if lerr := e.ledger.RecordSplit(ctx, id, eff.Method, sess.Participants, res); lerr != nil {
				log.Error().Err(lerr).Msg("failed to record split")
			}
		}
		return Event{ConversationID: id, Kind: KindCalculated, Method: eff.Method, Result: res, Err: err}
	}
	return Event{ConversationID: id}
}

// Expire deletes sessions idle since cutoff and tells their conversations.
// Conversations with an event in flight are left alone.
func (e *Engine) Expire(ctx context.Context, cutoff time.Time) ([]string, error) {
	ids, err := e.store.Idle(ctx, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "list idle sessions")
	}
	var expired []string
	for _, id := range ids {
		release, ok := e.inflight.TryAcquire(id)
		if !ok {
			continue
		}
		// The session may have moved on since Idle was listed.
		sess, err := e.store.Get(ctx, id)
		if err != nil || !sess.UpdatedAt.Before(cutoff) {
			release()
			continue
		}
		err = e.store.Delete(ctx, id)
		release()
		if err != nil {
			e.log.Conversation(id).Warn().Err(err).Msg("failed to expire session")
			continue
		}
		expired = append(expired, id)
		e.send(ctx, id, render.Abandoned())
	}
	if len(expired) > 0 {
		e.log.Info().Int("count", len(expired)).Msg("expired idle sessions")
	}
	return expired, nil
}
