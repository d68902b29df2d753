package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/sharetabbot/internal/flow"
	"github.com/susu3304/sharetabbot/internal/logging"
	"github.com/susu3304/sharetabbot/internal/render"
	"github.com/susu3304/sharetabbot/internal/split"
)

func TestEventFromMessage(t *testing.T) {
	user := &discordgo.User{ID: "u1"}

	ev, ok := eventFromMessage(&discordgo.Message{ChannelID: "c1", Author: user, Content: "  50000 "})
	require.True(t, ok)
	assert.Equal(t, flow.Event{ConversationID: "c1", Kind: flow.KindText, Text: "50000"}, ev)

	ev, ok = eventFromMessage(&discordgo.Message{
		ChannelID: "c1",
		Author:    user,
		Content:   "here you go",
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn/notes.txt", Filename: "notes.txt", ContentType: "text/plain"},
			{URL: "https://cdn/r.JPG", Filename: "r.JPG"},
		},
	})
	require.True(t, ok)
	assert.Equal(t, flow.KindPhoto, ev.Kind)
	require.NotNil(t, ev.Photo)
	assert.Equal(t, "https://cdn/r.JPG", ev.Photo.URL)
	assert.Equal(t, "r.JPG", ev.Photo.Filename)

	_, ok = eventFromMessage(&discordgo.Message{ChannelID: "c1", Author: &discordgo.User{Bot: true}, Content: "hi"})
	assert.False(t, ok, "bot messages are ignored")

	_, ok = eventFromMessage(&discordgo.Message{ChannelID: "c1", Author: user, Content: "   "})
	assert.False(t, ok)

	_, ok = eventFromMessage(&discordgo.Message{ChannelID: "c1", Content: "no author"})
	assert.False(t, ok)
}

func TestMessageSendLayout(t *testing.T) {
	sess := &split.Session{
		Items:        []split.LineItem{{Name: "Coffee", Price: 10000, Quantity: 1}},
		Participants: []string{"A", "B", "C", "D", "E", "F"},
	}
	data := messageSend(render.ItemAssignment(sess))

	// 5 controls + 6 toggles = 11 buttons -> rows of 5, 5, 1.
	require.Len(t, data.Components, 3)
	controls := data.Components[0].(discordgo.ActionsRow)
	require.Len(t, controls.Components, 5)
	assert.Equal(t, "next_item", controls.Components[0].(discordgo.Button).CustomID)
	back := controls.Components[4].(discordgo.Button)
	assert.Equal(t, "back", back.CustomID)
	assert.Equal(t, discordgo.SecondaryButton, back.Style)

	toggle := data.Components[1].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, "toggle:0", toggle.CustomID)
	assert.Equal(t, discordgo.PrimaryButton, toggle.Style)
	last := data.Components[2].(discordgo.ActionsRow)
	require.Len(t, last.Components, 1)
	assert.Equal(t, "toggle:5", last.Components[0].(discordgo.Button).CustomID)
}

func TestMessageSendKeepsControlsForLargeGroups(t *testing.T) {
	sess := &split.Session{Items: []split.LineItem{{Name: "Coffee", Price: 10000, Quantity: 1}}}
	for i := 0; i < 23; i++ {
		sess.Participants = append(sess.Participants, string(rune('A'+i)))
	}
	data := messageSend(render.ItemAssignment(sess))

	require.Len(t, data.Components, maxRows)
	var ids []string
	for _, row := range data.Components {
		for _, c := range row.(discordgo.ActionsRow).Components {
			ids = append(ids, c.(discordgo.Button).CustomID)
		}
	}
	assert.Len(t, ids, 25)
	assert.Contains(t, ids, "next_item")
	assert.Contains(t, ids, "skip_item")
	assert.Contains(t, ids, "toggle:19")
	assert.NotContains(t, ids, "toggle:20")
}

func TestMessageSendCapsRows(t *testing.T) {
	msg := render.Message{Text: "many"}
	for i := 0; i < 40; i++ {
		msg.Choices = append(msg.Choices, render.Choice{Label: "x", Token: split.Toggle(i).Token()})
	}
	data := messageSend(msg)
	require.Len(t, data.Components, maxRows)
	for _, row := range data.Components {
		assert.Len(t, row.(discordgo.ActionsRow).Components, maxButtonsPerRow)
	}
}

func TestMessageSendPlainText(t *testing.T) {
	data := messageSend(render.Expired())
	assert.Equal(t, render.Expired().Text, data.Content)
	assert.Empty(t, data.Components)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Len(t, []rune(truncate(string(make([]rune, 3000)), maxContentLen)), maxContentLen)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type fakeSession struct {
	mu      sync.Mutex
	errs    []error
	calls   int
	sent    []*discordgo.MessageSend
	editErr error
	edits   []*discordgo.WebhookEdit
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func newTestSender(fs *fakeSession) *channelSender {
	s := newChannelSender(fs, logging.Nop())
	s.pause = func() time.Duration { return 0 }
	return s
}

func TestSenderRetriesTimeouts(t *testing.T) {
	fs := &fakeSession{errs: []error{timeoutErr{}}}
	require.NoError(t, newTestSender(fs).Send(context.Background(), "c1", render.InputMethod()))
	assert.Equal(t, 2, fs.calls)
	require.Len(t, fs.sent, 1)
	assert.Equal(t, render.InputMethod().Text, fs.sent[0].Content)
}

func TestSenderGivesUp(t *testing.T) {
	fs := &fakeSession{errs: []error{timeoutErr{}, timeoutErr{}, nil}}
	err := newTestSender(fs).Send(context.Background(), "c1", render.Busy())
	assert.Error(t, err)
	assert.Equal(t, 2, fs.calls)

	permanent := errors.New("missing access")
	fs = &fakeSession{errs: []error{permanent}}
	err = newTestSender(fs).Send(context.Background(), "c1", render.Busy())
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, fs.calls)
}

func TestSenderStopsRetryOnCancel(t *testing.T) {
	fs := &fakeSession{errs: []error{timeoutErr{}}}
	s := newChannelSender(fs, logging.Nop())
	s.pause = func() time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Send(ctx, "c1", render.Busy())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fs.calls)
}

func TestSenderRedrawsPressedMessage(t *testing.T) {
	fs := &fakeSession{}
	s := newTestSender(fs)
	ctx := withInteraction(context.Background(), &discordgo.Interaction{ChannelID: "c1"})
	msg := render.Message{Text: "redrawn", Choices: []render.Choice{{Label: "Next", Token: "next_item"}}}

	require.NoError(t, s.Send(ctx, "c1", msg.Replacing()))
	require.Len(t, fs.edits, 1)
	assert.Equal(t, "redrawn", *fs.edits[0].Content)
	require.NotNil(t, fs.edits[0].Components)
	assert.Len(t, *fs.edits[0].Components, 1)
	assert.Empty(t, fs.sent)

	// Without Replace the reply is posted even during a button press.
	require.NoError(t, s.Send(ctx, "c1", msg))
	assert.Len(t, fs.sent, 1)
	assert.Len(t, fs.edits, 1)
}

func TestSenderRedrawFallsBackToPost(t *testing.T) {
	fs := &fakeSession{editErr: errors.New("unknown interaction")}
	s := newTestSender(fs)

	ctx := withInteraction(context.Background(), &discordgo.Interaction{ChannelID: "c1"})
	require.NoError(t, s.Send(ctx, "c1", render.Busy().Replacing()))
	assert.Len(t, fs.sent, 1)

	// No interaction in flight: a typed command never edits.
	fs = &fakeSession{}
	require.NoError(t, newTestSender(fs).Send(context.Background(), "c1", render.Busy().Replacing()))
	assert.Empty(t, fs.edits)
	assert.Len(t, fs.sent, 1)
}

func TestCommandDefinitions(t *testing.T) {
	var names []string
	for _, c := range commandDefinitions() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"split", "cancel", "help"}, names)
}

type fakeHandler struct {
	mu      sync.Mutex
	cutoffs []time.Time
	events  []flow.Event
}

func (f *fakeHandler) Handle(_ context.Context, ev flow.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeHandler) Expire(_ context.Context, cutoff time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return []string{"c1"}, nil
}

func TestSweeperTick(t *testing.T) {
	h := &fakeHandler{}
	w := newSweeper(h, 30*time.Minute, logging.Nop())
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.tick(context.Background())
	require.Len(t, h.cutoffs, 1)
	assert.Equal(t, now.Add(-30*time.Minute), h.cutoffs[0])
	assert.Equal(t, time.Minute, w.interval)
}

func TestSweeperShortIdleShortensInterval(t *testing.T) {
	w := newSweeper(&fakeHandler{}, 10*time.Second, logging.Nop())
	assert.Equal(t, 10*time.Second, w.interval)
}

func TestSweeperRuns(t *testing.T) {
	h := &fakeHandler{}
	w := newSweeper(h, time.Hour, logging.Nop())
	w.interval = 5 * time.Millisecond
	w.start()
	defer w.stop()

	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.cutoffs) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestSweeperDisabled(t *testing.T) {
	w := newSweeper(&fakeHandler{}, 0, logging.Nop())
	w.start()
	assert.Nil(t, w.ticker)
	w.stop()
}
