package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatMasIt/birthdaybot/internal/conversation"
	"github.com/MatMasIt/birthdaybot/internal/domain"
)

type fakeClient struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	err   error
	block chan struct{}
}

func (f *fakeClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

type fakeEngine struct {
	gotID    domain.Identity
	gotEvent conversation.Event
	replies  []conversation.Reply
	err      error
	calls    int
}

func (f *fakeEngine) Handle(_ context.Context, id domain.Identity, ev conversation.Event) ([]conversation.Reply, error) {
	f.calls++
	f.gotID, f.gotEvent = id, ev
	return f.replies, f.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHandleUpdate_RoutesAndReplies(t *testing.T) {
	client := &fakeClient{}
	engine := &fakeEngine{replies: []conversation.Reply{
		{Text: "*hi*", Markdown: true, Keyboard: [][]string{{"a", "b"}, {"c"}}, OneTime: true, Placeholder: "pick"},
		{Text: "plain"},
	}}
	h := NewHandler(client, engine, discard(), time.Second)

	upd := update(7, conversation.LabelHome)
	upd.Message.From.UserName = "alice"
	upd.Message.From.FirstName = "Alice"
	upd.Message.From.LanguageCode = "it"
	h.HandleUpdate(context.Background(), upd)

	assert.Equal(t, domain.Identity{ID: 7, Username: "alice", FirstName: "Alice", LanguageCode: "it"}, engine.gotID)
	assert.Equal(t, conversation.IntentHome, engine.gotEvent.Intent)

	require.Len(t, client.sent, 2)
	first := client.sent[0]
	assert.Equal(t, int64(7), first.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, first.ParseMode)
	kb, ok := first.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.Keyboard, 2)
	assert.Equal(t, "b", kb.Keyboard[0][1].Text)
	assert.True(t, kb.OneTimeKeyboard)
	assert.Equal(t, "pick", kb.InputFieldPlaceholder)

	second := client.sent[1]
	assert.Empty(t, second.ParseMode)
	assert.Nil(t, second.ReplyMarkup)
}

func TestHandleUpdate_IgnoresGroupsAndEmpty(t *testing.T) {
	engine := &fakeEngine{}
	h := NewHandler(&fakeClient{}, engine, discard(), time.Second)

	group := update(7, "hello")
	group.Message.Chat.Type = "group"
	h.HandleUpdate(context.Background(), group)
	h.HandleUpdate(context.Background(), tgbotapi.Update{})

	assert.Zero(t, engine.calls)
}

func TestHandleUpdate_EngineErrorStillReplies(t *testing.T) {
	client := &fakeClient{}
	engine := &fakeEngine{replies: []conversation.Reply{{Text: "oops"}}, err: errors.New("db down")}
	h := NewHandler(client, engine, discard(), time.Second)

	h.HandleUpdate(context.Background(), update(1, "x"))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "oops", client.sent[0].Text)
}

func TestSend_Markdown(t *testing.T) {
	client := &fakeClient{}
	h := NewHandler(client, &fakeEngine{}, discard(), time.Second)

	require.NoError(t, h.Send(context.Background(), 3, "*x*", true))
	require.Len(t, client.sent, 1)
	assert.Equal(t, tgbotapi.ModeMarkdown, client.sent[0].ParseMode)
}

func TestSend_PropagatesError(t *testing.T) {
	h := NewHandler(&fakeClient{err: errors.New("forbidden")}, &fakeEngine{}, discard(), time.Second)
	assert.EqualError(t, h.Send(context.Background(), 3, "x", false), "forbidden")
}

func TestSend_Timeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	h := NewHandler(&fakeClient{block: block}, &fakeEngine{}, discard(), 20*time.Millisecond)

	err := h.Send(context.Background(), 3, "x", false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
