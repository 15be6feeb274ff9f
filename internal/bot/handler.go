package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MatMasIt/birthdaybot/internal/conversation"
	"github.com/MatMasIt/birthdaybot/internal/domain"
)

// Client is the part of *tgbotapi.BotAPI the handler uses.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Engine answers routed events.
type Engine interface {
	Handle(ctx context.Context, id domain.Identity, ev conversation.Event) ([]conversation.Reply, error)
}

type Handler struct {
	api         Client
	engine      Engine
	log         *slog.Logger
	sendTimeout time.Duration
}

func NewHandler(api Client, engine Engine, log *slog.Logger, sendTimeout time.Duration) *Handler {
	return &Handler{api: api, engine: engine, log: log, sendTimeout: sendTimeout}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}
	// private chats only
	if !msg.Chat.IsPrivate() {
		return
	}

	id := domain.Identity{
		ID:           msg.From.ID,
		Username:     msg.From.UserName,
		FirstName:    msg.From.FirstName,
		LastName:     msg.From.LastName,
		LanguageCode: msg.From.LanguageCode,
	}

	replies, err := h.engine.Handle(ctx, id, ParseEvent(msg.Text))
	if err != nil {
		h.log.Error("handle message", "user_id", id.ID, "err", err)
	}
	for _, r := range replies {
		if err := h.deliver(ctx, newMessage(msg.Chat.ID, r)); err != nil {
			h.log.Warn("send reply", "user_id", id.ID, "err", err)
		}
	}
}

// Send delivers a plain or Markdown text message; the reminder scheduler
// uses it as its transport.
func (h *Handler) Send(ctx context.Context, chatID int64, text string, markdown bool) error {
	return h.deliver(ctx, newMessage(chatID, conversation.Reply{Text: text, Markdown: markdown}))
}

// deliver sends c, giving up when ctx is done or sendTimeout elapses. The
// underlying HTTP call is not cancellable, so it may still complete later.
func (h *Handler) deliver(ctx context.Context, c tgbotapi.Chattable) error {
	if h.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.sendTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.api.Send(c)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newMessage(chatID int64, r conversation.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if r.Keyboard != nil {
		msg.ReplyMarkup = replyKeyboard(r)
	}
	return msg
}

func replyKeyboard(r conversation.Reply) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(r.Keyboard))
	for _, row := range r.Keyboard {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = r.OneTime
	kb.InputFieldPlaceholder = r.Placeholder
	return kb
}
