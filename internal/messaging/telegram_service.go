package messaging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
	"github.com/BTreeMap/FeedbackBridge/internal/telegram"
)

// Constants for TelegramService configuration
const (
	// DefaultChannelBufferSize defines the buffer size for the event channel.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the timeout for non-blocking channel sends.
	DefaultChannelTimeout = 1 * time.Second
)

// TelegramService implements Service using the Telegram Bot API client.
type TelegramService struct {
	client *telegram.Client
	events chan models.Event
	done   chan struct{}
}

// NewTelegramService creates a TelegramService wrapping the given client.
func NewTelegramService(client *telegram.Client) *TelegramService {
	return &TelegramService{
		client: client,
		events: make(chan models.Event, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}
}

// SendText delivers a text message via the Telegram client.
func (s *TelegramService) SendText(ctx context.Context, chatID int64, text string, opts ...SendOption) (int, error) {
	cfg := ApplySendOptions(opts...)
	return s.client.SendText(ctx, chatID, text, cfg.ReplyToMessageID, cfg.DisableLinkPreview)
}

// CopyMessage duplicates content via the Telegram client.
func (s *TelegramService) CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64, caption string) (int, error) {
	return s.client.CopyMessage(ctx, fromChatID, messageID, toChatID, caption)
}

// Start begins consuming the update stream in the background.
func (s *TelegramService) Start(ctx context.Context) error {
	slog.Debug("TelegramService Start invoked")
	go s.handleUpdates(ctx)
	return nil
}

// Stop closes the update stream and the event channel.
func (s *TelegramService) Stop() error {
	slog.Info("TelegramService Stop invoked")
	s.client.StopReceivingUpdates()
	close(s.done)
	return nil
}

// Events returns the stream of inbound message events.
func (s *TelegramService) Events() <-chan models.Event {
	return s.events
}

// handleUpdates converts Bot API updates into transport events until the
// stream closes or the context is cancelled.
func (s *TelegramService) handleUpdates(ctx context.Context) {
	defer close(s.events)
	updates := s.client.UpdatesChan()
	slog.Debug("TelegramService update loop started")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				slog.Debug("TelegramService update stream closed")
				return
			}
			if update.Message == nil || update.Message.From == nil {
				// Edited messages, callbacks and channel posts are out of scope.
				continue
			}
			s.emit(eventFromMessage(update.Message))
		case <-s.done:
			slog.Debug("TelegramService update loop stopping")
			return
		case <-ctx.Done():
			slog.Debug("TelegramService update loop stopping due to context cancellation")
			return
		}
	}
}

// emit forwards an event without blocking the update loop indefinitely.
func (s *TelegramService) emit(ev models.Event) {
	select {
	case s.events <- ev:
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TelegramService event channel blocked, dropping event",
			"sender_id", ev.SenderID, "message_id", ev.MessageID, "timeout", DefaultChannelTimeout)
	}
}

// eventFromMessage flattens a Bot API message into a transport event.
func eventFromMessage(msg *tgbotapi.Message) models.Event {
	ev := models.Event{
		SenderID:   msg.From.ID,
		SenderName: displayName(msg.From),
		ChatID:     msg.Chat.ID,
		MessageID:  msg.MessageID,
		Time:       int64(msg.Date),
		Text:       msg.Text,
		IsText:     msg.Text != "",
		Service:    isServiceMessage(msg),
	}
	if msg.ReplyToMessage != nil {
		ref := &models.ReplyRef{MessageID: msg.ReplyToMessage.MessageID}
		if msg.ReplyToMessage.From != nil {
			ref.SenderID = msg.ReplyToMessage.From.ID
		}
		ev.ReplyTo = ref
	}
	return ev
}

// isServiceMessage reports whether the message is a platform-generated
// notification (membership changes, chat metadata changes, pinning) rather
// than user-authored content.
func isServiceMessage(msg *tgbotapi.Message) bool {
	return msg.NewChatMembers != nil ||
		msg.LeftChatMember != nil ||
		msg.NewChatTitle != "" ||
		msg.NewChatPhoto != nil ||
		msg.DeleteChatPhoto ||
		msg.GroupChatCreated ||
		msg.SuperGroupChatCreated ||
		msg.ChannelChatCreated ||
		msg.MigrateFromChatID != 0 ||
		msg.MigrateToChatID != 0 ||
		msg.PinnedMessage != nil
}

// displayName composes the sender's visible name from first and last name.
func displayName(u *tgbotapi.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return strings.TrimSpace(name)
}
