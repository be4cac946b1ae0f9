// Package telegram wraps the Telegram Bot API client for FeedbackBridge.
//
// It provides the low-level send/copy/poll operations; the messaging
// package adapts them to the transport interface the relay engine expects.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Constants for Telegram client configuration
const (
	// DefaultUpdateTimeout is the long-polling timeout in seconds.
	DefaultUpdateTimeout = 60
	// ParseModeHTML is the parse mode applied to every outgoing text.
	ParseModeHTML = "HTML"
)

// Opts holds configuration options for the Telegram client.
type Opts struct {
	Token         string // bot credential issued by BotFather
	APIEndpoint   string // override for self-hosted Bot API servers
	Debug         bool   // enable the library's request/response debug log
	UpdateTimeout int    // long-polling timeout in seconds
}

// Option defines a configuration option for the Telegram client.
type Option func(*Opts)

// WithToken sets the bot credential.
func WithToken(token string) Option {
	return func(o *Opts) {
		o.Token = token
	}
}

// WithAPIEndpoint points the client at a self-hosted Bot API server.
func WithAPIEndpoint(endpoint string) Option {
	return func(o *Opts) {
		o.APIEndpoint = endpoint
	}
}

// WithDebug enables the underlying library's debug logging.
func WithDebug() Option {
	return func(o *Opts) {
		o.Debug = true
	}
}

// WithUpdateTimeout sets the long-polling timeout in seconds.
func WithUpdateTimeout(seconds int) Option {
	return func(o *Opts) {
		o.UpdateTimeout = seconds
	}
}

// Client wraps the Bot API client for modular use.
type Client struct {
	bot           *tgbotapi.BotAPI
	updateTimeout int
}

// NewClient creates a new Telegram client, applying any provided options.
// It authenticates against the Bot API immediately so a bad credential
// fails at startup rather than on the first send.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Telegram NewClient options set", "token_set", cfg.Token != "", "endpoint_set", cfg.APIEndpoint != "", "debug", cfg.Debug)

	if cfg.Token == "" {
		slog.Error("Telegram bot token not set")
		return nil, fmt.Errorf("telegram bot token not set")
	}

	var bot *tgbotapi.BotAPI
	var err error
	if cfg.APIEndpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, cfg.APIEndpoint)
	} else {
		bot, err = tgbotapi.NewBotAPI(cfg.Token)
	}
	if err != nil {
		slog.Error("Failed to authenticate against the Telegram Bot API", "error", err)
		return nil, fmt.Errorf("failed to authenticate against the Telegram Bot API: %w", err)
	}
	bot.Debug = cfg.Debug

	timeout := cfg.UpdateTimeout
	if timeout <= 0 {
		timeout = DefaultUpdateTimeout
	}

	slog.Info("Telegram client authenticated", "bot_username", bot.Self.UserName, "update_timeout", timeout)
	return &Client{bot: bot, updateTimeout: timeout}, nil
}

// SendText sends an HTML-formatted text message. replyToMessageID of zero
// means no threading; disableLinkPreview suppresses URL previews. Returns
// the id of the delivered message.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, replyToMessageID int, disableLinkPreview bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = ParseModeHTML
	msg.DisableWebPagePreview = disableLinkPreview
	if replyToMessageID != 0 {
		msg.ReplyToMessageID = replyToMessageID
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		slog.Error("Telegram SendText failed", "error", err, "chat_id", chatID)
		return 0, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	slog.Debug("Telegram SendText succeeded", "chat_id", chatID, "message_id", sent.MessageID)
	return sent.MessageID, nil
}

// CopyMessage duplicates arbitrary content (media, documents, stickers)
// into another chat with an optional HTML caption. Returns the id of the
// delivered copy.
func (c *Client) CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64, caption string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	copyCfg := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	if caption != "" {
		copyCfg.Caption = caption
		copyCfg.ParseMode = ParseModeHTML
	}

	sent, err := c.bot.CopyMessage(copyCfg)
	if err != nil {
		slog.Error("Telegram CopyMessage failed", "error", err, "from_chat_id", fromChatID, "to_chat_id", toChatID, "message_id", messageID)
		return 0, fmt.Errorf("failed to copy message %d to chat %d: %w", messageID, toChatID, err)
	}
	slog.Debug("Telegram CopyMessage succeeded", "to_chat_id", toChatID, "message_id", sent.MessageID)
	return sent.MessageID, nil
}

// UpdatesChan opens the long-polling update stream.
func (c *Client) UpdatesChan() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.updateTimeout
	slog.Debug("Telegram opening update stream", "timeout", c.updateTimeout)
	return c.bot.GetUpdatesChan(u)
}

// StopReceivingUpdates closes the update stream.
func (c *Client) StopReceivingUpdates() {
	slog.Debug("Telegram stopping update stream")
	c.bot.StopReceivingUpdates()
}
