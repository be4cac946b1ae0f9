// Package messaging provides the transport abstraction consumed by the
// relay engine.
//
// The engine never talks to a chat platform directly: it sends text,
// copies messages and reads inbound events through the Service interface,
// so tests can substitute a fake and the platform client stays replaceable.
package messaging

import (
	"context"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
)

// Service defines a pluggable message transport.
type Service interface {
	// SendText delivers an HTML-formatted text message and returns the id
	// of the delivered message.
	SendText(ctx context.Context, chatID int64, text string, opts ...SendOption) (int, error)

	// CopyMessage duplicates arbitrary content into another chat with an
	// optional caption and returns the id of the delivered copy.
	CopyMessage(ctx context.Context, fromChatID int64, messageID int, toChatID int64, caption string) (int, error)

	// Start begins background processing (e.g., polling for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Events returns the stream of inbound message events.
	Events() <-chan models.Event
}

// SendOpts holds per-send options.
type SendOpts struct {
	ReplyToMessageID   int  // thread the message as a reply; zero means none
	DisableLinkPreview bool // suppress URL previews
}

// SendOption defines a per-send configuration option.
type SendOption func(*SendOpts)

// WithReplyTo threads the outgoing message as a reply to messageID.
func WithReplyTo(messageID int) SendOption {
	return func(o *SendOpts) {
		o.ReplyToMessageID = messageID
	}
}

// WithoutLinkPreview suppresses URL previews on the outgoing message.
func WithoutLinkPreview() SendOption {
	return func(o *SendOpts) {
		o.DisableLinkPreview = true
	}
}

// ApplySendOptions folds a list of options into a SendOpts value.
func ApplySendOptions(opts ...SendOption) SendOpts {
	var cfg SendOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
