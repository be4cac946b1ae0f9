// Package relay implements the message-relay engine for FeedbackBridge.
//
// The engine classifies every inbound event exactly once, in a fixed
// order: command, service message, banned sender, ordinary user message
// (rate limit then fan-out), administrator reply. All platform I/O goes
// through the messaging.Service transport and all durable state through
// the store.Store, so the engine itself stays free of platform detail.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/BTreeMap/FeedbackBridge/internal/config"
	"github.com/BTreeMap/FeedbackBridge/internal/messaging"
	"github.com/BTreeMap/FeedbackBridge/internal/models"
	"github.com/BTreeMap/FeedbackBridge/internal/ratelimit"
	"github.com/BTreeMap/FeedbackBridge/internal/store"
)

// Engine orchestrates inbound-event classification, fan-out to the
// administrator set and reply routing.
type Engine struct {
	svc     messaging.Service
	store   store.Store
	limiter *ratelimit.Limiter
	cfg     *config.Config
}

// NewEngine creates an Engine with its collaborators injected.
func NewEngine(svc messaging.Service, st store.Store, limiter *ratelimit.Limiter, cfg *config.Config) *Engine {
	return &Engine{
		svc:     svc,
		store:   st,
		limiter: limiter,
		cfg:     cfg,
	}
}

// Run consumes transport events until the stream closes or the context is
// cancelled. Both are orderly stops and return nil, so a signal-driven
// shutdown does not read as a failure to the caller. Events are handled
// sequentially, which keeps store mutations on a single logical stream.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("Engine.Run: processing inbound events")
	for {
		select {
		case ev, ok := <-e.svc.Events():
			if !ok {
				slog.Info("Engine.Run: event stream closed")
				return nil
			}
			e.HandleEvent(ctx, ev)
		case <-ctx.Done():
			slog.Info("Engine.Run: stopping due to context cancellation")
			return nil
		}
	}
}

// HandleEvent classifies one inbound event and executes the matching
// action. First match wins.
func (e *Engine) HandleEvent(ctx context.Context, ev models.Event) {
	slog.Debug("Engine.HandleEvent: event received",
		"sender_id", ev.SenderID, "chat_id", ev.ChatID, "message_id", ev.MessageID,
		"is_text", ev.IsText, "service", ev.Service, "is_reply", ev.ReplyTo != nil)

	if e.dispatchCommand(ctx, ev) {
		return
	}

	isAdmin := e.cfg.IsAdmin(ev.SenderID)
	switch {
	case ev.Service && !isAdmin:
		// Membership and chat-metadata notifications carry no relayable
		// content; greet the sender instead of forwarding.
		e.reply(ctx, ev.ChatID, e.cfg.UserGreeting)
	case e.store.IsBanned(ev.SenderID):
		// Silent on purpose: replying would reveal the ban to the sender.
		slog.Debug("Engine.HandleEvent: dropping message from banned user", "sender_id", ev.SenderID)
	case !isAdmin:
		e.relayFromUser(ctx, ev)
	case ev.ReplyTo != nil:
		e.routeAdminReply(ctx, ev)
	default:
		slog.Debug("Engine.HandleEvent: admin message without reply target, ignoring", "sender_id", ev.SenderID)
	}
}

// relayFromUser applies the slow mode and fans the message out to every
// administrator, recording one correlation per delivered copy.
func (e *Engine) relayFromUser(ctx context.Context, ev models.Event) {
	if !e.limiter.Allow(ev.SenderID, time.Unix(ev.Time, 0)) {
		slog.Info("Engine.relayFromUser: sender throttled", "sender_id", ev.SenderID)
		e.reply(ctx, ev.ChatID, e.cfg.SlowModeWarning)
		return
	}

	header := buildHeader(ev.SenderID, ev.SenderName, ev.Time)
	delivered := 0
	for _, adminID := range e.cfg.Admins {
		var copyID int
		var err error
		if ev.IsText {
			copyID, err = e.svc.SendText(ctx, adminID,
				buildForwardText(ev.SenderID, ev.SenderName, ev.Time, ev.Text),
				messaging.WithoutLinkPreview())
		} else {
			copyID, err = e.svc.CopyMessage(ctx, ev.ChatID, ev.MessageID, adminID, header)
		}
		if err != nil {
			// One administrator's failure must not starve the others.
			slog.Error(config.ExpandForwardError(e.cfg.AdminForwardError, adminID, err),
				"admin_id", adminID, "error", err)
			continue
		}
		delivered++

		c := models.Correlation{
			AdminChatID:    adminID,
			AdminMessageID: copyID,
			UserChatID:     ev.ChatID,
			UserMessageID:  ev.MessageID,
		}
		if err := e.store.RecordCorrelation(c); err != nil {
			// Memory stays authoritative; the reply route still works for
			// this process lifetime.
			slog.Error("Engine.relayFromUser: failed to persist correlation", "error", err,
				"admin_chat_id", c.AdminChatID, "admin_message_id", c.AdminMessageID)
		}
	}

	slog.Info("Engine.relayFromUser: fan-out complete",
		"sender_id", ev.SenderID, "delivered", delivered, "admins", len(e.cfg.Admins))
	// The sender is acknowledged exactly once, whatever happened per admin.
	e.reply(ctx, ev.ChatID, e.cfg.UserMessageAccepted)
}

// routeAdminReply resolves the correlation for the replied-to copy and
// forwards the administrator's text to the original sender, threaded to
// the original message.
func (e *Engine) routeAdminReply(ctx context.Context, ev models.Event) {
	origin, found := e.store.ResolveCorrelation(ev.ChatID, ev.ReplyTo.MessageID)
	if !found {
		slog.Debug("Engine.routeAdminReply: no correlation for replied-to message",
			"admin_chat_id", ev.ChatID, "replied_message_id", ev.ReplyTo.MessageID)
		if e.cfg.ReplyNotFound != "" {
			e.reply(ctx, ev.ChatID, e.cfg.ReplyNotFound)
		}
		return
	}

	if !ev.IsText {
		slog.Debug("Engine.routeAdminReply: non-text admin reply, nothing to route",
			"admin_chat_id", ev.ChatID, "replied_message_id", ev.ReplyTo.MessageID)
		return
	}

	if _, err := e.svc.SendText(ctx, origin.ChatID, ev.Text, messaging.WithReplyTo(origin.MessageID)); err != nil {
		slog.Error("Engine.routeAdminReply: failed to deliver reply to user", "error", err,
			"user_chat_id", origin.ChatID, "admin_id", ev.SenderID)
		return
	}
	slog.Info("Engine.routeAdminReply: reply routed",
		"admin_id", ev.SenderID, "user_chat_id", origin.ChatID, "user_message_id", origin.MessageID)
}

// reply sends a template-driven message back into the chat the event came
// from. Delivery failures are logged, never surfaced.
func (e *Engine) reply(ctx context.Context, chatID int64, text string) {
	if _, err := e.svc.SendText(ctx, chatID, text); err != nil {
		slog.Error("Engine.reply: failed to send reply", "error", err, "chat_id", chatID)
	}
}
