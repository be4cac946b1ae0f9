package relay

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BTreeMap/FeedbackBridge/internal/config"
	"github.com/BTreeMap/FeedbackBridge/internal/models"
)

// dispatchCommand handles a recognized command event and reports whether
// the event was consumed. Unrecognized slash-prefixed text falls through
// to the generic engine, matching how ordinary messages are relayed.
func (e *Engine) dispatchCommand(ctx context.Context, ev models.Event) bool {
	if !ev.IsText || !strings.HasPrefix(ev.Text, "/") {
		return false
	}
	fields := strings.Fields(ev.Text)
	if len(fields) == 0 {
		return false
	}
	// Commands in Telegram may carry a "@botname" suffix.
	command := fields[0]
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}

	switch command {
	case "/start":
		e.handleStart(ctx, ev)
	case "/ban":
		e.handleBan(ctx, ev)
	case "/unban":
		e.handleUnban(ctx, ev)
	default:
		return false
	}
	return true
}

// handleStart greets the sender with the admin or user template.
func (e *Engine) handleStart(ctx context.Context, ev models.Event) {
	if e.cfg.IsAdmin(ev.SenderID) {
		e.reply(ctx, ev.ChatID, e.cfg.AdminGreeting)
		return
	}
	e.reply(ctx, ev.ChatID, e.cfg.UserGreeting)
}

// handleBan adds the resolved target to the ban list.
func (e *Engine) handleBan(ctx context.Context, ev models.Event) {
	if !e.cfg.IsAdmin(ev.SenderID) {
		// Silent: non-admins must not learn the command exists.
		slog.Debug("Engine.handleBan: ignoring /ban from non-admin", "sender_id", ev.SenderID)
		return
	}
	targetID, ok := e.resolveTarget(ctx, ev, e.cfg.BanUsage, e.cfg.BanInvalidFormat)
	if !ok {
		return
	}

	newly, err := e.store.Ban(targetID)
	if err != nil {
		slog.Error("Engine.handleBan: ban list persistence failed", "error", err, "target_id", targetID)
	}
	if !newly {
		e.reply(ctx, ev.ChatID, config.ExpandTarget(e.cfg.UserAlreadyBanned, targetID))
		return
	}
	slog.Info("Engine.handleBan: user banned", "target_id", targetID, "admin_id", ev.SenderID)
	e.reply(ctx, ev.ChatID, config.ExpandTarget(e.cfg.UserBanned, targetID))
}

// handleUnban removes the resolved target from the ban list.
func (e *Engine) handleUnban(ctx context.Context, ev models.Event) {
	if !e.cfg.IsAdmin(ev.SenderID) {
		slog.Debug("Engine.handleUnban: ignoring /unban from non-admin", "sender_id", ev.SenderID)
		return
	}
	targetID, ok := e.resolveTarget(ctx, ev, e.cfg.UnbanUsage, e.cfg.UnbanInvalidFormat)
	if !ok {
		return
	}

	existed, err := e.store.Unban(targetID)
	if err != nil {
		slog.Error("Engine.handleUnban: ban list persistence failed", "error", err, "target_id", targetID)
	}
	if !existed {
		e.reply(ctx, ev.ChatID, config.ExpandTarget(e.cfg.UserNotBanned, targetID))
		return
	}
	slog.Info("Engine.handleUnban: user unbanned", "target_id", targetID, "admin_id", ev.SenderID)
	e.reply(ctx, ev.ChatID, config.ExpandTarget(e.cfg.UserUnbanned, targetID))
}

// resolveTarget determines the user a moderation command applies to.
// Invoked as a reply, the replied-to copy is resolved through the
// correlation store, falling back to the replied-to message's own sender
// when the copy was never relayed by the bot. Otherwise a numeric id is
// parsed from the command argument, with the usage and format-error
// templates sent on missing or unparsable input.
func (e *Engine) resolveTarget(ctx context.Context, ev models.Event, usageTemplate, invalidTemplate string) (int64, bool) {
	if ev.ReplyTo != nil {
		if origin, found := e.store.ResolveCorrelation(ev.ChatID, ev.ReplyTo.MessageID); found {
			// Relayed copies come from direct chats, where the chat id is
			// the user id.
			return origin.ChatID, true
		}
		return ev.ReplyTo.SenderID, true
	}

	parts := strings.Fields(ev.Text)
	if len(parts) < 2 {
		e.reply(ctx, ev.ChatID, usageTemplate)
		return 0, false
	}
	targetID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		e.reply(ctx, ev.ChatID, invalidTemplate)
		return 0, false
	}
	return targetID, true
}
