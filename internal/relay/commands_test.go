package relay

import (
	"context"
	"testing"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
)

func adminCommand(text string) models.Event {
	return models.Event{
		SenderID:  100,
		ChatID:    100,
		MessageID: 5,
		Time:      1700000000,
		Text:      text,
		IsText:    true,
	}
}

func TestStartGreetsByIdentity(t *testing.T) {
	engine, transport, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("/start"))
	engine.HandleEvent(ctx, userEvent("/start"))

	adminSent := transport.textsTo(100)
	if len(adminSent) != 1 || adminSent[0].Text != "welcome back, admin" {
		t.Errorf("admin /start response: %+v", adminSent)
	}
	userSent := transport.textsTo(555)
	if len(userSent) != 1 || userSent[0].Text != "hello, write your message" {
		t.Errorf("user /start response: %+v", userSent)
	}
}

func TestBanFromNonAdminIsSilent(t *testing.T) {
	engine, transport, st := newTestEngine(t, testConfig())

	engine.HandleEvent(context.Background(), userEvent("/ban 12345"))

	if len(transport.texts) != 0 {
		t.Errorf("non-admin /ban produced responses: %+v", transport.texts)
	}
	if st.IsBanned(12345) {
		t.Error("non-admin /ban mutated the ban list")
	}
}

func TestBanByNumericArgument(t *testing.T) {
	engine, transport, st := newTestEngine(t, testConfig())

	engine.HandleEvent(context.Background(), adminCommand("/ban 12345"))

	if !st.IsBanned(12345) {
		t.Error("target not banned")
	}
	sent := transport.textsTo(100)
	if len(sent) != 1 || sent[0].Text != "banned 12345" {
		t.Errorf("ban confirmation: %+v", sent)
	}
}

func TestBanAlreadyBanned(t *testing.T) {
	engine, transport, st := newTestEngine(t, testConfig())
	ctx := context.Background()
	if _, err := st.Ban(12345); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine.HandleEvent(ctx, adminCommand("/ban 12345"))

	sent := transport.textsTo(100)
	if len(sent) != 1 || sent[0].Text != "already banned" {
		t.Errorf("duplicate ban response: %+v", sent)
	}
	if !st.IsBanned(12345) {
		t.Error("duplicate ban removed the existing ban")
	}
}

func TestBanUsageAndFormatErrors(t *testing.T) {
	engine, transport, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("/ban"))
	engine.HandleEvent(ctx, adminCommand("/ban not-a-number"))

	sent := transport.textsTo(100)
	if len(sent) != 2 {
		t.Fatalf("responses = %d, want 2", len(sent))
	}
	if sent[0].Text != "usage: /ban <id>" {
		t.Errorf("missing-argument response = %q", sent[0].Text)
	}
	if sent[1].Text != "ban: invalid id" {
		t.Errorf("bad-argument response = %q", sent[1].Text)
	}
}

func TestBanByReplyResolvesThroughCorrelation(t *testing.T) {
	engine, transport, st := newTestEngine(t, testConfig())
	ctx := context.Background()

	// User 555 writes in; the copy delivered to admin 100 is tracked.
	engine.HandleEvent(ctx, userEvent("hello"))
	copyID, found := findCorrelationFor(st, 100)
	if !found {
		t.Fatal("no correlation recorded for admin 100")
	}

	ban := adminCommand("/ban")
	ban.ReplyTo = &models.ReplyRef{MessageID: copyID, SenderID: 1} // bot sent the copy
	engine.HandleEvent(ctx, ban)

	if !st.IsBanned(555) {
		t.Error("reply-resolved target not banned")
	}
	sent := transport.textsTo(100)
	// First text was the relayed copy, second the ban confirmation.
	if got := sent[len(sent)-1].Text; got != "banned 555" {
		t.Errorf("ban confirmation = %q, want %q", got, "banned 555")
	}
}

func TestBanByReplyFallsBackToRepliedSender(t *testing.T) {
	engine, _, st := newTestEngine(t, testConfig())

	ban := adminCommand("/ban")
	// Replying to a message the bot never relayed: the replied-to
	// message's own sender becomes the target.
	ban.ReplyTo = &models.ReplyRef{MessageID: 999, SenderID: 777}
	engine.HandleEvent(context.Background(), ban)

	if !st.IsBanned(777) {
		t.Error("fallback target not banned")
	}
}

func TestUnbanLifecycle(t *testing.T) {
	engine, transport, st := newTestEngine(t, testConfig())
	ctx := context.Background()

	engine.HandleEvent(ctx, adminCommand("/unban 12345"))
	if _, err := st.Ban(12345); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine.HandleEvent(ctx, adminCommand("/unban 12345"))

	sent := transport.textsTo(100)
	if len(sent) != 2 {
		t.Fatalf("responses = %d, want 2", len(sent))
	}
	if sent[0].Text != "not banned" {
		t.Errorf("unban of clean user response = %q", sent[0].Text)
	}
	if sent[1].Text != "unbanned 12345" {
		t.Errorf("unban confirmation = %q", sent[1].Text)
	}
	if st.IsBanned(12345) {
		t.Error("user still banned after /unban")
	}
}

func TestCommandWithBotNameSuffix(t *testing.T) {
	engine, transport, st := newTestEngine(t, testConfig())

	engine.HandleEvent(context.Background(), adminCommand("/ban@feedback_bot 12345"))

	if !st.IsBanned(12345) {
		t.Error("suffixed command not recognized")
	}
	sent := transport.textsTo(100)
	if len(sent) != 1 || sent[0].Text != "banned 12345" {
		t.Errorf("ban confirmation: %+v", sent)
	}
}

func TestUnknownSlashCommandIsRelayedLikeText(t *testing.T) {
	engine, transport, _ := newTestEngine(t, testConfig())

	engine.HandleEvent(context.Background(), userEvent("/help me"))

	// Unknown commands from users are ordinary messages: fanned out and
	// acknowledged.
	if got := len(transport.textsTo(100)); got != 1 {
		t.Errorf("admin 100 received %d messages, want 1", got)
	}
	acks := transport.textsTo(555)
	if len(acks) != 1 || acks[0].Text != "message accepted" {
		t.Errorf("acknowledgments: %+v", acks)
	}
}
