package messaging

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func textMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: 42, FirstName: "Jamie", LastName: "Doe"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Date:      1700000000,
		Text:      "hello",
	}
}

func TestEventFromTextMessage(t *testing.T) {
	ev := eventFromMessage(textMessage())
	if ev.SenderID != 42 || ev.ChatID != 42 || ev.MessageID != 10 {
		t.Errorf("identifiers not carried over: %+v", ev)
	}
	if !ev.IsText || ev.Text != "hello" {
		t.Errorf("text classification wrong: %+v", ev)
	}
	if ev.Service {
		t.Error("plain text classified as service message")
	}
	if ev.SenderName != "Jamie Doe" {
		t.Errorf("display name = %q, want %q", ev.SenderName, "Jamie Doe")
	}
	if ev.Time != 1700000000 {
		t.Errorf("timestamp = %d, want 1700000000", ev.Time)
	}
}

func TestEventFromNonTextMessage(t *testing.T) {
	msg := textMessage()
	msg.Text = ""
	ev := eventFromMessage(msg)
	if ev.IsText {
		t.Error("non-text message classified as text")
	}
}

func TestEventCarriesReplyReference(t *testing.T) {
	msg := textMessage()
	msg.ReplyToMessage = &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 99},
		Chat:      msg.Chat,
	}
	ev := eventFromMessage(msg)
	if ev.ReplyTo == nil {
		t.Fatal("reply reference dropped")
	}
	if ev.ReplyTo.MessageID != 7 || ev.ReplyTo.SenderID != 99 {
		t.Errorf("reply reference = %+v, want {7 99}", ev.ReplyTo)
	}
}

func TestServiceMessageClassification(t *testing.T) {
	cases := map[string]func(*tgbotapi.Message){
		"new members":   func(m *tgbotapi.Message) { m.NewChatMembers = []tgbotapi.User{{ID: 1}} },
		"left member":   func(m *tgbotapi.Message) { m.LeftChatMember = &tgbotapi.User{ID: 1} },
		"new title":     func(m *tgbotapi.Message) { m.NewChatTitle = "t" },
		"new photo":     func(m *tgbotapi.Message) { m.NewChatPhoto = []tgbotapi.PhotoSize{{}} },
		"deleted photo": func(m *tgbotapi.Message) { m.DeleteChatPhoto = true },
		"group created": func(m *tgbotapi.Message) { m.GroupChatCreated = true },
		"migrated":      func(m *tgbotapi.Message) { m.MigrateToChatID = 5 },
		"pinned":        func(m *tgbotapi.Message) { m.PinnedMessage = &tgbotapi.Message{} },
	}
	for name, mutate := range cases {
		msg := textMessage()
		msg.Text = ""
		mutate(msg)
		if ev := eventFromMessage(msg); !ev.Service {
			t.Errorf("%s: not classified as service message", name)
		}
	}
	if ev := eventFromMessage(textMessage()); ev.Service {
		t.Error("ordinary message classified as service message")
	}
}

func TestDisplayNameWithoutLastName(t *testing.T) {
	if got := displayName(&tgbotapi.User{FirstName: "Jamie"}); got != "Jamie" {
		t.Errorf("display name = %q, want %q", got, "Jamie")
	}
}

func TestApplySendOptions(t *testing.T) {
	cfg := ApplySendOptions(WithReplyTo(12), WithoutLinkPreview())
	if cfg.ReplyToMessageID != 12 || !cfg.DisableLinkPreview {
		t.Errorf("options not applied: %+v", cfg)
	}
	if cfg := ApplySendOptions(); cfg.ReplyToMessageID != 0 || cfg.DisableLinkPreview {
		t.Errorf("zero options not zero: %+v", cfg)
	}
}
