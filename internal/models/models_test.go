package models

import "testing"

func TestCorrelationKeyRoundTrip(t *testing.T) {
	c := Correlation{AdminChatID: -1001234567890, AdminMessageID: 42, UserChatID: 99, UserMessageID: 7}
	key := c.Key()
	chatID, messageID, err := ParseCorrelationKey(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chatID != c.AdminChatID || messageID != c.AdminMessageID {
		t.Errorf("round trip mismatch: got (%d, %d), want (%d, %d)", chatID, messageID, c.AdminChatID, c.AdminMessageID)
	}
}

func TestParseCorrelationKeyRejectsMalformed(t *testing.T) {
	cases := []string{"", "123", "a:b", "1:2:3", "12:", ":34"}
	for _, key := range cases {
		if _, _, err := ParseCorrelationKey(key); err == nil {
			t.Errorf("ParseCorrelationKey(%q) expected error, got nil", key)
		}
	}
}

func TestCorrelationKeyNegativeIDs(t *testing.T) {
	// Telegram group chat ids are negative; the colon separator must still parse.
	key := CorrelationKey(-42, 17)
	chatID, messageID, err := ParseCorrelationKey(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chatID != -42 || messageID != 17 {
		t.Errorf("got (%d, %d), want (-42, 17)", chatID, messageID)
	}
}
