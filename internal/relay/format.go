package relay

import (
	"fmt"
	"html"
	"time"
)

// headerTimeLayout is the timestamp format shown to administrators.
const headerTimeLayout = "2006-01-02 15:04:05"

// buildHeader renders the sender identification block placed above every
// relayed copy: a mention link, the numeric id and the message timestamp.
func buildHeader(senderID int64, senderName string, sentAt int64) string {
	ts := time.Unix(sentAt, 0).UTC().Format(headerTimeLayout)
	return fmt.Sprintf(
		"<b>New message from:</b> <a href='tg://user?id=%d'>%s</a>\n<b>ID:</b> %d\n<b>Time:</b> %s\n",
		senderID, html.EscapeString(senderName), senderID, ts)
}

// buildForwardText renders the full body of a relayed text message:
// the header followed by the escaped original text.
func buildForwardText(senderID int64, senderName string, sentAt int64, text string) string {
	return buildHeader(senderID, senderName, sentAt) + "\n<b>Message:</b>\n" + html.EscapeString(text)
}
