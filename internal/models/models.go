// Package models defines the core data structures for FeedbackBridge.
//
// It includes the inbound event type delivered by the transport and the
// correlation records that tie relayed admin-side copies back to the
// originating user message. These types are shared across modules.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error variables for better error handling and testability
var (
	ErrMalformedCorrelationKey = errors.New("malformed correlation key")
)

// Event is a single inbound message event delivered by the transport.
// Identifiers are opaque and externally issued: chat and user ids are
// int64, message ids are int.
type Event struct {
	SenderID   int64  // id of the account that authored the message
	SenderName string // display name, used only for the relay header
	ChatID     int64  // chat the message arrived in
	MessageID  int    // transport-issued message id
	Time       int64  // unix timestamp of the message
	Text       string // text body; empty for non-text content
	IsText     bool   // content classification: plain text vs. anything else
	Service    bool   // platform-generated notification, no user content
	ReplyTo    *ReplyRef
}

// ReplyRef identifies the message an event replies to, if any.
type ReplyRef struct {
	MessageID int   // id of the replied-to message in the same chat
	SenderID  int64 // author of the replied-to message
}

// Origin identifies the user-side original message a relayed copy stands for.
type Origin struct {
	ChatID    int64
	MessageID int
}

// Correlation associates one relayed copy delivered to an administrator
// with the user message it was copied from. Keys (AdminChatID,
// AdminMessageID) are unique; several correlations may share the same
// origin, one per administrator the message was fanned out to.
type Correlation struct {
	AdminChatID    int64
	AdminMessageID int
	UserChatID     int64
	UserMessageID  int
}

// Key returns the canonical on-disk key for the correlation, joining the
// admin chat id and message id with a colon. Both components are integers,
// so the separator cannot collide with key content.
func (c Correlation) Key() string {
	return CorrelationKey(c.AdminChatID, c.AdminMessageID)
}

// CorrelationKey builds the canonical string key for an admin-side copy.
func CorrelationKey(adminChatID int64, adminMessageID int) string {
	return strconv.FormatInt(adminChatID, 10) + ":" + strconv.Itoa(adminMessageID)
}

// ParseCorrelationKey reverses CorrelationKey. It rejects keys that do not
// consist of exactly two integers joined by a colon.
func ParseCorrelationKey(key string) (adminChatID int64, adminMessageID int, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCorrelationKey, key)
	}
	adminChatID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCorrelationKey, key)
	}
	adminMessageID, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCorrelationKey, key)
	}
	return adminChatID, adminMessageID, nil
}
