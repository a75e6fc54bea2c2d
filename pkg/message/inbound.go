package message

import (
	"encoding/json"
	"strings"
	"time"
)

// InboundMessage represents a text message received from a channel.
type InboundMessage struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Channel   string          `json:"channel"`
	Sender    Sender          `json:"sender"`
	Chat      Chat            `json:"chat"`
	Text      string          `json:"text"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// IsCommand reports whether the message text is a slash command
// (e.g. "/start" or "/credits@some_bot").
func (m *InboundMessage) IsCommand() bool {
	return strings.HasPrefix(strings.TrimSpace(m.Text), "/")
}

// Command returns the command name without the leading slash and without
// any "@botname" suffix, lowercased. Returns "" for non-command messages.
func (m *InboundMessage) Command() string {
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}

// IsGroup reports whether the message was sent in a group chat.
func (m *InboundMessage) IsGroup() bool {
	return m.Chat.IsGroup()
}

// IsDirectMessage reports whether the message is a direct message.
func (m *InboundMessage) IsDirectMessage() bool {
	return m.Chat.IsDirectMessage()
}
