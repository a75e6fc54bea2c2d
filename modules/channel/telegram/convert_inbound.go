package telegram

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/mailvet/mailvet/pkg/message"
)

var (
	errNoMessage = errors.New("update contains no message")
	errNoText    = errors.New("message contains no text")
)

// convertInbound converts a Telegram update into the platform-agnostic
// inbound message. Updates without a text-bearing message (stickers, media,
// service events) are rejected; the caller acknowledges them without
// processing.
func convertInbound(update *Update, channelName string) (message.InboundMessage, error) {
	msg := extractMessage(update)
	if msg == nil {
		return message.InboundMessage{}, errNoMessage
	}
	if msg.Text == "" {
		return message.InboundMessage{}, errNoText
	}

	raw, _ := json.Marshal(update)

	return message.InboundMessage{
		ID:        strconv.Itoa(msg.MessageID),
		Timestamp: time.Unix(int64(msg.Date), 0).UTC(),
		Channel:   channelName,
		Sender:    convertSender(msg.From),
		Chat:      convertChat(&msg.Chat),
		Text:      msg.Text,
		Raw:       raw,
	}, nil
}

// extractMessage returns the message carried by the update, regardless of
// which update field it arrived in.
func extractMessage(update *Update) *Message {
	switch {
	case update.Message != nil:
		return update.Message
	case update.EditedMessage != nil:
		return update.EditedMessage
	case update.ChannelPost != nil:
		return update.ChannelPost
	}
	return nil
}

// convertSender maps a Telegram user to the generic sender identity.
// Channel posts have no sender; the zero value is returned.
func convertSender(u *User) message.Sender {
	if u == nil {
		return message.Sender{}
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return message.Sender{
		ID:          strconv.FormatInt(u.ID, 10),
		Username:    u.Username,
		DisplayName: name,
	}
}

// convertChat maps a Telegram chat to the generic chat identity.
func convertChat(c *Chat) message.Chat {
	return message.Chat{
		ID:    strconv.FormatInt(c.ID, 10),
		Type:  mapChatType(c.Type),
		Title: c.Title,
	}
}

// mapChatType maps Telegram chat types to the generic chat types.
func mapChatType(t string) message.ChatType {
	switch t {
	case "private":
		return message.ChatDM
	case "group", "supergroup":
		return message.ChatGroup
	case "channel":
		return message.ChatBroadcast
	default:
		return message.ChatDM
	}
}
