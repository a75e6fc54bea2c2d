// Package channel defines the bridge between messaging platforms and the
// bot core. It provides the Channel interface, outbound dispatch, message
// chunking, and allow-list filtering.
package channel

import (
	"context"

	"github.com/mailvet/mailvet/internal/core"
	"github.com/mailvet/mailvet/pkg/message"
)

// Channel is the bridge between a messaging platform and the bot.
// Every concrete channel (Telegram today, others later) must implement it.
//
// A channel receives messages from its platform, checks the allow-list, and
// pushes them to the bot via the inbox callback. It also receives outbound
// messages from the bot via Send().
type Channel interface {
	core.Module

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg message.OutboundMessage) error

	// SetInbox gives the channel a function to push inbound messages to
	// the bot. Called during wiring, before Start().
	SetInbox(fn func(msg message.InboundMessage) error)
}

// TypingChannel is optionally implemented by channels that can show a
// "typing" indicator while a validation request is in flight.
type TypingChannel interface {
	Channel

	SendTyping(ctx context.Context, chat message.Chat) error
}
