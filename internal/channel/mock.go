package channel

import (
	"context"
	"sync"

	"github.com/mailvet/mailvet/internal/core"
	"github.com/mailvet/mailvet/pkg/message"
)

// MockChannel is a test double that implements Channel. It records sent
// messages and allows simulating inbound messages via SimulateMessage.
type MockChannel struct {
	name      string
	inbox     func(msg message.InboundMessage) error
	mu        sync.Mutex
	sent      []message.OutboundMessage
	allowList *AllowList

	// SendFunc, if set, is called instead of the default recording behavior.
	SendFunc func(ctx context.Context, msg message.OutboundMessage) error
}

// Compile-time interface guard.
var _ Channel = (*MockChannel)(nil)

// NewMockChannel creates a MockChannel with the given name and an optional
// allow-list. Pass nil for allowList to deny all messages.
func NewMockChannel(name string, allowList *AllowList) *MockChannel {
	return &MockChannel{
		name:      name,
		allowList: allowList,
	}
}

// ModuleInfo implements core.Module.
func (m *MockChannel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID: core.ModuleID("channel." + m.name),
		New: func() core.Module {
			return NewMockChannel(m.name, m.allowList)
		},
	}
}

// Send records the outbound message. If SendFunc is set, it delegates to it.
func (m *MockChannel) Send(ctx context.Context, msg message.OutboundMessage) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// SetInbox stores the inbox callback provided by the bot.
func (m *MockChannel) SetInbox(fn func(msg message.InboundMessage) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = fn
}

// SimulateMessage pushes an inbound message through the allow-list and into
// the inbox. It returns ErrDenied if the sender is not allowed, and ErrNoInbox
// if SetInbox has not been called.
func (m *MockChannel) SimulateMessage(msg message.InboundMessage) error {
	m.mu.Lock()
	al := m.allowList
	inbox := m.inbox
	m.mu.Unlock()

	if !al.IsAllowed(msg) {
		return ErrDenied
	}
	if inbox == nil {
		return ErrNoInbox
	}

	// Tag the message with this channel's name.
	msg.Channel = m.name
	return inbox(msg)
}

// SentMessages returns a copy of all outbound messages recorded by Send.
func (m *MockChannel) SentMessages() []message.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]message.OutboundMessage, len(m.sent))
	copy(cp, m.sent)
	return cp
}

// Reset clears recorded sent messages.
func (m *MockChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
