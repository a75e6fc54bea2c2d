// Package telegram implements the Telegram Bot API channel.
//
// It provides a bidirectional bridge between Telegram and the
// platform-agnostic message model, supporting:
//
//   - Inbound conversion of text messages (media updates are acknowledged and skipped)
//   - Outbound message dispatch with automatic chunking via channel.SplitMessage
//   - Two delivery modes: long-polling (default) and webhook
//   - Typing indicators via sendChatAction
//   - MarkdownV2 escaping and formatting utilities
//
// The module registers itself as "channel.telegram" via init() and implements
// the full module lifecycle: Configure → Provision → Validate → Start → Stop.
//
// No external Telegram library is used — the module communicates with the
// Bot API via raw net/http + encoding/json.
package telegram
