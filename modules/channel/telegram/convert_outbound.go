package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mailvet/mailvet/internal/channel"
	"github.com/mailvet/mailvet/pkg/message"
)

// sendOutbound delivers an outbound message to Telegram, splitting it into
// chunks that fit under the configured message length. Validation reports
// can list thousands of addresses, so channel.SplitMessage splits at line
// boundaries to keep each address's result on one line.
func (t *Telegram) sendOutbound(ctx context.Context, msg message.OutboundMessage) error {
	chatID, err := strconv.ParseInt(msg.Chat.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", msg.Chat.ID, err)
	}

	// MarkdownV2 escaping inserts at most one backslash per character, so
	// auto-formatted text is split with headroom to stay under the limit
	// after escaping. An explicit parse mode is sent verbatim.
	limit := t.config.MaxMessageLength
	if msg.Hints == nil || msg.Hints.ParseMode == "" {
		limit /= 2
		if limit < 1 {
			limit = 1
		}
	}

	for _, part := range channel.SplitMessage(msg, limit) {
		if _, err := t.client.SendMessage(ctx, buildSendRequest(chatID, part)); err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
	}
	return nil
}

// buildSendRequest maps an outbound message chunk to a sendMessage request.
// Without an explicit parse mode hint the text is rendered as MarkdownV2,
// with all special characters escaped.
func buildSendRequest(chatID int64, msg message.OutboundMessage) SendMessageRequest {
	req := SendMessageRequest{ChatID: chatID}

	if h := msg.Hints; h != nil && h.ParseMode != "" {
		req.ParseMode = h.ParseMode
		req.Text = msg.Text
	} else {
		req.ParseMode = "MarkdownV2"
		req.Text = FormatMarkdownV2(msg.Text)
	}

	if h := msg.Hints; h != nil {
		req.DisableWebPagePreview = h.DisablePreview
		req.DisableNotification = h.DisableNotification
	}

	return req
}
