package bot

import (
	"context"
	"fmt"

	"github.com/mailvet/mailvet/pkg/message"
)

const helpText = `Send me one or more email addresses and I will check them against the validation service.

A single address gets an immediate answer. Multiple addresses (separated by spaces, commas, semicolons, or newlines) are submitted as one batch job and the report follows when it completes.

Commands:
/start - introduction
/help - this message
/credits - validation credit usage`

const startText = `Hi! I verify email addresses.

Send me an address like user@example.com and I will tell you whether it is deliverable. Send several at once and I will run them as a batch.

Use /help for details.`

// handleCommand answers the built-in slash commands.
func (b *Bot) handleCommand(ctx context.Context, msg message.InboundMessage) {
	switch msg.Command() {
	case "start":
		b.reply(ctx, msg, startText)
	case "help":
		b.reply(ctx, msg, helpText)
	case "credits":
		b.reply(ctx, msg, b.creditsText())
	default:
		b.reply(ctx, msg, fmt.Sprintf("Unknown command /%s. Try /help.", msg.Command()))
	}
}

func (b *Bot) creditsText() string {
	if b.credits == nil || b.credits.Limit() <= 0 {
		var used int64
		if b.credits != nil {
			used = b.credits.Used()
		}
		return fmt.Sprintf("Credits used: %d (no limit configured).", used)
	}
	used, limit := b.credits.Used(), b.credits.Limit()
	return fmt.Sprintf("Credits used: %d of %d (%d remaining).", used, limit, limit-used)
}
