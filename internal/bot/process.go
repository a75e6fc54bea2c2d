package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailvet/mailvet/internal/correlate"
	"github.com/mailvet/mailvet/pkg/message"
)

// handleSubmission runs the full validation flow for a message containing
// email addresses.
func (b *Bot) handleSubmission(ctx context.Context, msg message.InboundMessage) {
	candidates, rejected := normalizeInput(msg.Text)

	if len(candidates) == 0 {
		if len(rejected) > 0 {
			b.reply(ctx, msg, rejectedText(rejected))
		} else {
			b.reply(ctx, msg, "I did not find any email addresses in that message. Use /help for examples.")
		}
		return
	}

	// A batch with malformed entries is refused whole rather than silently
	// trimmed: the sender fixes the input once instead of discovering
	// missing results later.
	if len(rejected) > 0 {
		b.reply(ctx, msg, rejectedText(rejected))
		return
	}

	if err := b.reserve(int64(len(candidates))); err != nil {
		b.metrics.RecordError()
		b.reply(ctx, msg, b.creditExceededText(len(candidates)))
		return
	}
	b.metrics.RecordValidations(len(candidates))

	if len(candidates) == 1 {
		b.runSingle(ctx, msg, candidates[0])
		return
	}
	b.runBulk(ctx, msg, candidates)
}

func (b *Bot) reserve(n int64) error {
	if b.credits == nil {
		return nil
	}
	return b.credits.Reserve(n)
}

// runSingle validates one address and answers immediately.
func (b *Bot) runSingle(ctx context.Context, msg message.InboundMessage, email string) {
	b.sendTyping(ctx, msg)

	result, err := b.validator.ValidateSingle(ctx, email)
	if err != nil {
		b.metrics.RecordError()
		b.logger.Warn("single validation failed", "email", email, "error", err)
		b.reply(ctx, msg, errorText(err))
		return
	}

	b.reply(ctx, msg, formatDetail(*result))
}

// runBulk submits a batch job. With a callback base URL configured, the job
// completes asynchronously via the webhook; otherwise the handler polls and
// replies in-line.
func (b *Bot) runBulk(ctx context.Context, msg message.InboundMessage, emails []string) {
	b.sendTyping(ctx, msg)

	if b.callbackBaseURL != "" {
		b.runBulkAsync(ctx, msg, emails)
		return
	}
	b.runBulkSync(ctx, msg, emails)
}

func (b *Bot) runBulkAsync(ctx context.Context, msg message.InboundMessage, emails []string) {
	jobID, err := b.validator.SubmitBatch(ctx, emails, b.callbackURL())
	if err != nil {
		b.metrics.RecordError()
		b.logger.Warn("batch submit failed", "emails", len(emails), "error", err)
		b.reply(ctx, msg, errorText(err))
		return
	}

	target := correlate.Target{Channel: msg.Channel, ChatID: msg.Chat.ID}
	if err := b.correlations.Record(jobID, target); err != nil {
		// The job is already submitted; the results will arrive but cannot
		// be delivered. Tell the sender instead of staying silent.
		b.metrics.RecordError()
		b.logger.Error("correlation record failed", "job", jobID, "error", err)
		b.reply(ctx, msg, "The batch was submitted but I could not track it. Results may be lost; please resubmit.")
		return
	}

	b.logger.Info("batch submitted", "job", jobID, "emails", len(emails))
	b.reply(ctx, msg, fmt.Sprintf("Submitted %d addresses for validation. I will post the results here when the job completes.", len(emails)))
}

func (b *Bot) runBulkSync(ctx context.Context, msg message.InboundMessage, emails []string) {
	jobID, err := b.validator.SubmitBatch(ctx, emails, "")
	if err != nil {
		b.metrics.RecordError()
		b.logger.Warn("batch submit failed", "emails", len(emails), "error", err)
		b.reply(ctx, msg, errorText(err))
		return
	}

	results, err := b.validator.WaitForBatch(ctx, jobID)
	if err != nil {
		b.metrics.RecordError()
		b.logger.Warn("batch wait failed", "job", jobID, "error", err)
		b.reply(ctx, msg, errorText(err))
		return
	}

	b.reply(ctx, msg, formatReport(results))
}

// callbackURL builds the webhook address batch jobs report to.
func (b *Bot) callbackURL() string {
	return strings.TrimRight(b.callbackBaseURL, "/") + "/webhooks/" + CallbackSource
}

func (b *Bot) creditExceededText(requested int) string {
	if b.credits == nil {
		return "Credit limit reached."
	}
	return fmt.Sprintf(
		"Not enough validation credits: %d requested, %d of %d already used.",
		requested, b.credits.Used(), b.credits.Limit(),
	)
}
