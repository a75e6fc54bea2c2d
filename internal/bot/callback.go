package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mailvet/mailvet/internal/correlate"
	"github.com/mailvet/mailvet/internal/gateway"
	"github.com/mailvet/mailvet/internal/mailsso"
	"github.com/mailvet/mailvet/pkg/message"
)

// CallbackSource is the webhook source name the provider delivers batch
// results to (POST /webhooks/mailsso).
const CallbackSource = "mailsso"

// callbackPayload is the provider's batch completion delivery. The job id
// normally rides in the payload; a "job" query parameter on the callback
// URL is honored as an override for providers that echo it instead.
type callbackPayload struct {
	ID      string           `json:"id"`
	Results []mailsso.Result `json:"results"`
}

// HandleWebhook implements gateway.WebhookHandler for batch result
// deliveries. A payload that cannot parse is a 400 to the sender; a result
// that cannot be matched to a chat is logged and acknowledged with 200 so
// the provider stops retrying a delivery that will never resolve.
func (b *Bot) HandleWebhook(ctx context.Context, d gateway.Delivery) error {
	var payload callbackPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrBadPayload, err)
	}
	if len(payload.Results) == 0 {
		return fmt.Errorf("%w: missing or empty results", gateway.ErrBadPayload)
	}

	jobID := d.Query.Get("job")
	if jobID == "" {
		jobID = payload.ID
	}
	if jobID == "" {
		b.logger.Warn("callback without job id, dropping", "source", d.Source, "results", len(payload.Results))
		return nil
	}

	target, err := b.correlations.Claim(jobID)
	if err != nil {
		if errors.Is(err, correlate.ErrNotFound) {
			b.logger.Warn("callback for unknown or already-claimed job, dropping",
				"source", d.Source,
				"job", jobID,
			)
			return nil
		}
		return err
	}

	b.logger.Info("batch results delivered", "job", jobID, "results", len(payload.Results), "chat", target.ChatID)

	chat := message.Chat{ID: target.ChatID}
	b.deliver(ctx, target.Channel, chat, formatReport(payload.Results))
	return nil
}
