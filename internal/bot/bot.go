// Package bot implements the message-handling core: it receives inbound
// chat messages, normalizes submitted email addresses, drives the
// validation provider, and delivers results back through the channel
// dispatcher.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mailvet/mailvet/internal/channel"
	"github.com/mailvet/mailvet/internal/core"
	"github.com/mailvet/mailvet/internal/correlate"
	"github.com/mailvet/mailvet/internal/ledger"
	"github.com/mailvet/mailvet/internal/mailsso"
	"github.com/mailvet/mailvet/pkg/message"
)

const defaultMaxConcurrent = 8

// Validator is the provider surface the bot needs. *mailsso.Client
// implements it.
type Validator interface {
	ValidateSingle(ctx context.Context, email string) (*mailsso.Result, error)
	SubmitBatch(ctx context.Context, emails []string, callbackURL string) (string, error)
	WaitForBatch(ctx context.Context, jobID string) ([]mailsso.Result, error)
}

// Metrics is the counter surface the bot records into. The gateway's
// metrics registry implements it; a nil Metrics disables recording.
type Metrics interface {
	RecordMessage()
	RecordValidations(n int)
	RecordError()
}

type noopMetrics struct{}

func (noopMetrics) RecordMessage() {}
func (noopMetrics) RecordValidations(int) {}
func (noopMetrics) RecordError() {}

// Options configures a Bot.
type Options struct {
	Logger       *slog.Logger
	Channels     *channel.Dispatcher
	Validator    Validator
	Credits      ledger.Ledger // nil = unlimited
	Correlations correlate.Store
	Metrics      Metrics // nil = no-op

	// CallbackBaseURL, when set, switches bulk jobs to asynchronous
	// webhook mode. Empty means synchronous polling.
	CallbackBaseURL string

	// MaxConcurrent bounds parallel message processing.
	MaxConcurrent int
}

// Bot is the core message processor. It is wired explicitly (not loaded
// from the module registry) because it sits between the channels and the
// gateway.
type Bot struct {
	logger       *slog.Logger
	channels     *channel.Dispatcher
	validator    Validator
	credits      ledger.Ledger
	correlations correlate.Store
	metrics      Metrics

	callbackBaseURL string

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Bot from options. Logger, Channels, Validator, and
// Correlations are required.
func New(opts Options) *Bot {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	// The context exists from construction, not Start: channels start
	// before the bot in the app lifecycle and may push inbound messages
	// immediately.
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		logger:          opts.Logger,
		channels:        opts.Channels,
		validator:       opts.Validator,
		credits:         opts.Credits,
		correlations:    opts.Correlations,
		metrics:         opts.Metrics,
		callbackBaseURL: opts.CallbackBaseURL,
		sem:             make(chan struct{}, maxConcurrent),
		ctx:             ctx,
		cancel:          cancel,
	}
}

// ModuleInfo implements core.Module.
func (b *Bot) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "bot",
		New: func() core.Module { return &Bot{} },
	}
}

// Start implements core.Starter.
func (b *Bot) Start() error {
	return nil
}

// Stop implements core.Stopper. In-flight message handlers are given until
// the context deadline to finish.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbox is the inbound entry point handed to every channel via SetInbox.
// It never blocks the channel's receive loop: processing happens on a
// bounded worker goroutine.
func (b *Bot) Inbox(msg message.InboundMessage) error {
	b.metrics.RecordMessage()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.sem <- struct{}{}:
		case <-b.ctx.Done():
			return
		}
		defer func() { <-b.sem }()

		b.handle(b.ctx, msg)
	}()
	return nil
}

// handle routes one inbound message.
func (b *Bot) handle(ctx context.Context, msg message.InboundMessage) {
	start := time.Now()
	log := b.logger.With(
		"channel", msg.Channel,
		"chat", msg.Chat.ID,
		"sender", msg.Sender.ID,
	)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		log.Debug("command handled", "command", msg.Command(), "elapsed", time.Since(start))
		return
	}

	b.handleSubmission(ctx, msg)
	log.Debug("submission handled", "elapsed", time.Since(start))
}

// reply sends text back to the chat the message came from.
func (b *Bot) reply(ctx context.Context, msg message.InboundMessage, text string) {
	b.deliver(ctx, msg.Channel, msg.Chat, text)
}

// deliver sends text to an arbitrary chat. Chunking to the platform limit
// is the channel's job: only the channel knows its real limit and how much
// its formatting inflates the text.
func (b *Bot) deliver(ctx context.Context, channelName string, chat message.Chat, text string) {
	out := message.OutboundMessage{
		Channel: channelName,
		Chat:    chat,
		Text:    text,
		Hints:   &message.OutboundHints{DisablePreview: true},
	}
	if err := b.channels.Send(ctx, out); err != nil {
		b.logger.Error("outbound send failed",
			"channel", channelName,
			"chat", chat.ID,
			"error", err,
		)
	}
}

// sendTyping shows a typing indicator when the channel supports it.
func (b *Bot) sendTyping(ctx context.Context, msg message.InboundMessage) {
	ch, ok := b.channels.Get(msg.Channel)
	if !ok {
		return
	}
	if tc, ok := ch.(channel.TypingChannel); ok {
		if err := tc.SendTyping(ctx, msg.Chat); err != nil {
			b.logger.Debug("typing indicator failed", "channel", msg.Channel, "error", err)
		}
	}
}
