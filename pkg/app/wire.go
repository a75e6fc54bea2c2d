package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mailvet/mailvet/internal/bot"
	"github.com/mailvet/mailvet/internal/channel"
	"github.com/mailvet/mailvet/internal/config"
	"github.com/mailvet/mailvet/internal/core"
	"github.com/mailvet/mailvet/internal/correlate"
	"github.com/mailvet/mailvet/internal/cron"
	"github.com/mailvet/mailvet/internal/gateway"
	"github.com/mailvet/mailvet/internal/ledger"
	"github.com/mailvet/mailvet/internal/mailsso"
)

// schedulerModule wraps a *cron.Scheduler to satisfy core.Module,
// core.Starter, and core.Stopper, so background jobs participate in the
// App lifecycle.
type schedulerModule struct {
	scheduler *cron.Scheduler
}

func (m *schedulerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "scheduler"}
}

func (m *schedulerModule) Start() error {
	return m.scheduler.Start()
}

func (m *schedulerModule) Stop(ctx context.Context) error {
	return m.scheduler.Stop(ctx)
}

// ledgerModule wraps a *ledger.FileLedger so the final counter flush
// happens during orderly shutdown.
type ledgerModule struct {
	ledger *ledger.FileLedger
}

func (m *ledgerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "ledger"}
}

func (m *ledgerModule) Start() error { return nil }

func (m *ledgerModule) Stop(_ context.Context) error {
	return m.ledger.Close()
}

// wireBot builds the Bot and its collaborators from the loaded modules:
// channels from the registry, the validation client from config, the
// correlation store and credit ledger from module services (with in-process
// fallbacks), and the webhook dispatcher for asynchronous bulk callbacks.
// Must be called after LoadModules and before Start.
func wireBot(
	app *core.App,
	appCtx *core.AppContext,
	ids []string,
	cfg *config.Config,
	dataDir string,
	logger *slog.Logger,
) error {
	// Discover channels from loaded modules. Register under the full module
	// ID (e.g. "channel.telegram") because that is what the channel sets as
	// msg.Channel in inbound messages.
	dispatcher := channel.NewDispatcher()
	var channels []channel.Channel
	for _, id := range ids {
		mod, ok := app.Module(id)
		if !ok {
			continue
		}
		ch, ok := mod.(channel.Channel)
		if !ok {
			continue
		}
		if err := dispatcher.Register(id, ch); err != nil {
			return fmt.Errorf("registering channel %s: %w", id, err)
		}
		channels = append(channels, ch)
		logger.Info("bot: registered channel", "channel", id)
	}
	if len(channels) == 0 {
		return fmt.Errorf("bot: at least one channel module is required")
	}

	validator := mailsso.NewClient(mailsso.Options{
		APIKey:       cfg.Validator.APIKey,
		BaseURL:      cfg.Validator.BaseURL,
		Timeout:      cfg.Validator.Timeout,
		PollDeadline: cfg.Validator.PollDeadline,
	})

	scheduler := cron.NewScheduler(logger)

	// Correlation store: prefer a durable store module, fall back to memory.
	var correlations correlate.Store
	if svc, ok := appCtx.Service("correlate.store"); ok {
		correlations, _ = svc.(correlate.Store)
	}
	if correlations == nil {
		correlations = correlate.NewMemoryStore()
		appCtx.RegisterService("correlate.store", correlations)
		logger.Info("bot: no store module loaded, correlations held in memory")
	}
	if sweeper, ok := correlations.(correlate.Sweeper); ok {
		job := &correlate.JanitorJob{
			Store:  sweeper,
			MaxAge: cfg.Bot.CorrelationTTL,
			Logger: logger,
		}
		if err := scheduler.RegisterJob(job); err != nil {
			return fmt.Errorf("registering correlation janitor: %w", err)
		}
	}

	// Credit ledger: prefer the store module's durable ledger. Otherwise,
	// when a limit or an explicit path is configured, open a flat-file
	// ledger under the data dir. A nil ledger means unlimited usage.
	var credits ledger.Ledger
	if svc, ok := appCtx.Service("ledger"); ok {
		credits, _ = svc.(ledger.Ledger)
	}
	if credits == nil && (cfg.Bot.CreditLimit > 0 || cfg.Bot.LedgerPath != "") {
		path := cfg.Bot.LedgerPath
		if path == "" {
			path = filepath.Join(dataDir, "usage.txt")
		}
		fileLedger, err := ledger.OpenFileLedger(path, cfg.Bot.CreditLimit)
		if err != nil {
			return fmt.Errorf("opening usage ledger: %w", err)
		}
		credits = fileLedger
		appCtx.RegisterService("ledger", fileLedger)
		app.Append(&ledgerModule{ledger: fileLedger})
		job := &ledger.FlushJob{Ledger: fileLedger, Logger: logger}
		if err := scheduler.RegisterJob(job); err != nil {
			return fmt.Errorf("registering ledger flush: %w", err)
		}
		logger.Info("bot: usage ledger opened",
			"path", path,
			"credit_limit", cfg.Bot.CreditLimit,
		)
	}

	var metrics bot.Metrics
	if svc, ok := appCtx.Service("gateway.metrics"); ok {
		if m, ok := svc.(*gateway.Metrics); ok {
			metrics = m
		}
	}

	b := bot.New(bot.Options{
		Logger:          logger,
		Channels:        dispatcher,
		Validator:       validator,
		Credits:         credits,
		Correlations:    correlations,
		Metrics:         metrics,
		CallbackBaseURL: cfg.Bot.CallbackBaseURL,
		MaxConcurrent:   cfg.Bot.MaxConcurrent,
	})

	for _, ch := range channels {
		ch.SetInbox(b.Inbox)
	}

	// Asynchronous bulk mode needs the gateway to receive provider
	// callbacks; fail fast if it is configured but the gateway is missing.
	if svc, ok := appCtx.Service("gateway.webhook_dispatcher"); ok {
		if wd, ok := svc.(*gateway.WebhookDispatcher); ok {
			wd.Register(bot.CallbackSource, b)
		}
	} else if cfg.Bot.CallbackBaseURL != "" {
		return fmt.Errorf("bot: callback_base_url requires the gateway module")
	}

	app.Append(b)
	app.Append(&schedulerModule{scheduler: scheduler})
	return nil
}
