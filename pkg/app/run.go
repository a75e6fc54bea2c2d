// Package app provides the entry point for the mailvet binary.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/mailvet/mailvet/internal/config"
	"github.com/mailvet/mailvet/internal/core"
	"github.com/mailvet/mailvet/internal/redact"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Run loads configuration, starts all modules, and blocks until a shutdown
// signal is received.
func Run(params RunParams) error {
	// Load .env before reading configuration so ${VAR} expansion sees it.
	_ = godotenv.Load()

	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// Wrap the text handler in a redacting handler so neither the bot token
	// nor the validation API key can leak into logs.
	redactor := redact.NewRedactor()
	redactor.AddLiteral(cfg.Validator.APIKey)

	innerHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: params.LogLevel,
	})
	logger := slog.New(redact.NewHandler(innerHandler, redactor))

	if cfg.Sentry != nil && cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     params.Version,
		}); err != nil {
			return fmt.Errorf("app: sentry init: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		logger.Info("sentry error reporting enabled",
			"environment", cfg.Sentry.Environment,
		)
	}

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("app: create data dir %s: %w", dataDir, err)
	}

	appCtx := core.NewAppContext(logger, dataDir)
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)

	// Register the config path so modules can discover it.
	appCtx.RegisterService("config.path", cfgPath)

	application := core.NewApp(appCtx)
	ids := config.Resolve(cfg)
	if err := application.LoadModules(ids); err != nil {
		return err
	}

	// Wire the bot between LoadModules and Start: discover channels, build
	// the validation client, ledger, and correlation store, hook the webhook
	// callback, and append the bot to the app lifecycle.
	if err := wireBot(application, appCtx, ids, cfg, dataDir, logger); err != nil {
		return err
	}

	if err := application.Start(); err != nil {
		return err
	}

	logger.Info("mailvet started",
		"version", params.Version,
		"config", cfgPath,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())
	application.Stop()
	logger.Info("shutdown complete")
	return nil
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/mailvet/mailvet.yaml →
// ~/.config/mailvet/mailvet.yaml → ./mailvet.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "mailvet", "mailvet.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "mailvet", "mailvet.yaml"))
	}

	candidates = append(candidates, "mailvet.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/mailvet if set, otherwise ~/.local/share/mailvet
// per the XDG spec.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok {
		return filepath.Join(dir, "mailvet")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mailvet")
}
