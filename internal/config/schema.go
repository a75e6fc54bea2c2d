// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for mailvet.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "channel.telegram").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Validator configures the Mails.so validation client.
	Validator ValidatorConfig `yaml:"validator"`

	// Bot configures message handling: credit ceiling, bulk strategy,
	// ledger persistence, correlation retention.
	Bot BotConfig `yaml:"bot"`

	// Sentry holds optional error-reporting settings.
	Sentry *SentryConfig `yaml:"sentry,omitempty"`
}

// ValidatorConfig configures the outbound email-validation API client.
type ValidatorConfig struct {
	// APIKey is the Mails.so API key, sent as the x-mails-api-key header.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint. Defaults to https://api.mails.so.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every single-email request. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout"`

	// PollDeadline bounds the total wait in synchronous bulk mode.
	PollDeadline time.Duration `yaml:"poll_deadline"`
}

// BotConfig configures the message-handling core.
type BotConfig struct {
	// CreditLimit is the maximum number of validations allowed.
	// Zero means unlimited.
	CreditLimit int64 `yaml:"credit_limit"`

	// LedgerPath is the flat file holding the usage counter.
	// Empty defaults to <data_dir>/usage.txt.
	LedgerPath string `yaml:"ledger_path"`

	// CallbackBaseURL is the public base URL used to build the bulk-result
	// callback address. When set, bulk jobs run in asynchronous webhook
	// mode; when empty, the bot falls back to synchronous polling.
	CallbackBaseURL string `yaml:"callback_base_url"`

	// CorrelationTTL is how long an unclaimed bulk job mapping is kept
	// before the janitor expires it. Defaults to 24h.
	CorrelationTTL time.Duration `yaml:"correlation_ttl"`

	// MaxConcurrent bounds how many inbound messages are processed in
	// parallel. Defaults to 8.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// SentryConfig holds error-reporting settings. A nil section or empty DSN
// disables reporting.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Validator.BaseURL == "" {
		c.Validator.BaseURL = "https://api.mails.so"
	}
	if c.Validator.Timeout <= 0 {
		c.Validator.Timeout = 10 * time.Second
	}
	if c.Validator.PollDeadline <= 0 {
		c.Validator.PollDeadline = 2 * time.Minute
	}
	if c.Bot.CorrelationTTL <= 0 {
		c.Bot.CorrelationTTL = 24 * time.Hour
	}
	if c.Bot.MaxConcurrent <= 0 {
		c.Bot.MaxConcurrent = 8
	}
}
