package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/mailvet/mailvet/internal/core"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, ensures modules are present, and checks
// that all referenced module IDs exist in the registry.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	if cfg.Validator.BaseURL != "" {
		if u, err := url.Parse(cfg.Validator.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("config: validator.base_url must be a valid http/https URL, got %q", cfg.Validator.BaseURL))
		}
	}

	if cfg.Bot.CallbackBaseURL != "" {
		if u, err := url.Parse(cfg.Bot.CallbackBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("config: bot.callback_base_url must be a valid http/https URL, got %q", cfg.Bot.CallbackBaseURL))
		}
	}

	if cfg.Bot.CreditLimit < 0 {
		errs = append(errs, fmt.Errorf("config: bot.credit_limit must not be negative, got %d", cfg.Bot.CreditLimit))
	}

	return errors.Join(errs...)
}
