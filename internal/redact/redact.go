// Package redact strips secrets from log output. The bot handles two
// credentials worth protecting — the Telegram bot token and the Mails.so
// API key — and either one pasted into a log line is a full account
// compromise.
package redact

import (
	"regexp"
	"strings"
	"sync"
)

// Placeholder is the replacement string for redacted secrets.
const Placeholder = "***REDACTED***"

// Redactor replaces secret values in strings with a redaction placeholder.
// It combines regex pattern matching (for known token formats) with literal
// value matching (for credentials read from configuration).
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with default patterns for the
// credential formats the bot touches.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: defaultPatterns(),
	}
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s
// with Placeholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, Placeholder)
	}

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, Placeholder)
		}
	}

	return s
}

// defaultPatterns returns compiled regex patterns for credential formats
// that can appear in URLs and error messages.
func defaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Telegram bot token: <bot_id>:<35-char hash>. Also matches the
		// token embedded in Bot API URLs ("/bot123456:ABC.../getMe").
		regexp.MustCompile(`\d{6,}:[A-Za-z0-9_-]{30,}`),
		// Bearer tokens in authorization headers.
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]{16,}=*`),
		// UUID-shaped API keys (the Mails.so key format).
		regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`),
	}
}
