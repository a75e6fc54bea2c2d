package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
)

// ErrBadPayload is returned by a WebhookHandler when the delivery body is
// malformed. The dispatcher answers 400 so the sender does not retry a
// payload that can never parse.
var ErrBadPayload = errors.New("gateway: malformed webhook payload")

// Delivery is one incoming webhook request.
type Delivery struct {
	Source  string
	Body    []byte
	Headers http.Header
	Query   url.Values
}

// WebhookHandler processes a validated webhook payload.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, d Delivery) error
}

type webhookEntry struct {
	handler WebhookHandler
	secret  string
}

// WebhookDispatcher routes incoming webhooks to registered handlers with
// optional HMAC validation.
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]webhookEntry
	logger   *slog.Logger
	metrics  *Metrics
}

// NewWebhookDispatcher creates a ready-to-use dispatcher.
func NewWebhookDispatcher(logger *slog.Logger, metrics *Metrics) *WebhookDispatcher {
	return &WebhookDispatcher{
		handlers: make(map[string]webhookEntry),
		logger:   logger,
		metrics:  metrics,
	}
}

// Register adds a handler for the given source, keeping any secret already
// configured for it.
func (d *WebhookDispatcher) Register(source string, h WebhookHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := d.handlers[source]
	entry.handler = h
	d.handlers[source] = entry
}

// SetSecret configures the HMAC secret for a source. An empty secret
// disables signature validation for that source.
func (d *WebhookDispatcher) SetSecret(source, secret string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := d.handlers[source]
	entry.secret = secret
	d.handlers[source] = entry
}

// ServeHTTP implements http.Handler. It extracts the source from the chi URL
// param, validates the signature if a secret is configured, and dispatches
// to the registered handler.
func (d *WebhookDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	source := chi.URLParam(r, "source")
	if source == "" {
		http.Error(w, "missing source", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	d.mu.RLock()
	entry, ok := d.handlers[source]
	d.mu.RUnlock()

	if !ok || entry.handler == nil {
		d.logger.Warn("webhook received for unregistered source", "source", source)
		d.record(source, "unhandled")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true,"warning":"no handler registered"}`))
		return
	}

	if entry.secret != "" {
		sig := r.Header.Get("X-Signature-256")
		if !validateHMAC(body, sig, entry.secret) {
			d.record(source, "invalid_signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	delivery := Delivery{
		Source:  source,
		Body:    body,
		Headers: r.Header,
		Query:   r.URL.Query(),
	}
	if err := entry.handler.HandleWebhook(r.Context(), delivery); err != nil {
		if errors.Is(err, ErrBadPayload) {
			d.record(source, "bad_payload")
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		d.logger.Error("webhook handler failed", "source", source, "error", err)
		d.record(source, "error")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	d.record(source, "ok")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (d *WebhookDispatcher) record(source, outcome string) {
	if d.metrics != nil {
		d.metrics.RecordWebhook(source, outcome)
	}
}

// validateHMAC checks HMAC-SHA256 signature in constant time.
func validateHMAC(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
