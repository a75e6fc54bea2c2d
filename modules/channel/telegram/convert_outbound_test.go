package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mailvet/mailvet/pkg/message"
)

func TestSendOutbound_AutoMarkdownV2(t *testing.T) {
	var captured SendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		writeJSON(t, w, APIResponse[Message]{
			OK:     true,
			Result: Message{MessageID: 1, Chat: Chat{ID: 42, Type: "private"}},
		})
	}))
	defer srv.Close()

	tg := &Telegram{
		client: NewClient("TOKEN", srv.URL),
		logger: discardLogger(),
		config: Config{MaxMessageLength: 4096},
	}

	msg := message.OutboundMessage{
		Chat: message.Chat{ID: "42", Type: message.ChatDM},
		Text: "Hello **world**!",
		// Hints is nil, so text is auto-converted to MarkdownV2.
	}

	if err := tg.sendOutbound(context.Background(), msg); err != nil {
		t.Fatalf("sendOutbound() error: %v", err)
	}

	if captured.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", captured.ChatID)
	}
	if captured.ParseMode != "MarkdownV2" {
		t.Errorf("ParseMode = %q, want %q", captured.ParseMode, "MarkdownV2")
	}

	// FormatMarkdownV2 converts **world** to *world* and escapes other chars.
	want := FormatMarkdownV2("Hello **world**!")
	if captured.Text != want {
		t.Errorf("Text = %q, want %q", captured.Text, want)
	}
}

func TestSendOutbound_ExplicitParseMode(t *testing.T) {
	var captured SendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		writeJSON(t, w, APIResponse[Message]{
			OK:     true,
			Result: Message{MessageID: 1, Chat: Chat{ID: 42, Type: "private"}},
		})
	}))
	defer srv.Close()

	tg := &Telegram{
		client: NewClient("TOKEN", srv.URL),
		logger: discardLogger(),
		config: Config{MaxMessageLength: 4096},
	}

	msg := message.OutboundMessage{
		Chat:  message.Chat{ID: "42", Type: message.ChatDM},
		Text:  "<b>bold</b>",
		Hints: &message.OutboundHints{ParseMode: "HTML"},
	}

	if err := tg.sendOutbound(context.Background(), msg); err != nil {
		t.Fatalf("sendOutbound() error: %v", err)
	}

	if captured.ParseMode != "HTML" {
		t.Errorf("ParseMode = %q, want %q", captured.ParseMode, "HTML")
	}
	if captured.Text != "<b>bold</b>" {
		t.Errorf("Text = %q, want %q", captured.Text, "<b>bold</b>")
	}
}

func TestSendOutbound_ChunksLongReport(t *testing.T) {
	var texts []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req SendMessageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		texts = append(texts, req.Text)
		writeJSON(t, w, APIResponse[Message]{
			OK:     true,
			Result: Message{MessageID: 1, Chat: Chat{ID: 42, Type: "private"}},
		})
	}))
	defer srv.Close()

	tg := &Telegram{
		client: NewClient("TOKEN", srv.URL),
		logger: discardLogger(),
		config: Config{MaxMessageLength: 40},
	}

	// Three report lines that cannot fit a 40-byte message together.
	lines := []string{
		"a@example.com valid",
		"b@example.com invalid",
		"c@example.com risky",
	}
	msg := message.OutboundMessage{
		Chat:  message.Chat{ID: "42", Type: message.ChatDM},
		Text:  strings.Join(lines, "\n"),
		Hints: &message.OutboundHints{ParseMode: "HTML"}, // keep text verbatim
	}

	if err := tg.sendOutbound(context.Background(), msg); err != nil {
		t.Fatalf("sendOutbound() error: %v", err)
	}

	if len(texts) < 2 {
		t.Fatalf("sent %d messages, want at least 2", len(texts))
	}
	for i, text := range texts {
		if len(text) > 40 {
			t.Errorf("message %d is %d bytes, want <= 40", i, len(text))
		}
	}
	if joined := strings.Join(texts, "\n"); joined != msg.Text {
		t.Errorf("reassembled text = %q, want %q", joined, msg.Text)
	}
}

func TestSendOutbound_EscapedChunksStayUnderLimit(t *testing.T) {
	var texts []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req SendMessageRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		texts = append(texts, req.Text)
		writeJSON(t, w, APIResponse[Message]{
			OK:     true,
			Result: Message{MessageID: 1, Chat: Chat{ID: 42, Type: "private"}},
		})
	}))
	defer srv.Close()

	tg := &Telegram{
		client: NewClient("TOKEN", srv.URL),
		logger: discardLogger(),
		config: Config{MaxMessageLength: 64},
	}

	// Report lines dominated by characters MarkdownV2 must escape, so the
	// escaped form is close to double the raw length. Without headroom a
	// raw chunk near 64 bytes would overflow the limit once escaped.
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "x.y-z@mail-host.example.com - invalid (no_mx_record)")
	}
	msg := message.OutboundMessage{
		Chat: message.Chat{ID: "42", Type: message.ChatDM},
		Text: strings.Join(lines, "\n"),
		// Hints is nil, so every chunk is escaped as MarkdownV2.
	}

	if err := tg.sendOutbound(context.Background(), msg); err != nil {
		t.Fatalf("sendOutbound() error: %v", err)
	}

	if len(texts) < 2 {
		t.Fatalf("sent %d messages, want at least 2", len(texts))
	}
	for i, text := range texts {
		if len(text) > 64 {
			t.Errorf("message %d is %d bytes after escaping, want <= 64", i, len(text))
		}
	}
}

func TestSendOutbound_DeliveryHints(t *testing.T) {
	var captured SendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		writeJSON(t, w, APIResponse[Message]{
			OK:     true,
			Result: Message{MessageID: 1, Chat: Chat{ID: 42, Type: "private"}},
		})
	}))
	defer srv.Close()

	tg := &Telegram{
		client: NewClient("TOKEN", srv.URL),
		logger: discardLogger(),
		config: Config{MaxMessageLength: 4096},
	}

	msg := message.OutboundMessage{
		Chat: message.Chat{ID: "42", Type: message.ChatDM},
		Text: "report ready",
		Hints: &message.OutboundHints{
			DisablePreview:      true,
			DisableNotification: true,
		},
	}

	if err := tg.sendOutbound(context.Background(), msg); err != nil {
		t.Fatalf("sendOutbound() error: %v", err)
	}

	if !captured.DisableWebPagePreview {
		t.Error("DisableWebPagePreview = false, want true")
	}
	if !captured.DisableNotification {
		t.Error("DisableNotification = false, want true")
	}
}

func TestSendOutbound_InvalidChatID(t *testing.T) {
	tg := &Telegram{
		client: NewClient("TOKEN", "http://127.0.0.1:0"),
		logger: discardLogger(),
		config: Config{MaxMessageLength: 4096},
	}

	msg := message.OutboundMessage{
		Chat: message.Chat{ID: "not-a-number", Type: message.ChatDM},
		Text: "hello",
	}

	if err := tg.sendOutbound(context.Background(), msg); err == nil {
		t.Error("sendOutbound() should reject a non-numeric chat ID")
	}
}
