package bot

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mailvet/mailvet/internal/channel"
	"github.com/mailvet/mailvet/internal/correlate"
	"github.com/mailvet/mailvet/internal/ledger"
	"github.com/mailvet/mailvet/internal/mailsso"
	"github.com/mailvet/mailvet/pkg/message"
)

// fakeValidator is a scriptable Validator double.
type fakeValidator struct {
	mu sync.Mutex

	singleResult *mailsso.Result
	singleErr    error
	singleCalls  int

	jobID        string
	submitErr    error
	submitted    [][]string
	callbackURLs []string

	waitResults []mailsso.Result
	waitErr     error
}

func (f *fakeValidator) ValidateSingle(_ context.Context, email string) (*mailsso.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleCalls++
	if f.singleErr != nil {
		return nil, f.singleErr
	}
	if f.singleResult != nil {
		return f.singleResult, nil
	}
	return &mailsso.Result{Email: email, Status: mailsso.StatusValid}, nil
}

func (f *fakeValidator) SubmitBatch(_ context.Context, emails []string, callbackURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, emails)
	f.callbackURLs = append(f.callbackURLs, callbackURL)
	if f.submitErr != nil {
		return "", f.submitErr
	}
	if f.jobID != "" {
		return f.jobID, nil
	}
	return "job-1", nil
}

func (f *fakeValidator) WaitForBatch(_ context.Context, _ string) ([]mailsso.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return f.waitResults, nil
}

type testBot struct {
	bot       *Bot
	validator *fakeValidator
	ch        *channel.MockChannel
	store     *correlate.MemoryStore
	credits   *ledger.FileLedger
}

func newTestBot(t *testing.T, opts Options) *testBot {
	t.Helper()

	validator := &fakeValidator{}
	if opts.Validator == nil {
		opts.Validator = validator
	}

	ch := channel.NewMockChannel("telegram", channel.NewAllowList([]string{"42"}, nil))
	d := channel.NewDispatcher()
	if err := d.Register("telegram", ch); err != nil {
		t.Fatal(err)
	}
	opts.Channels = d

	store := correlate.NewMemoryStore()
	if opts.Correlations == nil {
		opts.Correlations = store
	}

	opts.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	b := New(opts)
	ch.SetInbox(b.Inbox)

	tb := &testBot{bot: b, validator: validator, ch: ch, store: store}
	if l, ok := opts.Credits.(*ledger.FileLedger); ok {
		tb.credits = l
	}
	return tb
}

func openLedger(t *testing.T, limit int64) *ledger.FileLedger {
	t.Helper()
	l, err := ledger.OpenFileLedger(filepath.Join(t.TempDir(), "usage"), limit)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func inbound(text string) message.InboundMessage {
	return message.InboundMessage{
		ID:        "m1",
		Timestamp: time.Now(),
		Channel:   "telegram",
		Sender:    message.Sender{ID: "42", Username: "tester"},
		Chat:      message.Chat{ID: "12345", Type: message.ChatDM},
		Text:      text,
	}
}

func lastReply(t *testing.T, ch *channel.MockChannel) string {
	t.Helper()
	sent := ch.SentMessages()
	if len(sent) == 0 {
		t.Fatal("no messages sent")
	}
	return sent[len(sent)-1].Text
}

func TestSingleValidationReply(t *testing.T) {
	deliverable := true
	tb := newTestBot(t, Options{})
	tb.validator.singleResult = &mailsso.Result{
		Email:       "user@example.com",
		Status:      mailsso.StatusValid,
		Reason:      "accepted_email",
		Domain:      "example.com",
		Deliverable: &deliverable,
	}

	tb.bot.handle(context.Background(), inbound("user@example.com"))

	reply := lastReply(t, tb.ch)
	if !strings.Contains(reply, "user@example.com") {
		t.Errorf("reply %q missing address", reply)
	}
	if !strings.Contains(reply, "valid") {
		t.Errorf("reply %q missing status", reply)
	}
	if !strings.Contains(reply, "Domain: example.com") {
		t.Errorf("reply %q missing domain detail", reply)
	}
	if !strings.Contains(reply, "Deliverable: yes") {
		t.Errorf("reply %q missing deliverability detail", reply)
	}
	if tb.validator.singleCalls != 1 {
		t.Errorf("singleCalls = %d, want 1", tb.validator.singleCalls)
	}
}

func TestDeliverLeavesChunkingToChannel(t *testing.T) {
	tb := newTestBot(t, Options{})

	// Well past any platform limit. The channel owns splitting, because
	// only it knows its real limit and how much its formatting inflates
	// the text; deliver must hand the report over intact.
	long := strings.Repeat("a@example.com valid\n", 400)
	tb.bot.deliver(context.Background(), "telegram", message.Chat{ID: "12345"}, long)

	sent := tb.ch.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("deliver sent %d messages, want 1", len(sent))
	}
	if sent[0].Text != long {
		t.Error("deliver altered the outbound text")
	}
}

func TestMalformedEntryRejectsWholeBatch(t *testing.T) {
	tb := newTestBot(t, Options{})

	tb.bot.handle(context.Background(), inbound("user@example.com not-an-email"))

	reply := lastReply(t, tb.ch)
	if !strings.Contains(reply, "not-an-email") {
		t.Errorf("reply %q does not name the malformed entry", reply)
	}
	if tb.validator.singleCalls != 0 || len(tb.validator.submitted) != 0 {
		t.Error("provider must not be called when the batch is refused")
	}
}

func TestNoAddressesFound(t *testing.T) {
	tb := newTestBot(t, Options{})

	tb.bot.handle(context.Background(), inbound("   "))

	reply := lastReply(t, tb.ch)
	if !strings.Contains(reply, "did not find any email addresses") {
		t.Errorf("reply = %q", reply)
	}
}

func TestCreditExceededRefusal(t *testing.T) {
	credits := openLedger(t, 10)
	if err := credits.Reserve(9); err != nil {
		t.Fatal(err)
	}

	tb := newTestBot(t, Options{Credits: credits})

	tb.bot.handle(context.Background(), inbound("a@example.com, b@example.com"))

	reply := lastReply(t, tb.ch)
	if !strings.Contains(reply, "credit") {
		t.Errorf("reply %q should mention credits", reply)
	}
	if credits.Used() != 9 {
		t.Errorf("Used() = %d after refusal, want 9", credits.Used())
	}
	if len(tb.validator.submitted) != 0 {
		t.Error("provider must not be called when credits are refused")
	}
}

func TestBulkAsyncSubmitsAndRecords(t *testing.T) {
	tb := newTestBot(t, Options{CallbackBaseURL: "https://bot.example.com"})
	tb.validator.jobID = "batch-9"

	tb.bot.handle(context.Background(), inbound("a@example.com b@example.com"))

	if len(tb.validator.submitted) != 1 || len(tb.validator.submitted[0]) != 2 {
		t.Fatalf("submitted = %+v, want one batch of 2", tb.validator.submitted)
	}
	wantURL := "https://bot.example.com/webhooks/mailsso"
	if tb.validator.callbackURLs[0] != wantURL {
		t.Errorf("callback URL = %q, want %q", tb.validator.callbackURLs[0], wantURL)
	}

	target, err := tb.store.Claim("batch-9")
	if err != nil {
		t.Fatalf("correlation not recorded: %v", err)
	}
	if target.Channel != "telegram" || target.ChatID != "12345" {
		t.Errorf("target = %+v", target)
	}

	reply := lastReply(t, tb.ch)
	if !strings.Contains(reply, "Submitted 2") {
		t.Errorf("reply = %q, want submission ack", reply)
	}
}

func TestBulkSyncRepliesWithReport(t *testing.T) {
	tb := newTestBot(t, Options{})
	tb.validator.waitResults = []mailsso.Result{
		{Email: "a@example.com", Status: mailsso.StatusValid},
		{Email: "b@example.com", Status: mailsso.StatusInvalid, Reason: "rejected_email"},
	}

	tb.bot.handle(context.Background(), inbound("a@example.com; b@example.com"))

	sent := tb.ch.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	report := sent[0].Text
	for _, want := range []string{"a@example.com", "b@example.com", "valid", "invalid"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestProviderErrorsMapToMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", mailsso.ErrTimeout, "too long"},
		{"connection", mailsso.ErrConnection, "unreachable"},
		{"malformed", mailsso.ErrMalformedResponse, "unreadable"},
		{"http", &mailsso.HTTPError{Status: 503}, "HTTP 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestBot(t, Options{})
			tb.validator.singleErr = tt.err

			tb.bot.handle(context.Background(), inbound("user@example.com"))

			reply := lastReply(t, tb.ch)
			if !strings.Contains(reply, tt.want) {
				t.Errorf("reply %q missing %q", reply, tt.want)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	credits := openLedger(t, 100)
	if err := credits.Reserve(25); err != nil {
		t.Fatal(err)
	}

	tb := newTestBot(t, Options{Credits: credits})
	ctx := context.Background()

	tb.bot.handle(ctx, inbound("/start"))
	if !strings.Contains(lastReply(t, tb.ch), "verify email addresses") {
		t.Error("/start reply missing introduction")
	}

	tb.bot.handle(ctx, inbound("/help"))
	if !strings.Contains(lastReply(t, tb.ch), "/credits") {
		t.Error("/help reply missing command list")
	}

	tb.bot.handle(ctx, inbound("/credits"))
	if !strings.Contains(lastReply(t, tb.ch), "25 of 100") {
		t.Errorf("/credits reply = %q", lastReply(t, tb.ch))
	}

	tb.bot.handle(ctx, inbound("/bogus"))
	if !strings.Contains(lastReply(t, tb.ch), "Unknown command") {
		t.Errorf("unknown command reply = %q", lastReply(t, tb.ch))
	}
}

func TestInboxProcessesThroughChannel(t *testing.T) {
	tb := newTestBot(t, Options{})
	if err := tb.bot.Start(); err != nil {
		t.Fatal(err)
	}

	if err := tb.ch.SimulateMessage(inbound("user@example.com")); err != nil {
		t.Fatalf("SimulateMessage: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tb.bot.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if len(tb.ch.SentMessages()) != 1 {
		t.Fatalf("sent %d messages, want 1", len(tb.ch.SentMessages()))
	}
}

func TestInboxDeniedSender(t *testing.T) {
	tb := newTestBot(t, Options{})
	if err := tb.bot.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = tb.bot.Stop(context.Background()) }()

	msg := inbound("user@example.com")
	msg.Sender.ID = "999" // not on the allow-list

	if err := tb.ch.SimulateMessage(msg); err != channel.ErrDenied {
		t.Errorf("SimulateMessage = %v, want ErrDenied", err)
	}
}
