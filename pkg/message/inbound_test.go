package message

import "testing"

func TestCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain command", "/start", "start"},
		{"command with bot suffix", "/credits@mailvet_bot", "credits"},
		{"command with args", "/help me please", "help"},
		{"uppercase normalized", "/Start", "start"},
		{"leading whitespace", "  /start", "start"},
		{"not a command", "hello there", ""},
		{"empty", "", ""},
		{"bare slash", "/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := InboundMessage{Text: tt.text}
			if got := m.Command(); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCommand(t *testing.T) {
	m := InboundMessage{Text: "/start"}
	if !m.IsCommand() {
		t.Error("IsCommand() = false for /start")
	}
	m.Text = "user@example.com"
	if m.IsCommand() {
		t.Error("IsCommand() = true for plain text")
	}
}

func TestChatHelpers(t *testing.T) {
	dm := InboundMessage{Chat: Chat{ID: "1", Type: ChatDM}}
	if !dm.IsDirectMessage() || dm.IsGroup() {
		t.Error("DM chat misclassified")
	}
	grp := InboundMessage{Chat: Chat{ID: "2", Type: ChatGroup}}
	if grp.IsDirectMessage() || !grp.IsGroup() {
		t.Error("group chat misclassified")
	}
}
