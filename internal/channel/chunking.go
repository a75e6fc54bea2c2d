package channel

import (
	"strings"

	"github.com/mailvet/mailvet/pkg/message"
)

// MaxMessageLength is the default per-message byte limit, matching the
// Telegram cap. Channels with a different limit re-split on send.
const MaxMessageLength = 4096

// SplitMessage splits an outbound message into multiple messages that each
// fit within maxLength bytes. A bulk validation report lists one line per
// email, so large jobs can exceed a platform's message size limit; splitting
// happens at line boundaries to keep each email's result on one line.
// If the message already fits (or maxLength <= 0), a single-element slice
// is returned.
func SplitMessage(msg message.OutboundMessage, maxLength int) []message.OutboundMessage {
	if maxLength <= 0 || len(msg.Text) <= maxLength {
		return []message.OutboundMessage{msg}
	}

	chunks := splitText(msg.Text, maxLength)

	result := make([]message.OutboundMessage, 0, len(chunks))
	for _, chunk := range chunks {
		out := msg
		out.Text = chunk
		result = append(result, out)
	}
	return result
}

// splitText breaks text into chunks of at most maxLength bytes, preferring
// line boundaries. A single line longer than maxLength is force-split.
func splitText(text string, maxLength int) []string {
	lines := strings.Split(text, "\n")

	var chunks []string
	var current strings.Builder

	for _, line := range lines {
		lineWithNewline := line + "\n"

		if current.Len()+len(lineWithNewline) > maxLength {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
				current.Reset()
			}

			if len(lineWithNewline) > maxLength {
				chunks = append(chunks, forceSplit(line, maxLength)...)
				continue
			}
		}

		current.WriteString(lineWithNewline)
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
	}

	return chunks
}

// forceSplit breaks a single long line into chunks of at most maxLen bytes.
func forceSplit(line string, maxLen int) []string {
	var parts []string
	for len(line) > maxLen {
		parts = append(parts, line[:maxLen])
		line = line[maxLen:]
	}
	if len(line) > 0 {
		parts = append(parts, line)
	}
	return parts
}
