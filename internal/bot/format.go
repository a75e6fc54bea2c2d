package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mailvet/mailvet/internal/ledger"
	"github.com/mailvet/mailvet/internal/mailsso"
	"github.com/mailvet/mailvet/internal/validate"
)

// normalizeInput extracts well-formed email candidates from free-form text.
func normalizeInput(text string) (candidates, rejected []string) {
	return validate.Normalize(text)
}

func statusGlyph(status string) string {
	switch status {
	case mailsso.StatusValid:
		return "✅"
	case mailsso.StatusInvalid:
		return "❌"
	case mailsso.StatusRisky:
		return "⚠️"
	default:
		return "❓"
	}
}

// formatResult renders one validation outcome as a single line containing
// the address and its status.
func formatResult(r mailsso.Result) string {
	line := fmt.Sprintf("%s %s — %s", statusGlyph(r.Status), r.Email, r.Status)
	if r.Reason != "" {
		line += " (" + r.Reason + ")"
	}
	return line
}

// formatDetail renders one validation outcome in full: the status line plus
// the domain and deliverability flags the provider reported. Used for the
// single-address reply; bulk reports stay one compact line per address.
func formatDetail(r mailsso.Result) string {
	var sb strings.Builder
	sb.WriteString(formatResult(r))

	if r.Domain != "" {
		sb.WriteString("\nDomain: " + r.Domain)
	}
	for _, f := range []struct {
		label string
		value *bool
	}{
		{"Deliverable", r.Deliverable},
		{"Catch-all", r.CatchAll},
		{"Generic", r.Generic},
		{"Free provider", r.Free},
	} {
		if f.value != nil {
			sb.WriteString("\n" + f.label + ": " + yesNo(*f.value))
		}
	}
	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// formatReport renders a bulk job's results as one message, one line per
// address.
func formatReport(results []mailsso.Result) string {
	if len(results) == 0 {
		return "The batch finished but returned no results."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Validation results (%d):\n", len(results))
	for _, r := range results {
		sb.WriteString(formatResult(r))
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

// rejectedText explains which entries failed the address grammar. The whole
// submission is refused, so every offending entry is named.
func rejectedText(rejected []string) string {
	var sb strings.Builder
	sb.WriteString("These entries are not valid email addresses:\n")
	for _, r := range rejected {
		sb.WriteString("• " + r + "\n")
	}
	sb.WriteString("Nothing was submitted. Fix the list and send it again.")
	return sb.String()
}

// errorText maps a provider or ledger failure to a user-facing message.
// The distinct failure kinds stay distinguishable so users know whether to
// retry, wait, or give up.
func errorText(err error) string {
	var httpErr *mailsso.HTTPError

	switch {
	case errors.Is(err, ledger.ErrCreditExceeded):
		return "The validation credit limit has been reached."
	case errors.Is(err, mailsso.ErrTimeout):
		return "The validation service took too long to answer. Please try again."
	case errors.Is(err, mailsso.ErrConnection):
		return "The validation service is unreachable right now. Please try again later."
	case errors.Is(err, mailsso.ErrJobNotReady):
		return "The batch is still processing and did not finish in time. Resubmit later or try fewer addresses."
	case errors.Is(err, mailsso.ErrMalformedResponse):
		return "The validation service returned an unreadable answer. Please try again."
	case errors.Is(err, mailsso.ErrNoAPIKey):
		return "The bot is not configured with a validation API key. Contact the operator."
	case errors.As(err, &httpErr):
		return fmt.Sprintf("The validation service rejected the request (HTTP %d).", httpErr.Status)
	default:
		return "Something went wrong while validating. Please try again."
	}
}
