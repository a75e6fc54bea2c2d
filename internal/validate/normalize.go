// Package validate extracts and checks email address candidates from raw
// user input before anything is sent to the validation provider.
package validate

import (
	"regexp"
	"strings"
)

// emailPattern is the accepted address grammar: a local part of word
// characters, dots, and hyphens, an "@", a dotted domain, and a top-level
// label of at least two letters. Deliberately conservative — the provider
// is the authority on deliverability; this only filters obvious garbage
// so credits are not spent on it.
var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w-]+(\.[\w-]+)*\.[A-Za-z]{2,}$`)

// splitPattern matches any run of delimiters between candidates: commas,
// semicolons, newlines, and whitespace.
var splitPattern = regexp.MustCompile(`[,;\s]+`)

// Normalize splits raw user text into an ordered set of distinct, trimmed
// candidate strings and partitions them by the address grammar.
//
// Candidates keep first-seen order; duplicates after trimming are dropped.
// The second return value lists every distinct entry that failed the
// grammar. Callers must not submit anything when rejected is non-empty:
// the whole batch is refused and the failures reported back to the user.
func Normalize(raw string) (candidates, rejected []string) {
	seen := make(map[string]struct{})

	for _, part := range splitPattern.Split(raw, -1) {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}

		if IsWellFormed(entry) {
			candidates = append(candidates, entry)
		} else {
			rejected = append(rejected, entry)
		}
	}

	return candidates, rejected
}

// IsWellFormed reports whether s matches the accepted address grammar.
func IsWellFormed(s string) bool {
	return emailPattern.MatchString(s)
}
