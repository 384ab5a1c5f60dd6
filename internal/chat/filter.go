package chat

import "strings"

// FilteredReply is the private response sent in place of a message that
// contained a forbidden token (spec §7).
const FilteredReply = "Message filtered."

// forbiddenTokens are command fragments that must never be echoed back in
// any outgoing message (spec §7).
var forbiddenTokens = []string{"?password", "?passwd", "?squad"}

// ContainsForbidden reports whether msg carries any forbidden token,
// case-insensitively.
func ContainsForbidden(msg string) bool {
	lower := strings.ToLower(msg)
	for _, tok := range forbiddenTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
