package jid

import (
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// Parse normalizes a JID string or a bare phone number into a JID.
// Bare numbers may carry a leading '+'; anything else must contain '@'.
func Parse(s string) (types.JID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.EmptyJID, fmt.Errorf("empty jid")
	}
	if !strings.Contains(s, "@") {
		phone := strings.TrimPrefix(s, "+")
		if !isDigits(phone) {
			return types.EmptyJID, fmt.Errorf("invalid phone number %q", s)
		}
		return types.NewJID(phone, types.DefaultUserServer), nil
	}
	j, err := types.ParseJID(s)
	if err != nil {
		return types.EmptyJID, fmt.Errorf("invalid jid %q: %w", s, err)
	}
	if j.User == "" && j.Server != types.BroadcastServer {
		return types.EmptyJID, fmt.Errorf("invalid jid %q: missing user", s)
	}
	return j.ToNonAD(), nil
}

// IsGroup reports whether the JID addresses a group chat.
func IsGroup(s string) bool {
	return strings.HasSuffix(s, "@"+types.GroupServer)
}

// Phone returns the user part of a JID, or the input with a leading '+'
// removed when it has no server.
func Phone(s string) string {
	if before, _, ok := strings.Cut(s, "@"); ok {
		return before
	}
	return strings.TrimPrefix(s, "+")
}

// SenderForms returns the spellings a sender may be stored under: the bare
// user part and, for user JIDs, the full JID.
func SenderForms(s string) []string {
	j, err := Parse(s)
	if err != nil {
		return []string{s}
	}
	if j.Server == types.DefaultUserServer {
		return []string{j.User, j.String()}
	}
	return []string{j.String()}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
