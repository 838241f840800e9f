package models

import "strings"

// ConversationTurn pairs one user message with its assistant reply. A turn
// whose AssistantText is still empty is pending: it exists only in memory
// while a generation call is in flight and is never persisted.
type ConversationTurn struct {
	UserText      string `json:"userText"`
	AssistantText string `json:"assistantText"`
}

// History is the ordered conversation log for one user. Append-only, except
// that the trailing pending turn gets its AssistantText filled in.
type History []ConversationTurn

// Transcript renders the history as alternating "User:" / "Bot:" lines for
// prompt embedding. The Bot line is omitted for a pending turn.
func (h History) Transcript() string {
	var b strings.Builder
	for _, t := range h {
		b.WriteString("User: ")
		b.WriteString(t.UserText)
		b.WriteByte('\n')
		if t.AssistantText != "" {
			b.WriteString("Bot: ")
			b.WriteString(t.AssistantText)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Pending reports whether the last turn is still awaiting its reply.
func (h History) Pending() bool {
	return len(h) > 0 && h[len(h)-1].AssistantText == ""
}
